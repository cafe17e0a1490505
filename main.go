package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"favicongen/builder"
	"favicongen/config"
	"favicongen/fetcher"
	"favicongen/notify"
	"favicongen/watcher"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to YAML config file")
	envFile := flag.String("env", ".env", "optional dotenv file with NTFY_*/FAVICON_* overrides")
	watch := flag.Bool("watch", false, "keep running and rebuild when the config file changes")
	flag.Parse()

	fmt.Println("favicongen - favicon and splash asset generator")
	fmt.Println("===============================================")

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		var statusErr *fetcher.StatusError
		if errors.As(err, &statusErr) || !*watch {
			log.Fatalf("Build failed: %v", err)
		}
		log.Printf("Build failed: %v", err)
	}

	if !*watch {
		return
	}

	w, err := watcher.NewWatcher(*configPath, watcher.DefaultDebounce)
	if err != nil {
		log.Fatalf("Failed to create watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		log.Fatalf("Failed to start watcher: %v", err)
	}

	log.Println("Press Ctrl+C to stop")

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		w.Stop()
	}()

	for event := range w.Events() {
		if event.Type == watcher.EventDeleted {
			log.Printf("Config %s removed, keeping last settings", event.FilePath)
			continue
		}

		next, err := loadConfig(*configPath, *envFile)
		if err != nil {
			log.Printf("Ignoring config change: %v", err)
			continue
		}
		cfg = next

		if err := run(ctx, cfg); err != nil {
			log.Printf("Build failed: %v", err)
		}
	}
}

func loadConfig(path, envFile string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(envFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run performs one build and reports the outcome to ntfy when enabled.
func run(ctx context.Context, cfg *config.Config) error {
	b, err := builder.NewFaviconBuilder(cfg)
	if err != nil {
		return err
	}

	ntfy := notify.NewNtfySender(cfg)

	report, err := b.Build(ctx)
	if err != nil {
		if nErr := ntfy.BuildFailed(err); nErr != nil {
			log.Printf("Failed to send ntfy notification: %v", nErr)
		}
		return err
	}

	var written []string
	for _, res := range report.Results {
		if !res.Skipped {
			written = append(written, res.Path)
		}
	}
	if err := ntfy.BuildCompleted(report.Written(), written); err != nil {
		log.Printf("Failed to send ntfy notification: %v", err)
	}

	return nil
}
