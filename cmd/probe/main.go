package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"favicongen/common"
	"favicongen/config"
)

// Prints the size each target would be rendered at, without downloading
// or writing anything.
func main() {
	configPath := config.DefaultPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.LoadEnv(".env"); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	// Source size is unknown without a download; zero marks "would use source size".
	var unknown common.Size

	for _, target := range common.DefaultTargets {
		path := filepath.Join(cfg.Output.BaseDir, target)
		size, existed, err := common.ResolveSize(path, unknown)

		switch {
		case err != nil:
			fmt.Printf("%-45s %-4s unreadable (%v), would use source size\n", target, common.FormatOf(path), err)
		case !existed:
			fmt.Printf("%-45s %-4s missing, would use source size\n", target, common.FormatOf(path))
		default:
			fmt.Printf("%-45s %-4s %s\n", target, common.FormatOf(path), size)
		}
	}
}
