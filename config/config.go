package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSourceURL is the image every favicon and splash asset is derived from.
const DefaultSourceURL = "https://gist.githubusercontent.com/stancsz/45eefbcaf0b766f70fb035dc60ff64b1/" +
	"raw/4fa918d1b9980c15b673fe331933f1daef85e2de/favicon.png"

// DefaultPath is where Load looks when no -config flag is given.
const DefaultPath = "favicongen.yaml"

// Config represents the application configuration
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
	Resample ResampleConfig `yaml:"resample"`
	Ntfy     NtfyConfig     `yaml:"ntfy"`
}

type SourceConfig struct {
	URL string `yaml:"url"`
	// Timeout is a Go duration string. Empty means no timeout.
	Timeout string `yaml:"timeout"`
}

type OutputConfig struct {
	BaseDir string `yaml:"base_dir"`
}

type ResampleConfig struct {
	Filter string `yaml:"filter"`
}

type NtfyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Server  string `yaml:"server"`
	Topic   string `yaml:"topic"`
}

// Filters lists the accepted resample.filter values.
var Filters = []string{"lanczos", "catmullrom", "linear", "box", "nearest"}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL: DefaultSourceURL,
		},
		Output: OutputConfig{
			BaseDir: ".",
		},
		Resample: ResampleConfig{
			Filter: "lanczos",
		},
		Ntfy: NtfyConfig{
			Server: "https://ntfy.sh",
		},
	}
}

// Load reads and parses the configuration file on top of the defaults.
// A missing file is only tolerated at DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadEnv applies overrides from the process environment, reading envFile
// first if it exists. Variables already set in the environment win over the file.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv("NTFY_TOPIC"); v != "" {
		c.Ntfy.Topic = v
	}
	if v := os.Getenv("NTFY_SERVER"); v != "" {
		c.Ntfy.Server = v
	}
	if v := os.Getenv("FAVICON_BASE_DIR"); v != "" {
		c.Output.BaseDir = v
	}

	return c.Validate()
}

// Validate checks if required configuration fields are set
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.Output.BaseDir == "" {
		return fmt.Errorf("output.base_dir is required")
	}
	if !slices.Contains(Filters, c.Resample.Filter) {
		return fmt.Errorf("resample.filter %q is not one of %v", c.Resample.Filter, Filters)
	}
	if c.Ntfy.Enabled {
		if c.Ntfy.Server == "" {
			return fmt.Errorf("ntfy.server is required when ntfy is enabled")
		}
		if c.Ntfy.Topic == "" {
			return fmt.Errorf("ntfy.topic is required when ntfy is enabled")
		}
	}
	return nil
}

// Timeout parses source.timeout. Zero means the download may block indefinitely.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Source.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Source.Timeout)
	if err != nil {
		return 0, fmt.Errorf("source.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("source.timeout must not be negative")
	}
	return d, nil
}
