// Package config handles configuration loading, validation, and instance
// resolution for glidesync.
//
// Configuration comes from three layers, later layers winning: built-in
// defaults, a YAML file (an explicit --config path, ./glidesync.yaml, or
// ~/.config/glidesync/glidesync.yaml), and GLIDESYNC_* environment
// variables for scalar settings (GLIDESYNC_SYNC_DIR, GLIDESYNC_LOGGING_LEVEL,
// and so on).
package config

import (
	"fmt"
	"time"
)

// Config holds the complete tool configuration.
type Config struct {
	// DefaultInstance names the instance used when none is given.
	DefaultInstance string `mapstructure:"default_instance" yaml:"default_instance"`

	// Instances maps qualifier names to instance credentials.
	Instances map[string]InstanceConfig `mapstructure:"instances" yaml:"instances"`

	// Sync configures the default sync directory and type filter.
	Sync SyncConfig `mapstructure:"sync" yaml:"sync"`

	// Watch configures the file watcher timers and dashboard.
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`

	// Journal configures the local sync history database.
	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`

	// Logging configures structured log output.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// RateLimit throttles requests to the instance.
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`

	// TypesFile is an optional TOML file adding script type descriptors.
	TypesFile string `mapstructure:"types_file" yaml:"types_file"`
}

// InstanceConfig holds the connection details for one instance.
type InstanceConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// SyncConfig holds sync defaults.
type SyncConfig struct {
	// Dir is the local script directory.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// Types restricts bulk and watch operations (empty = all).
	Types []string `mapstructure:"types" yaml:"types"`
}

// WatchConfig holds watcher tuning.
type WatchConfig struct {
	// StabilityWindow is how long a file must hold still before syncing.
	StabilityWindow time.Duration `mapstructure:"stability_window" yaml:"stability_window"`

	// PollInterval is how often changed files are re-examined.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`

	// Cooldown suppresses re-syncs of a path after one completes.
	Cooldown time.Duration `mapstructure:"cooldown" yaml:"cooldown"`

	// DashboardAddr, when set, serves the live dashboard there.
	DashboardAddr string `mapstructure:"dashboard_addr" yaml:"dashboard_addr"`
}

// MarshalYAML writes the timer fields as duration strings ("500ms")
// rather than nanosecond integers, keeping generated config files
// readable. Loading accepts both forms.
func (w WatchConfig) MarshalYAML() (interface{}, error) {
	return struct {
		StabilityWindow string `yaml:"stability_window"`
		PollInterval    string `yaml:"poll_interval"`
		Cooldown        string `yaml:"cooldown"`
		DashboardAddr   string `yaml:"dashboard_addr"`
	}{
		StabilityWindow: w.StabilityWindow.String(),
		PollInterval:    w.PollInterval.String(),
		Cooldown:        w.Cooldown.String(),
		DashboardAddr:   w.DashboardAddr,
	}, nil
}

// JournalConfig holds sync history settings.
type JournalConfig struct {
	// Path is the SQLite database location.
	Path string `mapstructure:"path" yaml:"path"`

	// Disabled turns history recording off entirely.
	Disabled bool `mapstructure:"disabled" yaml:"disabled"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`

	// Format is text or json.
	Format string `mapstructure:"format" yaml:"format"`

	// File, when set, writes rotated logs there instead of stderr.
	File string `mapstructure:"file" yaml:"file"`

	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// RateLimitConfig throttles the Table API client.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" yaml:"rps"`
	Burst int     `mapstructure:"burst" yaml:"burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Instances: make(map[string]InstanceConfig),
		Sync: SyncConfig{
			Dir: "scripts",
		},
		Watch: WatchConfig{
			StabilityWindow: 500 * time.Millisecond,
			PollInterval:    100 * time.Millisecond,
			Cooldown:        time.Second,
		},
		Journal: JournalConfig{
			Path: ".glidesync/history.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 5,
		},
	}
}

// Validate checks the configuration for contradictions and bad values.
func (c *Config) Validate() error {
	for name, inst := range c.Instances {
		if inst.URL == "" {
			return fmt.Errorf("instance %q has no url", name)
		}
		if inst.Username == "" {
			return fmt.Errorf("instance %q has no username", name)
		}
	}

	if c.DefaultInstance != "" {
		if _, ok := c.Instances[c.DefaultInstance]; !ok {
			return fmt.Errorf("default_instance %q is not in instances", c.DefaultInstance)
		}
	}

	if c.Watch.StabilityWindow <= 0 {
		return fmt.Errorf("watch.stability_window must be positive, got %v", c.Watch.StabilityWindow)
	}
	if c.Watch.PollInterval <= 0 {
		return fmt.Errorf("watch.poll_interval must be positive, got %v", c.Watch.PollInterval)
	}
	if c.Watch.Cooldown <= 0 {
		return fmt.Errorf("watch.cooldown must be positive, got %v", c.Watch.Cooldown)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}

	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate_limit.rps must be positive, got %v", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1, got %d", c.RateLimit.Burst)
	}

	return nil
}

// Instance resolves an instance qualifier to its credentials. An empty
// name resolves through default_instance. The returned string is the
// resolved qualifier.
func (c *Config) Instance(name string) (string, InstanceConfig, error) {
	if name == "" {
		name = c.DefaultInstance
	}
	if name == "" {
		return "", InstanceConfig{}, fmt.Errorf("no instance given and no default_instance configured; run `glidesync init` or pass --instance")
	}

	inst, ok := c.Instances[name]
	if !ok {
		return "", InstanceConfig{}, fmt.Errorf("instance %q is not configured", name)
	}
	return name, inst, nil
}
