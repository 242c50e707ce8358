package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the given file path. An empty path
// searches ./glidesync.yaml and ~/.config/glidesync/glidesync.yaml; a
// missing file during search is fine (defaults + environment apply), a
// missing explicit path is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("glidesync")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "glidesync"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("GLIDESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No file on the search path: defaults and env only.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Instances == nil {
		cfg.Instances = make(map[string]InstanceConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every known key so environment overrides bind
// even without a config file.
func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("default_instance", def.DefaultInstance)
	v.SetDefault("sync.dir", def.Sync.Dir)
	v.SetDefault("sync.types", def.Sync.Types)
	v.SetDefault("watch.stability_window", def.Watch.StabilityWindow)
	v.SetDefault("watch.poll_interval", def.Watch.PollInterval)
	v.SetDefault("watch.cooldown", def.Watch.Cooldown)
	v.SetDefault("watch.dashboard_addr", def.Watch.DashboardAddr)
	v.SetDefault("journal.path", def.Journal.Path)
	v.SetDefault("journal.disabled", def.Journal.Disabled)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.max_size_mb", def.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", def.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", def.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", def.Logging.Compress)
	v.SetDefault("rate_limit.rps", def.RateLimit.RPS)
	v.SetDefault("rate_limit.burst", def.RateLimit.Burst)
	v.SetDefault("types_file", def.TypesFile)
}
