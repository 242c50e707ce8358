package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/glidekit/glidesync/internal/config"
	"github.com/glidekit/glidesync/internal/journal"
	"github.com/glidekit/glidesync/internal/logging"
	"github.com/glidekit/glidesync/internal/scripttype"
	"github.com/glidekit/glidesync/internal/snow"
	"github.com/glidekit/glidesync/internal/sync"
	"github.com/glidekit/glidesync/internal/ui"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

// Shared state built once by the root PersistentPreRunE. Commands read
// these instead of loading configuration themselves.
var (
	cfgFile      string
	instanceFlag string
	verbose      bool

	cfg       *config.Config
	registry  *scripttype.Registry
	logger    *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "glidesync",
	Short: "Sync server-side scripts between ServiceNow and local files",
	Long: `glidesync keeps script records on a ServiceNow instance and files on disk
in step.

Files are named <name>.<type>.<ext>, where <type> is the remote table
(sys_script, sys_script_include, ...). Push copies a file's contents into
the matching record's script field; pull copies the record's script field
over the file. Records are matched by name, and glidesync never creates
or deletes records on the instance.

Getting started:
  glidesync init                                  # interactive setup
  glidesync pull "CheckDuplicates.sys_script_include.js"
  glidesync push scripts/CheckDuplicates.sys_script_include.js
  glidesync watch                                 # auto-push on save`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			// init writes the config; a broken or absent one must not
			// stop it.
			if cmd.Name() != "init" {
				return err
			}
			loaded = config.Default()
		}
		cfg = loaded
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, logCloser = logging.Setup(cfg.Logging)

		registry, err = scripttype.Load(cfg.TypesFile)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./glidesync.yaml, then ~/.config/glidesync/)")
	rootCmd.PersistentFlags().StringVarP(&instanceFlag, "instance", "i", "", "configured instance to talk to (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
		&cobra.Group{ID: "info", Title: "Info Commands:"},
	)
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect resolves which instance to talk to and builds a sync engine
// over it. The returned string is the resolved instance name.
func connect() (*sync.Engine, *snow.Client, string, error) {
	name, inst, err := cfg.Instance(instanceFlag)
	if err != nil {
		return nil, nil, "", err
	}
	client, err := snow.New(snow.Config{
		URL:      inst.URL,
		Username: inst.Username,
		Password: inst.Password,
		RPS:      cfg.RateLimit.RPS,
		Burst:    cfg.RateLimit.Burst,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, "", err
	}
	engine := sync.New(client, osfs.New("/"), registry, logger)
	return engine, client, name, nil
}

// openJournal opens the sync history database, or returns nil when
// recording is disabled or the database cannot be opened. Sync commands
// work without a journal; they just leave no history.
func openJournal() *journal.Journal {
	if cfg.Journal.Disabled {
		return nil
	}
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		logger.Warn("sync history disabled", slog.String("error", err.Error()))
		return nil
	}
	if err := j.InitSchema(); err != nil {
		logger.Warn("sync history disabled", slog.String("error", err.Error()))
		j.Close()
		return nil
	}
	return j
}

// recordResult writes one outcome to the journal, when one is open.
func recordResult(j *journal.Journal, res sync.Result, instance string) {
	if j == nil {
		return
	}
	if err := j.Record(res, instance); err != nil {
		logger.Warn("failed to record sync history", slog.String("error", err.Error()))
	}
}

// printResult renders one sync outcome.
func printResult(res sync.Result) {
	if res.Success {
		fmt.Printf("%s %s\n", ui.RenderPass("✓"), res.Message)
		return
	}
	fmt.Printf("%s %s\n", ui.RenderFail("✗"), res.Message)
	if res.Err != "" {
		fmt.Printf("   Detail: %s\n", ui.RenderMuted(res.Err))
	}
}

// configWritePath decides where init and login write the config file:
// the --config flag when given, otherwise an existing ./glidesync.yaml,
// otherwise the existing user-level config, otherwise a fresh
// ./glidesync.yaml.
func configWritePath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat("glidesync.yaml"); err == nil {
		return "glidesync.yaml"
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "glidesync", "glidesync.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "glidesync.yaml"
}

// writeConfig marshals c to path as YAML. The file holds credentials,
// hence 0600.
func writeConfig(path string, c *config.Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
