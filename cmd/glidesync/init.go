package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/glidekit/glidesync/internal/config"
	"github.com/glidekit/glidesync/internal/snow"
	"github.com/glidekit/glidesync/internal/ui"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "setup",
	Short:   "Interactive setup: configure an instance and write the config file",
	Long: `Create or extend the glidesync config interactively.

Prompts for an instance name, URL, and credentials, checks that the
instance answers, and writes the config file. Re-running init adds or
replaces instances without touching the rest of the config.

The password is stored in the config file, which is written with mode
0600. Use 'glidesync login' to rotate it later.

Example usage:
  glidesync init
  glidesync init --config team-glidesync.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			name     = "dev"
			instURL  string
			username string
			password string
			dir      = cfg.Sync.Dir
		)

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Instance name").
					Description("Short handle used with --instance").
					Value(&name).
					Validate(notEmpty("instance name")),
				huh.NewInput().
					Title("Instance URL").
					Placeholder("https://dev12345.service-now.com").
					Value(&instURL).
					Validate(notEmpty("instance URL")),
				huh.NewInput().
					Title("Username").
					Value(&username).
					Validate(notEmpty("username")),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&password),
				huh.NewInput().
					Title("Script directory").
					Description("Where pulled files land and watch looks").
					Value(&dir),
			),
		)
		if err := form.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		instURL = strings.TrimRight(strings.TrimSpace(instURL), "/")

		client, err := snow.New(snow.Config{
			URL:      instURL,
			Username: username,
			Password: password,
			Logger:   logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.TestConnection(ctx); err != nil {
			fmt.Printf("%s Could not verify the connection: %v\n", ui.RenderWarn("⚠"), err)
			fmt.Printf("   Saving the config anyway; fix the credentials with 'glidesync login %s'\n", name)
		} else {
			fmt.Printf("%s Connection verified\n", ui.RenderPass("✓"))
		}

		if cfg.Instances == nil {
			cfg.Instances = map[string]config.InstanceConfig{}
		}
		cfg.Instances[name] = config.InstanceConfig{
			URL:      instURL,
			Username: username,
			Password: password,
		}
		if cfg.DefaultInstance == "" {
			cfg.DefaultInstance = name
		}
		if dir != "" {
			cfg.Sync.Dir = dir
		}

		path := configWritePath()
		if err := writeConfig(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), path)
		fmt.Printf("   Instance: %s (%s)\n", name, instURL)
		fmt.Printf("   Sync dir: %s\n", cfg.Sync.Dir)
		fmt.Printf("\nNext: glidesync pull \"MyScript.sys_script.js\"\n")
	},
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
