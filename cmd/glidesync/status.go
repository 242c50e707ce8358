package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/glidekit/glidesync/internal/journal"
	"github.com/glidekit/glidesync/internal/snow"
	"github.com/glidekit/glidesync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "info",
	Short:   "Show instance reachability and sync history totals",
	Long: `Check that the configured instance answers and summarize the local setup.

Shows:
  - Which instance is selected and whether it is reachable
  - The sync directory and journal location
  - Totals from the sync history, when one exists`,
	Run: func(cmd *cobra.Command, args []string) {
		name, inst, err := cfg.Instance(instanceFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		client, err := snow.New(snow.Config{
			URL:      inst.URL,
			Username: inst.Username,
			Password: inst.Password,
			Logger:   logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		reach := ui.RenderPass("reachable")
		if err := client.TestConnection(ctx); err != nil {
			reach = ui.RenderFail(fmt.Sprintf("unreachable (%v)", err))
		}

		journalLine := cfg.Journal.Path
		if cfg.Journal.Disabled {
			journalLine = "disabled"
		}

		fmt.Printf("\n%s glidesync status\n\n", ui.RenderAccent("📊"))
		fmt.Print(ui.Table([][2]string{
			{"Instance", name},
			{"URL", inst.URL},
			{"User", inst.Username},
			{"Connection", reach},
			{"Sync dir", cfg.Sync.Dir},
			{"Journal", journalLine},
			{"Log level", cfg.Logging.Level},
		}))

		if cfg.Journal.Disabled {
			fmt.Println()
			return
		}
		if _, err := os.Stat(cfg.Journal.Path); os.IsNotExist(err) {
			fmt.Printf("\n%s No sync history yet\n\n", ui.RenderMuted("·"))
			return
		}
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening sync history: %v\n", err)
			os.Exit(1)
		}
		defer j.Close()
		if err := j.InitSchema(); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing sync history: %v\n", err)
			os.Exit(1)
		}
		stats, err := j.Stats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading sync history: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s Sync history\n\n", ui.RenderAccent("🗂"))
		rows := [][2]string{
			{"Total", strconv.Itoa(stats.Total)},
			{"Succeeded", strconv.Itoa(stats.Succeeded)},
			{"Failed", strconv.Itoa(stats.Failed)},
		}
		if stats.LastSync != nil {
			rows = append(rows, [2]string{"Last sync", stats.LastSync.Local().Format("2006-01-02 15:04:05")})
		}
		fmt.Print(ui.Table(rows))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
