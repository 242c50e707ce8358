package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/glidekit/glidesync/internal/sync"
	"github.com/glidekit/glidesync/internal/ui"
)

var syncdirCmd = &cobra.Command{
	Use:     "syncdir [dir]",
	GroupID: "sync",
	Short:   "Push every script file in a directory",
	Long: `Push all validly named script files in a directory to the instance.

Bulk sync is push-only: local files are the source of truth and nothing
is pulled over them. Files whose names do not decode as
<name>.<type>.<ext> are skipped without being counted, and a failing
file does not stop the rest of the batch.

Without an argument the configured sync directory is used (sync.dir,
default "scripts"). The exit code is non-zero when any file failed.

Example usage:
  glidesync syncdir
  glidesync syncdir scripts --type sys_script --type sys_ui_action
  glidesync syncdir --format json > report.json`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		types, _ := cmd.Flags().GetStringArray("type")
		format, _ := cmd.Flags().GetString("format")

		if format != "text" && format != "json" && format != "yaml" {
			fmt.Fprintf(os.Stderr, "Error: unknown format %q (want text, json, or yaml)\n", format)
			os.Exit(1)
		}

		dir := cfg.Sync.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving directory %s: %v\n", dir, err)
			os.Exit(1)
		}
		if len(types) == 0 {
			types = cfg.Sync.Types
		}

		engine, _, instance, err := connect()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		j := openJournal()
		if j != nil {
			defer j.Close()
		}

		if format == "text" {
			fmt.Printf("%s Pushing %s to %s...\n", ui.RenderAccent("🔄"), abs, instance)
		}
		start := time.Now()
		rep := engine.SyncAll(context.Background(), sync.BulkOptions{
			Dir:      abs,
			Types:    types,
			Instance: instance,
		})
		for _, res := range rep.Results {
			recordResult(j, res, instance)
		}

		switch format {
		case "json":
			data, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		case "yaml":
			data, err := yaml.Marshal(rep)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(data))
		default:
			renderReportText(rep, time.Since(start))
		}

		if rep.Err != "" || rep.Failed > 0 {
			os.Exit(1)
		}
	},
}

func renderReportText(rep sync.Report, elapsed time.Duration) {
	if rep.Err != "" {
		fmt.Printf("%s %s\n", ui.RenderFail("✗"), rep.Err)
		return
	}
	for _, res := range rep.Results {
		printResult(res)
	}
	if rep.Total == 0 {
		fmt.Printf("%s No script files found in %s\n", ui.RenderWarn("⚠"), rep.Dir)
		return
	}
	mark := ui.RenderPass("✓")
	if rep.Failed > 0 {
		mark = ui.RenderWarn("⚠")
	}
	fmt.Printf("\n%s Pushed %d of %d in %v\n", mark, rep.Synced, rep.Total, elapsed.Round(time.Millisecond))
	if rep.Failed > 0 {
		fmt.Printf("   Failed: %d\n", rep.Failed)
	}
}

func init() {
	syncdirCmd.Flags().StringArrayP("type", "t", nil, "only push this script type (repeatable)")
	syncdirCmd.Flags().StringP("format", "f", "text", "report format: text, json, or yaml")
	rootCmd.AddCommand(syncdirCmd)
}
