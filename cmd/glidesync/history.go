package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/glidekit/glidesync/internal/journal"
	"github.com/glidekit/glidesync/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	GroupID: "info",
	Short:   "Show recent sync outcomes",
	Long: `Show recent sync outcomes recorded in the journal, newest first.

--since accepts natural language ("yesterday", "2 hours ago", "last
friday") as well as plain dates.

Example usage:
  glidesync history
  glidesync history --failed --limit 50
  glidesync history --since "2 hours ago" --type sys_script
  glidesync history --format json`,
	Run: func(cmd *cobra.Command, args []string) {
		sinceStr, _ := cmd.Flags().GetString("since")
		failed, _ := cmd.Flags().GetBool("failed")
		limit, _ := cmd.Flags().GetInt("limit")
		typ, _ := cmd.Flags().GetString("type")
		format, _ := cmd.Flags().GetString("format")

		if format != "text" && format != "json" && format != "yaml" {
			fmt.Fprintf(os.Stderr, "Error: unknown format %q (want text, json, or yaml)\n", format)
			os.Exit(1)
		}
		if cfg.Journal.Disabled {
			fmt.Fprintf(os.Stderr, "Error: sync history is disabled in the config (journal.disabled)\n")
			os.Exit(1)
		}
		if _, err := os.Stat(cfg.Journal.Path); os.IsNotExist(err) {
			fmt.Printf("%s No sync history yet\n", ui.RenderWarn("⚠"))
			return
		}

		filter := journal.Filter{Type: typ, FailedOnly: failed, Limit: limit}
		if sinceStr != "" {
			since, err := parseSince(sinceStr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			filter.Since = since
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

		entries, err := j.List(filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading sync history: %v\n", err)
			os.Exit(1)
		}

		switch format {
		case "json":
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding history: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		case "yaml":
			data, err := yaml.Marshal(entries)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding history: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(data))
		default:
			if len(entries) == 0 {
				fmt.Printf("%s Nothing recorded\n", ui.RenderMuted("·"))
				return
			}
			for _, e := range entries {
				mark := ui.RenderPass("✓")
				if !e.Success {
					mark = ui.RenderFail("✗")
				}
				fmt.Printf("%s %s  %-4s  %-22s %s",
					mark,
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					e.Direction, e.Type, e.Name)
				if e.Instance != "" {
					fmt.Printf("  %s", ui.RenderMuted("("+e.Instance+")"))
				}
				fmt.Println()
				if !e.Success && e.Err != "" {
					fmt.Printf("   %s\n", ui.RenderMuted(e.Err))
				}
			}
		}
	},
}

// parseSince understands natural-language times as well as plain dates.
func parseSince(s string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	if r, err := w.Parse(s, time.Now()); err == nil && r != nil {
		return r.Time, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not understand time %q (try \"yesterday\", \"2 hours ago\", or 2006-01-02)", s)
}

func init() {
	historyCmd.Flags().String("since", "", "only entries at or after this time (natural language ok)")
	historyCmd.Flags().Bool("failed", false, "only failed entries")
	historyCmd.Flags().IntP("limit", "n", 20, "maximum entries to show (0 = all)")
	historyCmd.Flags().StringP("type", "t", "", "only entries for this script type")
	historyCmd.Flags().StringP("format", "f", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(historyCmd)
}
