package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glidekit/glidesync/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:     "sync <file>",
	GroupID: "sync",
	Short:   "Sync one script file, inferring the direction",
	Long: `Synchronize a single script file with the instance, choosing the direction
from what exists locally: push when the file is present, pull when it is
not.

This makes sync safe to run on a name you have not fetched yet (it
pulls) and on a file you just edited (it pushes). To force a direction,
use pull or push.

Example usage:
  glidesync sync scripts/CheckDuplicates.sys_script_include.js
  glidesync sync "Incident Cleanup.sys_script.js"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runDirected(args[0], "")
	},
}

// runDirected performs one single-file sync and exits non-zero when the
// operation fails. An empty direction lets the engine infer one.
func runDirected(path string, dir sync.Direction) {
	engine, _, instance, err := connect()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving path %s: %v\n", path, err)
		os.Exit(1)
	}
	token := engine.Decode(filepath.Base(abs))
	if !token.Valid {
		fmt.Fprintf(os.Stderr, "Error: %q is not a <name>.<type>.<ext> script file name\n", filepath.Base(abs))
		fmt.Fprintf(os.Stderr, "Run 'glidesync types' to list the registered script types\n")
		os.Exit(1)
	}

	j := openJournal()
	if j != nil {
		defer j.Close()
	}

	res, err := engine.Sync(context.Background(), sync.Request{
		Name:      token.Name,
		Type:      token.Type,
		FilePath:  abs,
		Direction: dir,
		Instance:  instance,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	recordResult(j, res, instance)
	printResult(res)
	if !res.Success {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
