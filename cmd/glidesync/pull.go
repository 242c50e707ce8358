package main

import (
	"github.com/spf13/cobra"

	"github.com/glidekit/glidesync/internal/sync"
)

var pullCmd = &cobra.Command{
	Use:     "pull <file>",
	GroupID: "sync",
	Short:   "Overwrite a local script file with the instance copy",
	Long: `Fetch a script record from the instance and write its body over the local
file.

The argument names the artifact: <name>.<type>.<ext>, for example
"CheckDuplicates.sys_script_include.js". The file does not have to exist
yet; pull creates it, parent directories included. Whatever the file
held before is replaced by the instance copy.

Use push to go the other way, or sync to let the direction be inferred.

Example usage:
  glidesync pull scripts/CheckDuplicates.sys_script_include.js
  glidesync pull "Incident Cleanup.sys_script.js"
  glidesync pull header.sys_ui_script.js --instance prod`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runDirected(args[0], sync.DirectionPull)
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
