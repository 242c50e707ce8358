package main

import (
	"github.com/spf13/cobra"

	"github.com/glidekit/glidesync/internal/sync"
)

var pushCmd = &cobra.Command{
	Use:     "push <file>",
	GroupID: "sync",
	Short:   "Upload a local script file into its instance record",
	Long: `Read a local script file and write its contents into the script field of
the matching record on the instance.

The record is matched by name; it must already exist. glidesync never
creates records, so a brand-new script is first created on the instance,
then pushed to from here.

Example usage:
  glidesync push scripts/CheckDuplicates.sys_script_include.js
  glidesync push "Incident Cleanup.sys_script.js" --instance prod`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runDirected(args[0], sync.DirectionPush)
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
