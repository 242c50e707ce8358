package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glidekit/glidesync/internal/ui"
)

var typesCmd = &cobra.Command{
	Use:     "types",
	GroupID: "info",
	Short:   "List the registered script types",
	Long: `List every script type this process can sync.

The left column is the remote table name, which is also the middle
segment of the file naming convention <name>.<type>.<ext>. Additional
types can be registered in a TOML file referenced by types_file in the
config:

  [[types]]
  table = "sys_ws_operation"
  label = "Scripted REST Operation"
  name_field = "name"
  body_field = "operation_script"
  extension = "js"`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("\n%s Registered script types\n\n", ui.RenderAccent("🧩"))
		rows := make([][2]string, 0, registry.Len())
		for _, table := range registry.Tables() {
			desc, _ := registry.Lookup(table)
			rows = append(rows, [2]string{
				table,
				fmt.Sprintf("%s (name: %s, body: %s, ext: .%s)",
					desc.Label, desc.NameField, desc.BodyField, desc.Extension),
			})
		}
		fmt.Print(ui.Table(rows))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
