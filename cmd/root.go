package cmd

import "github.com/spf13/cobra"

// AddCommands registers every macrocycle command on root.
func AddCommands(root *cobra.Command) {
	root.AddCommand(
		NewInitCmd(),
		NewListCmd(),
		NewStatusCmd(),
		NewRunCmd(),
		NewPreviewCmd(),
		NewSchemaCmd(),
	)
}
