package main

import (
	"fmt"
	"os"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/mattsolo1/grove-macrocycle/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"macrocycle",
		"Ritualized AI agent workflows",
	)
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	cmd.AddCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		if !cmd.IsSilent(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cmd.ExitCode(err))
	}
}
