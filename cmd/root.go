// Package cmd implements the autosmm command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autosmm",
	Short: "AutoSMM - community content assistant",
	Long: `AutoSMM ingests community snapshots, keeps a per-community semantic
index of their content, and generates promotional posts, content ideas and
growth plans grounded in that data.

Running autosmm without a subcommand starts an interactive chat session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
