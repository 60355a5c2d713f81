package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Pulse - conversational HR assistant",
	Long:  `Pulse turns chat messages into permission-checked HR queries and confirmed actions.`,
}

func Execute() error {
	return rootCmd.Execute()
}
