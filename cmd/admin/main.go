package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benvon/selfspeak/cmd/admin/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "selfspeak-admin",
		Short:         "Administration tool for the Selfspeak API",
		Long:          "CLI tool for schema migrations and for inspecting weekly usage and cached insights",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewUsageCmd())
	rootCmd.AddCommand(commands.NewInsightCmd())
	rootCmd.AddCommand(commands.NewConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
