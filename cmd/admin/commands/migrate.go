package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benvon/selfspeak/internal/config"
	"github.com/benvon/selfspeak/internal/database"
)

// NewMigrateCmd creates the migrate command with up, down and version subcommands.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  "Apply, roll back or inspect the embedded SQL migrations.",
	}
	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateVersionCmd())
	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
				return err
			}
			return printVersion(cmd, cfg.DatabaseURL)
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := database.MigrateDown(cfg.DatabaseURL, steps); err != nil {
				return err
			}
			return printVersion(cmd, cfg.DatabaseURL)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return printVersion(cmd, cfg.DatabaseURL)
		},
	}
}

func printVersion(cmd *cobra.Command, databaseURL string) error {
	status, err := database.MigrationVersion(databaseURL)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if status.Version == 0 {
		fmt.Fprintln(out, "Schema version: none (no migrations applied)")
		return nil
	}
	fmt.Fprintf(out, "Schema version: %d", status.Version)
	if status.Dirty {
		fmt.Fprint(out, " (dirty: a migration failed part way; fix it and force the version)")
	}
	fmt.Fprintln(out)
	return nil
}
