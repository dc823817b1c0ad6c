package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/benvon/selfspeak/internal/config"
	"github.com/benvon/selfspeak/internal/database"
	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/services/analysis"
)

// NewUsageCmd creates the usage command.
func NewUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect weekly analysis usage",
	}
	cmd.AddCommand(newUsageShowCmd())
	return cmd
}

func newUsageShowCmd() *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's analysis count for a week",
		Long:  "Show how many new analyses a user has run in the week containing --week (default: this week).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, err := resolveWeek(week, time.Now())
			if err != nil {
				return err
			}
			cfg, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return withDB(func(ctx context.Context, db *database.DB) error {
				quota := analysis.NewQuotaTracker(database.NewUsageRepository(db), cfg.WeeklyAnalysisLimit, nil)
				count, err := quota.Get(ctx, args[0], weekStart)
				if err != nil {
					return err
				}
				printUsage(cmd.OutOrStdout(), args[0], quota.Summary(count, weekStart))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&week, "week", "", "any date in the week (YYYY-MM-DD)")
	return cmd
}

func printUsage(w io.Writer, userID string, usage models.UsageSummary) {
	fmt.Fprintf(w, "User: %s\n", userID)
	fmt.Fprintf(w, "  Week: %s (resets %s)\n", usage.WeekStart, usage.ResetsOn)
	fmt.Fprintf(w, "  Analyses: %d/%d\n", usage.Count, usage.Limit)
	if usage.Count >= usage.Limit {
		fmt.Fprintln(w, "  Limit reached: new analyses are blocked until the reset; replacements remain free")
	}
}
