package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/benvon/selfspeak/internal/database"
	"github.com/benvon/selfspeak/internal/models"
)

// NewInsightCmd creates the insight command with show and invalidate subcommands.
func NewInsightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insight",
		Short: "Inspect or invalidate cached weekly insights",
	}
	cmd.AddCommand(newInsightShowCmd())
	cmd.AddCommand(newInsightInvalidateCmd())
	return cmd
}

func newInsightShowCmd() *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's cached insight for a week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, err := resolveWeek(week, time.Now())
			if err != nil {
				return err
			}
			return withDB(func(ctx context.Context, db *database.DB) error {
				insight, err := database.NewInsightRepository(db).GetByUserAndWeek(ctx, args[0], weekStart)
				if err != nil {
					return err
				}
				if insight == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "No cached insight for %s in week %s\n", args[0], weekStart)
					return nil
				}
				printInsight(cmd.OutOrStdout(), insight)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&week, "week", "", "any date in the week (YYYY-MM-DD)")
	return cmd
}

func newInsightInvalidateCmd() *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "invalidate <user-id>",
		Short: "Delete a cached insight",
		Long:  "Delete a user's cached insight so the next dashboard request regenerates it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, err := resolveWeek(week, time.Now())
			if err != nil {
				return err
			}
			return withDB(func(ctx context.Context, db *database.DB) error {
				deleted, err := database.NewInsightRepository(db).DeleteByUserAndWeek(ctx, args[0], weekStart)
				if err != nil {
					return err
				}
				if !deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "No cached insight for %s in week %s\n", args[0], weekStart)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Invalidated insight for %s in week %s\n", args[0], weekStart)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&week, "week", "", "any date in the week (YYYY-MM-DD)")
	return cmd
}

func printInsight(w io.Writer, insight *models.WeeklyInsight) {
	fmt.Fprintf(w, "Insight %s\n", insight.ID)
	fmt.Fprintf(w, "  User: %s\n", insight.UserID)
	fmt.Fprintf(w, "  Week: %s\n", insight.WeekStartDate)
	fmt.Fprintf(w, "  Generated: %s\n", insight.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  Trends: confidence %s, resistance %s, gratitude %s\n",
		insight.ConfidenceTrend, insight.ResistanceTrend, insight.GratitudeTrend)
	fmt.Fprintf(w, "  Dominant emotion: %s\n", insight.DominantWeekEmotion)
	if insight.DominantBehavioralTheme != nil {
		fmt.Fprintf(w, "  Behavioral theme: %s\n", *insight.DominantBehavioralTheme)
	}
	if insight.WeeklyAlignmentScore != nil {
		fmt.Fprintf(w, "  Alignment: %d\n", *insight.WeeklyAlignmentScore)
	}
	fmt.Fprintf(w, "  Summary: %s\n", insight.SummaryText)
	fmt.Fprintf(w, "  Question: %s\n", insight.ReflectionQuestion)
}
