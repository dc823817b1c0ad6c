package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/benvon/selfspeak/internal/config"
	"github.com/benvon/selfspeak/internal/database"
	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/services/analysis"
	"github.com/benvon/selfspeak/internal/validation"
)

const commandTimeout = 30 * time.Second

// withDB loads the database settings, connects, and runs fn with a bounded context.
func withDB(fn func(ctx context.Context, db *database.DB) error) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return fn(ctx, db)
}

// resolveWeek returns the Monday of the week containing date, or of the
// current week when date is empty.
func resolveWeek(date string, now time.Time) (string, error) {
	if date == "" {
		return analysis.WeekStart(now).Format(models.DateLayout), nil
	}
	t, err := validation.ParseDate(date, now.Location())
	if err != nil {
		return "", err
	}
	return analysis.WeekStart(t).Format(models.DateLayout), nil
}
