package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/selfspeak/internal/models"
)

// UsageRepository handles weekly analysis usage counters
type UsageRepository struct {
	db *DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Get returns the usage row for (user, week), or nil if none exists.
func (r *UsageRepository) Get(ctx context.Context, userID, weekStart string) (*models.WeeklyUsage, error) {
	query := `
		SELECT user_id, to_char(week_start, 'YYYY-MM-DD') AS week_start, analysis_count, updated_at
		FROM ai_usage
		WHERE user_id = $1 AND week_start = $2`

	usage := &models.WeeklyUsage{}
	err := r.db.GetContext(ctx, usage, query, userID, weekStart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	return usage, nil
}

// Upsert creates the usage row with count, or overwrites the count of an
// existing row.
func (r *UsageRepository) Upsert(ctx context.Context, userID, weekStart string, count int) error {
	query := `
		INSERT INTO ai_usage (user_id, week_start, analysis_count, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, week_start)
		DO UPDATE SET analysis_count = EXCLUDED.analysis_count, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, userID, weekStart, count, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert usage: %w", err)
	}
	return nil
}

// SetCount overwrites the count of an existing usage row.
func (r *UsageRepository) SetCount(ctx context.Context, userID, weekStart string, count int) error {
	query := `
		UPDATE ai_usage
		SET analysis_count = $3, updated_at = $4
		WHERE user_id = $1 AND week_start = $2`

	result, err := r.db.ExecContext(ctx, query, userID, weekStart, count, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update usage: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("usage record for week %s not found", weekStart)
	}
	return nil
}

// ListByUser returns the user's most recent usage rows, newest first.
func (r *UsageRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.WeeklyUsage, error) {
	query := `
		SELECT user_id, to_char(week_start, 'YYYY-MM-DD') AS week_start, analysis_count, updated_at
		FROM ai_usage
		WHERE user_id = $1
		ORDER BY week_start DESC
		LIMIT $2`

	var rows []*models.WeeklyUsage
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list usage: %w", err)
	}
	return rows, nil
}
