package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/selfspeak/internal/models"
)

type insightRow struct {
	ID                      uuid.UUID      `db:"id"`
	UserID                  string         `db:"user_id"`
	WeekStartDate           string         `db:"week_start_date"`
	SummaryText             string         `db:"summary_text"`
	ConfidenceTrend         string         `db:"confidence_trend"`
	ResistanceTrend         string         `db:"resistance_trend"`
	GratitudeTrend          string         `db:"gratitude_trend"`
	DominantWeekEmotion     string         `db:"dominant_week_emotion"`
	ReflectionQuestion      string         `db:"reflection_question"`
	PatternSummary          sql.NullString `db:"pattern_summary"`
	PatternExperiment       sql.NullString `db:"pattern_experiment"`
	DominantBehavioralTheme sql.NullString `db:"dominant_behavioral_theme"`
	WeeklyAlignmentScore    sql.NullInt32  `db:"weekly_alignment_score"`
	CreatedAt               time.Time      `db:"created_at"`
}

func (row *insightRow) toModel() *models.WeeklyInsight {
	in := &models.WeeklyInsight{
		ID:                  row.ID,
		UserID:              row.UserID,
		WeekStartDate:       row.WeekStartDate,
		SummaryText:         row.SummaryText,
		ConfidenceTrend:     models.Trend(row.ConfidenceTrend),
		ResistanceTrend:     models.Trend(row.ResistanceTrend),
		GratitudeTrend:      models.Trend(row.GratitudeTrend),
		DominantWeekEmotion: row.DominantWeekEmotion,
		ReflectionQuestion:  row.ReflectionQuestion,
		CreatedAt:           row.CreatedAt,
	}
	if row.PatternSummary.Valid {
		in.PatternSummary = &row.PatternSummary.String
	}
	if row.PatternExperiment.Valid {
		in.PatternExperiment = &row.PatternExperiment.String
	}
	if row.DominantBehavioralTheme.Valid {
		in.DominantBehavioralTheme = &row.DominantBehavioralTheme.String
	}
	if row.WeeklyAlignmentScore.Valid {
		score := int(row.WeeklyAlignmentScore.Int32)
		in.WeeklyAlignmentScore = &score
	}
	return in
}

// InsightRepository handles weekly insight database operations
type InsightRepository struct {
	db *DB
}

// NewInsightRepository creates a new insight repository
func NewInsightRepository(db *DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// GetByUserAndWeek returns the stored insight for (user, week), or nil.
func (r *InsightRepository) GetByUserAndWeek(ctx context.Context, userID, weekStart string) (*models.WeeklyInsight, error) {
	query := `
		SELECT id, user_id, to_char(week_start_date, 'YYYY-MM-DD') AS week_start_date,
			summary_text, confidence_trend, resistance_trend, gratitude_trend,
			dominant_week_emotion, reflection_question, pattern_summary,
			pattern_experiment, dominant_behavioral_theme, weekly_alignment_score, created_at
		FROM weekly_insights
		WHERE user_id = $1 AND week_start_date = $2`

	var row insightRow
	err := r.db.GetContext(ctx, &row, query, userID, weekStart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly insight: %w", err)
	}
	return row.toModel(), nil
}

// Create stores a new insight.
func (r *InsightRepository) Create(ctx context.Context, in *models.WeeklyInsight) error {
	query := `
		INSERT INTO weekly_insights (
			id, user_id, week_start_date, summary_text, confidence_trend,
			resistance_trend, gratitude_trend, dominant_week_emotion,
			reflection_question, pattern_summary, pattern_experiment,
			dominant_behavioral_theme, weekly_alignment_score, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	var alignment sql.NullInt32
	if in.WeeklyAlignmentScore != nil {
		alignment = sql.NullInt32{Int32: int32(*in.WeeklyAlignmentScore), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		in.ID,
		in.UserID,
		in.WeekStartDate,
		in.SummaryText,
		string(in.ConfidenceTrend),
		string(in.ResistanceTrend),
		string(in.GratitudeTrend),
		in.DominantWeekEmotion,
		in.ReflectionQuestion,
		nullString(in.PatternSummary),
		nullString(in.PatternExperiment),
		nullString(in.DominantBehavioralTheme),
		alignment,
		in.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create weekly insight: %w", err)
	}
	return nil
}

// DeleteByUserAndWeek removes the insight for (user, week) and reports
// whether one existed.
func (r *InsightRepository) DeleteByUserAndWeek(ctx context.Context, userID, weekStart string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM weekly_insights WHERE user_id = $1 AND week_start_date = $2`,
		userID, weekStart)
	if err != nil {
		return false, fmt.Errorf("failed to delete weekly insight: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
