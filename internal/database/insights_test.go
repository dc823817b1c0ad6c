package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benvon/selfspeak/internal/models"
)

var insightColumns = []string{
	"id", "user_id", "week_start_date", "summary_text", "confidence_trend",
	"resistance_trend", "gratitude_trend", "dominant_week_emotion",
	"reflection_question", "pattern_summary", "pattern_experiment",
	"dominant_behavioral_theme", "weekly_alignment_score", "created_at",
}

func TestInsightRepository_GetByUserAndWeek(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewInsightRepository(db)
	id := uuid.New()
	created := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM weekly_insights\s+WHERE user_id = \$1 AND week_start_date = \$2`).
		WithArgs("user-1", "2024-03-11").
		WillReturnRows(sqlmock.NewRows(insightColumns).AddRow(
			id.String(), "user-1", "2024-03-11", "A steady week.", "up", "stable", "down",
			"Hopeful", "What felt easy?", "You rest after pushing.", nil,
			"rest_seeking", int64(71), created,
		))

	got, err := repo.GetByUserAndWeek(context.Background(), "user-1", "2024-03-11")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.TrendUp, got.ConfidenceTrend)
	assert.Equal(t, models.TrendDown, got.GratitudeTrend)
	require.NotNil(t, got.PatternSummary)
	assert.Equal(t, "You rest after pushing.", *got.PatternSummary)
	assert.Nil(t, got.PatternExperiment)
	require.NotNil(t, got.WeeklyAlignmentScore)
	assert.Equal(t, 71, *got.WeeklyAlignmentScore)
	assert.Equal(t, created, got.CreatedAt)
}

func TestInsightRepository_GetByUserAndWeek_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewInsightRepository(db)

	mock.ExpectQuery(`FROM weekly_insights`).WillReturnRows(sqlmock.NewRows(insightColumns))

	got, err := repo.GetByUserAndWeek(context.Background(), "user-1", "2024-03-11")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsightRepository_Create(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewInsightRepository(db)
	summary, experiment, theme := "pattern", "try this", "contemplative"
	score := 64
	in := &models.WeeklyInsight{
		ID:                      uuid.New(),
		UserID:                  "user-1",
		WeekStartDate:           "2024-03-11",
		SummaryText:             "summary",
		ConfidenceTrend:         models.TrendStable,
		ResistanceTrend:         models.TrendStable,
		GratitudeTrend:          models.TrendUp,
		DominantWeekEmotion:     "Calm",
		ReflectionQuestion:      "Why?",
		PatternSummary:          &summary,
		PatternExperiment:       &experiment,
		DominantBehavioralTheme: &theme,
		WeeklyAlignmentScore:    &score,
		CreatedAt:               time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO weekly_insights`).
		WithArgs(in.ID, "user-1", "2024-03-11", "summary", "stable", "stable", "up",
			"Calm", "Why?", "pattern", "try this", "contemplative", int64(64), in.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), in))
}

func TestInsightRepository_DeleteByUserAndWeek(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewInsightRepository(db)

	mock.ExpectExec(`DELETE FROM weekly_insights WHERE user_id = \$1 AND week_start_date = \$2`).
		WithArgs("user-1", "2024-03-11").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeleteByUserAndWeek(context.Background(), "user-1", "2024-03-11")
	require.NoError(t, err)
	assert.True(t, deleted)
}
