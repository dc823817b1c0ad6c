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

var analysisRowColumns = []string{
	"id", "journal_id", "user_id", "confidence_score", "abundance_score",
	"clarity_score", "gratitude_score", "resistance_score", "alignment_score",
	"dominant_emotion", "overall_tone", "time_horizon", "goal_present",
	"self_doubt_present", "behavioral_tags", "created_at",
}

func TestAnalysisRepository_GetByJournalID(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewAnalysisRepository(db)
	id, journalID := uuid.New(), uuid.New()
	created := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM ai_analyses a\s+WHERE a.journal_id = \$1`).
		WithArgs(journalID).
		WillReturnRows(sqlmock.NewRows(analysisRowColumns).AddRow(
			id.String(), journalID.String(), "user-1", 80, 70, 60, 50, 20, 68,
			"Hopeful", "driven", "short", true, false,
			"{growth_mindset,action_oriented}", created,
		))

	got, err := repo.GetByJournalID(context.Background(), journalID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 68, got.AlignmentScore)
	assert.Equal(t, models.ToneDriven, got.OverallTone)
	assert.Equal(t, models.TimeHorizonShort, got.TimeHorizon)
	assert.Equal(t, []string{"growth_mindset", "action_oriented"}, got.BehavioralTags)
	assert.True(t, got.GoalPresent)
	assert.Empty(t, got.EntryDate)
}

func TestAnalysisRepository_GetByJournalID_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewAnalysisRepository(db)

	mock.ExpectQuery(`FROM ai_analyses`).WillReturnRows(sqlmock.NewRows(analysisRowColumns))

	got, err := repo.GetByJournalID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAnalysisRepository_CreateAndDelete(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewAnalysisRepository(db)
	a := &models.DailyAnalysis{
		ID:              uuid.New(),
		JournalID:       uuid.New(),
		UserID:          "user-1",
		ConfidenceScore: 50, AbundanceScore: 50, ClarityScore: 50, GratitudeScore: 50, ResistanceScore: 50,
		AlignmentScore:  50,
		DominantEmotion: "Reflective",
		OverallTone:     models.ToneCalm,
		TimeHorizon:     models.TimeHorizonVague,
		BehavioralTags:  []string{"contemplative"},
		CreatedAt:       time.Now().UTC(),
	}

	mock.ExpectExec(`DELETE FROM ai_analyses WHERE journal_id = \$1`).
		WithArgs(a.JournalID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO ai_analyses`).
		WithArgs(a.ID, a.JournalID, "user-1", 50, 50, 50, 50, 50, 50, "Reflective",
			"calm", "vague", false, false, sqlmock.AnyArg(), a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteByJournalID(context.Background(), a.JournalID))
	require.NoError(t, repo.Create(context.Background(), a))
}

func TestAnalysisRepository_ListByUserAndDateRange(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewAnalysisRepository(db)
	created := time.Now().UTC()

	cols := append(append([]string{}, analysisRowColumns...), "entry_date")
	mock.ExpectQuery(`JOIN journal_entries j ON j.id = a.journal_id.*ORDER BY j.entry_date ASC, a.created_at ASC`).
		WithArgs("user-1", "2024-03-11", "2024-03-17").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.NewString(), uuid.NewString(), "user-1", 50, 50, 50, 50, 50, 50, "Calm", "calm", "vague", false, false, "{contemplative}", created, "2024-03-11").
			AddRow(uuid.NewString(), uuid.NewString(), "user-1", 60, 50, 50, 50, 50, 52, "Calm", "calm", "vague", false, true, "{rest_seeking}", created, "2024-03-12"))

	got, err := repo.ListByUserAndDateRange(context.Background(), "user-1", "2024-03-11", "2024-03-17")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-11", got[0].EntryDate)
	assert.Equal(t, "2024-03-12", got[1].EntryDate)
	assert.True(t, got[1].SelfDoubtPresent)
}
