package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/benvon/selfspeak/internal/models"
)

// analysisRow is the ai_analyses row shape; tags are a Postgres text array.
type analysisRow struct {
	ID               uuid.UUID      `db:"id"`
	JournalID        uuid.UUID      `db:"journal_id"`
	UserID           string         `db:"user_id"`
	ConfidenceScore  int            `db:"confidence_score"`
	AbundanceScore   int            `db:"abundance_score"`
	ClarityScore     int            `db:"clarity_score"`
	GratitudeScore   int            `db:"gratitude_score"`
	ResistanceScore  int            `db:"resistance_score"`
	AlignmentScore   int            `db:"alignment_score"`
	DominantEmotion  string         `db:"dominant_emotion"`
	OverallTone      string         `db:"overall_tone"`
	TimeHorizon      string         `db:"time_horizon"`
	GoalPresent      bool           `db:"goal_present"`
	SelfDoubtPresent bool           `db:"self_doubt_present"`
	BehavioralTags   pq.StringArray `db:"behavioral_tags"`
	CreatedAt        time.Time      `db:"created_at"`
	EntryDate        sql.NullString `db:"entry_date"`
}

func (row *analysisRow) toModel() *models.DailyAnalysis {
	return &models.DailyAnalysis{
		ID:               row.ID,
		JournalID:        row.JournalID,
		UserID:           row.UserID,
		ConfidenceScore:  row.ConfidenceScore,
		AbundanceScore:   row.AbundanceScore,
		ClarityScore:     row.ClarityScore,
		GratitudeScore:   row.GratitudeScore,
		ResistanceScore:  row.ResistanceScore,
		AlignmentScore:   row.AlignmentScore,
		DominantEmotion:  row.DominantEmotion,
		OverallTone:      models.Tone(row.OverallTone),
		TimeHorizon:      models.TimeHorizon(row.TimeHorizon),
		GoalPresent:      row.GoalPresent,
		SelfDoubtPresent: row.SelfDoubtPresent,
		BehavioralTags:   []string(row.BehavioralTags),
		CreatedAt:        row.CreatedAt,
		EntryDate:        row.EntryDate.String,
	}
}

const analysisColumns = `a.id, a.journal_id, a.user_id, a.confidence_score, a.abundance_score,
	a.clarity_score, a.gratitude_score, a.resistance_score, a.alignment_score,
	a.dominant_emotion, a.overall_tone, a.time_horizon, a.goal_present,
	a.self_doubt_present, a.behavioral_tags, a.created_at`

// AnalysisRepository handles daily analysis database operations
type AnalysisRepository struct {
	db *DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// GetByJournalID returns the analysis of a journal entry, or nil if none exists.
func (r *AnalysisRepository) GetByJournalID(ctx context.Context, journalID uuid.UUID) (*models.DailyAnalysis, error) {
	query := `SELECT ` + analysisColumns + `
		FROM ai_analyses a
		WHERE a.journal_id = $1`

	var row analysisRow
	err := r.db.GetContext(ctx, &row, query, journalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return row.toModel(), nil
}

// DeleteByJournalID removes the analysis of a journal entry, if any.
func (r *AnalysisRepository) DeleteByJournalID(ctx context.Context, journalID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ai_analyses WHERE journal_id = $1`, journalID); err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

// Create stores a new analysis.
func (r *AnalysisRepository) Create(ctx context.Context, a *models.DailyAnalysis) error {
	query := `
		INSERT INTO ai_analyses (
			id, journal_id, user_id, confidence_score, abundance_score, clarity_score,
			gratitude_score, resistance_score, alignment_score, dominant_emotion,
			overall_tone, time_horizon, goal_present, self_doubt_present,
			behavioral_tags, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.JournalID,
		a.UserID,
		a.ConfidenceScore,
		a.AbundanceScore,
		a.ClarityScore,
		a.GratitudeScore,
		a.ResistanceScore,
		a.AlignmentScore,
		a.DominantEmotion,
		string(a.OverallTone),
		string(a.TimeHorizon),
		a.GoalPresent,
		a.SelfDoubtPresent,
		pq.StringArray(a.BehavioralTags),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

// ListByUserAndDateRange returns the user's analyses whose parent entry date
// falls in [start, end], ordered by entry date and then creation time. Each
// result carries its EntryDate.
func (r *AnalysisRepository) ListByUserAndDateRange(ctx context.Context, userID, start, end string) ([]*models.DailyAnalysis, error) {
	query := `SELECT ` + analysisColumns + `, to_char(j.entry_date, 'YYYY-MM-DD') AS entry_date
		FROM ai_analyses a
		JOIN journal_entries j ON j.id = a.journal_id
		WHERE a.user_id = $1 AND j.entry_date BETWEEN $2 AND $3
		ORDER BY j.entry_date ASC, a.created_at ASC`

	var rows []analysisRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	out := make([]*models.DailyAnalysis, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}
