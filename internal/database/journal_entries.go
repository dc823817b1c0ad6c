package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/selfspeak/internal/models"
)

const journalEntryColumns = `id, user_id, to_char(entry_date, 'YYYY-MM-DD') AS entry_date, content, created_at, updated_at`

// JournalEntryRepository handles journal entry database operations
type JournalEntryRepository struct {
	db *DB
}

// NewJournalEntryRepository creates a new journal entry repository
func NewJournalEntryRepository(db *DB) *JournalEntryRepository {
	return &JournalEntryRepository{db: db}
}

// GetByUserAndDate returns the user's entry for date, or nil if none exists.
func (r *JournalEntryRepository) GetByUserAndDate(ctx context.Context, userID, date string) (*models.JournalEntry, error) {
	query := `SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE user_id = $1 AND entry_date = $2`

	entry := &models.JournalEntry{}
	err := r.db.GetContext(ctx, entry, query, userID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}
	return entry, nil
}

// Upsert writes the entry for (user, date), replacing the content of an
// existing one. It reports whether a new row was inserted. On return the
// entry carries the stored id and timestamps. A zero UpdatedAt is stamped
// with the current time.
func (r *JournalEntryRepository) Upsert(ctx context.Context, entry *models.JournalEntry) (bool, error) {
	stamp := entry.UpdatedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC().Truncate(time.Microsecond)
	}

	query := `
		INSERT INTO journal_entries (id, user_id, entry_date, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, entry_date)
		DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
		RETURNING ` + journalEntryColumns + `, (xmax = 0) AS inserted`

	var row struct {
		models.JournalEntry
		Inserted bool `db:"inserted"`
	}
	err := r.db.QueryRowxContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.EntryDate,
		entry.Content,
		stamp,
	).StructScan(&row)
	if err != nil {
		return false, fmt.Errorf("failed to upsert journal entry: %w", err)
	}

	*entry = row.JournalEntry
	return row.Inserted, nil
}

// ListByUserAndRange returns the user's entries with start <= date <= end,
// ordered by date.
func (r *JournalEntryRepository) ListByUserAndRange(ctx context.Context, userID, start, end string) ([]*models.JournalEntry, error) {
	query := `SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE user_id = $1 AND entry_date BETWEEN $2 AND $3
		ORDER BY entry_date ASC`

	var entries []*models.JournalEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	return entries, nil
}
