package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benvon/selfspeak/internal/models"
)

var entryColumns = []string{"id", "user_id", "entry_date", "content", "created_at", "updated_at"}

func TestJournalEntryRepository_GetByUserAndDate(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewJournalEntryRepository(db)
	id := uuid.New()
	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM journal_entries\s+WHERE user_id = \$1 AND entry_date = \$2`).
		WithArgs("user-1", "2024-03-12").
		WillReturnRows(sqlmock.NewRows(entryColumns).AddRow(id.String(), "user-1", "2024-03-12", "hello", now, now))

	entry, err := repo.GetByUserAndDate(context.Background(), "user-1", "2024-03-12")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, "2024-03-12", entry.EntryDate)
	assert.Equal(t, "hello", entry.Content)
}

func TestJournalEntryRepository_GetByUserAndDate_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewJournalEntryRepository(db)

	mock.ExpectQuery(`FROM journal_entries`).
		WithArgs("user-1", "2024-03-12").
		WillReturnRows(sqlmock.NewRows(entryColumns))

	entry, err := repo.GetByUserAndDate(context.Background(), "user-1", "2024-03-12")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestJournalEntryRepository_Upsert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		inserted bool
	}{
		{name: "new entry", inserted: true},
		{name: "existing entry", inserted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			repo := NewJournalEntryRepository(db)

			storedID := uuid.New()
			created := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
			updated := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
			entry := &models.JournalEntry{
				ID:        uuid.New(),
				UserID:    "user-1",
				EntryDate: "2024-03-12",
				Content:   "today",
				UpdatedAt: updated,
			}

			mock.ExpectQuery(`INSERT INTO journal_entries .* ON CONFLICT \(user_id, entry_date\)`).
				WithArgs(entry.ID, "user-1", "2024-03-12", "today", updated).
				WillReturnRows(sqlmock.NewRows(append(entryColumns, "inserted")).
					AddRow(storedID.String(), "user-1", "2024-03-12", "today", created, updated, tt.inserted))

			inserted, err := repo.Upsert(context.Background(), entry)
			require.NoError(t, err)
			assert.Equal(t, tt.inserted, inserted)
			assert.Equal(t, storedID, entry.ID)
			assert.Equal(t, created, entry.CreatedAt)
		})
	}
}

// recentTime matches a timestamp argument taken from the wall clock.
type recentTime struct{}

func (recentTime) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	return ok && time.Since(t) < time.Minute
}

func TestJournalEntryRepository_Upsert_StampsZeroTime(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewJournalEntryRepository(db)

	now := time.Now().UTC()
	entry := &models.JournalEntry{ID: uuid.New(), UserID: "user-1", EntryDate: "2024-03-12", Content: "today"}

	mock.ExpectQuery(`INSERT INTO journal_entries`).
		WithArgs(entry.ID, "user-1", "2024-03-12", "today", recentTime{}).
		WillReturnRows(sqlmock.NewRows(append(entryColumns, "inserted")).
			AddRow(entry.ID.String(), "user-1", "2024-03-12", "today", now, now, true))

	_, err := repo.Upsert(context.Background(), entry)
	require.NoError(t, err)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.False(t, entry.UpdatedAt.IsZero())
}

func TestJournalEntryRepository_Upsert_Error(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewJournalEntryRepository(db)

	mock.ExpectQuery(`INSERT INTO journal_entries`).WillReturnError(errors.New("connection reset"))

	_, err := repo.Upsert(context.Background(), &models.JournalEntry{ID: uuid.New(), UserID: "u", EntryDate: "2024-03-12"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert journal entry")
}

func TestJournalEntryRepository_ListByUserAndRange(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewJournalEntryRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`entry_date BETWEEN \$2 AND \$3\s+ORDER BY entry_date ASC`).
		WithArgs("user-1", "2024-03-11", "2024-03-17").
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow(uuid.NewString(), "user-1", "2024-03-11", "one", now, now).
			AddRow(uuid.NewString(), "user-1", "2024-03-13", "two", now, now))

	entries, err := repo.ListByUserAndRange(context.Background(), "user-1", "2024-03-11", "2024-03-17")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-03-13", entries[1].EntryDate)
}
