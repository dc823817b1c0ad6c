package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage layout of calendar dates.
const DateLayout = "2006-01-02"

// JournalEntry is a user's entry for one calendar day.
type JournalEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	EntryDate string    `json:"entry_date" db:"entry_date"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DayRecord pairs an entry with its analysis, if any.
type DayRecord struct {
	Entry    *JournalEntry  `json:"journal_entry"`
	Analysis *DailyAnalysis `json:"analysis"`
}
