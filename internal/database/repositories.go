package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/benvon/selfspeak/internal/models"
)

// JournalEntryRepositoryInterface defines the journal entry operations used by the services.
type JournalEntryRepositoryInterface interface {
	GetByUserAndDate(ctx context.Context, userID, date string) (*models.JournalEntry, error)
	Upsert(ctx context.Context, entry *models.JournalEntry) (bool, error)
	ListByUserAndRange(ctx context.Context, userID, start, end string) ([]*models.JournalEntry, error)
}

// AnalysisRepositoryInterface defines the daily analysis operations used by the services.
type AnalysisRepositoryInterface interface {
	GetByJournalID(ctx context.Context, journalID uuid.UUID) (*models.DailyAnalysis, error)
	DeleteByJournalID(ctx context.Context, journalID uuid.UUID) error
	Create(ctx context.Context, analysis *models.DailyAnalysis) error
	ListByUserAndDateRange(ctx context.Context, userID, start, end string) ([]*models.DailyAnalysis, error)
}

// UsageRepositoryInterface defines the weekly usage counter operations.
type UsageRepositoryInterface interface {
	Get(ctx context.Context, userID, weekStart string) (*models.WeeklyUsage, error)
	Upsert(ctx context.Context, userID, weekStart string, count int) error
	SetCount(ctx context.Context, userID, weekStart string, count int) error
}

// InsightRepositoryInterface defines the weekly insight cache operations.
type InsightRepositoryInterface interface {
	GetByUserAndWeek(ctx context.Context, userID, weekStart string) (*models.WeeklyInsight, error)
	Create(ctx context.Context, insight *models.WeeklyInsight) error
	DeleteByUserAndWeek(ctx context.Context, userID, weekStart string) (bool, error)
}

// Ensure concrete types implement the interfaces
var (
	_ JournalEntryRepositoryInterface = (*JournalEntryRepository)(nil)
	_ AnalysisRepositoryInterface     = (*AnalysisRepository)(nil)
	_ UsageRepositoryInterface        = (*UsageRepository)(nil)
	_ InsightRepositoryInterface      = (*InsightRepository)(nil)
)
