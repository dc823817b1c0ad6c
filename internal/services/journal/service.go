// Package journal implements the user-facing journal operations on top of
// the entry store and the analysis services.
package journal

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/selfspeak/internal/apperror"
	"github.com/benvon/selfspeak/internal/database"
	"github.com/benvon/selfspeak/internal/logger"
	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/services/analysis"
	"github.com/benvon/selfspeak/internal/validation"
)

const (
	// MaxContentLength bounds an entry, in characters.
	MaxContentLength = 20000
	// MaxRangeDays bounds the span of a range query.
	MaxRangeDays = 366

	msgCreated = "Journal entry created"
	msgUpdated = "Journal entry updated"
)

// SaveResult reports the stored entry and whether it was new.
type SaveResult struct {
	Entry   *models.JournalEntry `json:"journal_entry"`
	Created bool                 `json:"created"`
	Message string               `json:"message"`
}

// AnalyzeResult is the outcome of analyzing a day's entry.
type AnalyzeResult struct {
	Analysis *models.DailyAnalysis `json:"analysis"`
	Replaced bool                  `json:"replaced"`
	Usage    models.UsageSummary   `json:"-"`
}

// TodayResult is today's entry and analysis with the caller's usage.
type TodayResult struct {
	Entry    *models.JournalEntry  `json:"journal_entry"`
	Analysis *models.DailyAnalysis `json:"analysis"`
	Usage    models.UsageSummary   `json:"-"`
}

// Analyzer is the daily analysis flow.
type Analyzer interface {
	Analyze(ctx context.Context, entry *models.JournalEntry) (*analysis.DailyResult, error)
}

// InsightProvider serves the weekly dashboard.
type InsightProvider interface {
	GetWeeklyInsight(ctx context.Context, userID, weekStart string) (*models.InsightResponse, error)
}

var (
	_ Analyzer        = (*analysis.DailyOrchestrator)(nil)
	_ InsightProvider = (*analysis.WeeklyInsightService)(nil)
)

// Service implements the journal operations.
type Service struct {
	entries  database.JournalEntryRepositoryInterface
	analyses database.AnalysisRepositoryInterface
	quota    *analysis.QuotaTracker
	analyzer Analyzer
	insights InsightProvider
	logger   *zap.Logger
	now      analysis.Clock
}

// NewService creates the journal service. A nil clock means time.Now.
func NewService(
	entries database.JournalEntryRepositoryInterface,
	analyses database.AnalysisRepositoryInterface,
	quota *analysis.QuotaTracker,
	analyzer Analyzer,
	insights InsightProvider,
	log *zap.Logger,
	now analysis.Clock,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		entries:  entries,
		analyses: analyses,
		quota:    quota,
		analyzer: analyzer,
		insights: insights,
		logger:   log,
		now:      now,
	}
}

// SaveEntry creates or overwrites the entry for date, default today.
func (s *Service) SaveEntry(ctx context.Context, userID, date, content string) (*SaveResult, error) {
	const op = "journal.SaveEntry"

	content = validation.SanitizeText(content)
	if content == "" {
		return nil, apperror.InvalidInput(op, "content is required")
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return nil, apperror.InvalidInput(op, fmt.Sprintf("content is too long (%d characters, max %d)", n, MaxContentLength))
	}

	day, err := s.resolveDate(op, date)
	if err != nil {
		return nil, err
	}
	if day.After(s.today()) {
		return nil, apperror.InvalidInput(op, "entry date cannot be in the future")
	}

	stamp := s.now().UTC().Truncate(time.Microsecond)
	entry := &models.JournalEntry{
		ID:        uuid.New(),
		UserID:    userID,
		EntryDate: day.Format(models.DateLayout),
		Content:   content,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
	created, err := s.entries.Upsert(ctx, entry)
	if err != nil {
		return nil, apperror.Storage(op, err)
	}

	msg := msgUpdated
	if created {
		msg = msgCreated
	}
	s.logger.Info("journal_entry_saved",
		zap.String("user_id", logger.SanitizeUserID(userID)),
		zap.String("entry_date", entry.EntryDate),
		zap.Bool("created", created))

	return &SaveResult{Entry: entry, Created: created, Message: msg}, nil
}

// AnalyzeEntry analyzes the stored entry for date, default today.
func (s *Service) AnalyzeEntry(ctx context.Context, userID, date string) (*AnalyzeResult, error) {
	const op = "journal.AnalyzeEntry"

	day, err := s.resolveDate(op, date)
	if err != nil {
		return nil, err
	}
	entry, err := s.entries.GetByUserAndDate(ctx, userID, day.Format(models.DateLayout))
	if err != nil {
		return nil, apperror.Storage(op, err)
	}
	if entry == nil {
		return nil, apperror.NotFound(op, "No journal entry for this date. Save an entry first.")
	}

	res, err := s.analyzer.Analyze(ctx, entry)
	if err != nil {
		return nil, err
	}
	res.Analysis.EntryDate = entry.EntryDate
	return &AnalyzeResult{Analysis: res.Analysis, Replaced: res.Replaced, Usage: res.Usage}, nil
}

// GetToday returns today's entry and analysis. A failed usage lookup is
// logged and reported as zero usage.
func (s *Service) GetToday(ctx context.Context, userID string) (*TodayResult, error) {
	const op = "journal.GetToday"

	out := &TodayResult{}
	entry, err := s.entries.GetByUserAndDate(ctx, userID, s.today().Format(models.DateLayout))
	if err != nil {
		return nil, apperror.Storage(op, err)
	}
	if entry != nil {
		a, err := s.analyses.GetByJournalID(ctx, entry.ID)
		if err != nil {
			return nil, apperror.Storage(op, err)
		}
		out.Entry, out.Analysis = entry, a
	}

	usage, err := s.quota.Usage(ctx, userID)
	if err != nil {
		s.logger.Warn("usage_lookup_failed",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.String("error", logger.SanitizeError(err)))
	}
	out.Usage = usage
	return out, nil
}

// GetRange lists the entries in [start, end] with their analyses.
func (s *Service) GetRange(ctx context.Context, userID, start, end string) ([]*models.DayRecord, error) {
	const op = "journal.GetRange"

	if start == "" || end == "" {
		return nil, apperror.InvalidInput(op, "start and end are required")
	}
	from, err := s.resolveDate(op, start)
	if err != nil {
		return nil, err
	}
	to, err := s.resolveDate(op, end)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, apperror.InvalidInput(op, "start must not be after end")
	}
	if to.After(from.AddDate(0, 0, MaxRangeDays)) {
		return nil, apperror.InvalidInput(op, fmt.Sprintf("range cannot exceed %d days", MaxRangeDays))
	}

	entries, err := s.entries.ListByUserAndRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperror.Storage(op, err)
	}
	analyses, err := s.analyses.ListByUserAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperror.Storage(op, err)
	}

	byJournal := make(map[uuid.UUID]*models.DailyAnalysis, len(analyses))
	for _, a := range analyses {
		byJournal[a.JournalID] = a
	}

	records := make([]*models.DayRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, &models.DayRecord{Entry: e, Analysis: byJournal[e.ID]})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Entry.EntryDate < records[j].Entry.EntryDate
	})
	return records, nil
}

// GetWeeklyDashboard returns the weekly insight for the week containing
// weekStart, default the current week.
func (s *Service) GetWeeklyDashboard(ctx context.Context, userID, weekStart string) (*models.InsightResponse, error) {
	return s.insights.GetWeeklyInsight(ctx, userID, weekStart)
}

func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.now().Location())
}

func (s *Service) resolveDate(op, date string) (time.Time, error) {
	if date == "" {
		return s.today(), nil
	}
	t, err := validation.ParseDate(date, s.now().Location())
	if err != nil {
		return time.Time{}, apperror.InvalidInput(op, err.Error())
	}
	return t, nil
}
