package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/selfspeak/internal/apperror"
	"github.com/benvon/selfspeak/internal/database"
	"github.com/benvon/selfspeak/internal/logger"
	"github.com/benvon/selfspeak/internal/metrics"
	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/queue"
	"github.com/benvon/selfspeak/internal/scoring"
	"github.com/benvon/selfspeak/internal/services/ai"
)

const opAnalyze = "analysis.Analyze"

// DailyResult is the outcome of a successful daily analysis.
type DailyResult struct {
	Analysis *models.DailyAnalysis
	Replaced bool
	Usage    models.UsageSummary
}

// DailyOrchestrator analyzes one journal entry under the weekly quota.
type DailyOrchestrator struct {
	analyses  database.AnalysisRepositoryInterface
	quota     *QuotaTracker
	engine    ai.DailyEngine
	publisher queue.Publisher
	logger    *zap.Logger
	now       Clock
}

// NewDailyOrchestrator creates an orchestrator. publisher may be nil.
func NewDailyOrchestrator(
	analyses database.AnalysisRepositoryInterface,
	quota *QuotaTracker,
	engine ai.DailyEngine,
	publisher queue.Publisher,
	log *zap.Logger,
) *DailyOrchestrator {
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DailyOrchestrator{
		analyses:  analyses,
		quota:     quota,
		engine:    engine,
		publisher: publisher,
		logger:    log,
		now:       quota.now,
	}
}

// Analyze scores the entry and stores the result, replacing any earlier
// analysis of the same entry. Replacements do not consume quota. Quota
// advances only after the analysis is stored.
func (o *DailyOrchestrator) Analyze(ctx context.Context, entry *models.JournalEntry) (*DailyResult, error) {
	userID, journalID := entry.UserID, entry.ID

	existing, err := o.analyses.GetByJournalID(ctx, journalID)
	if err != nil {
		return nil, o.fail(apperror.Storage(opAnalyze, err))
	}

	replaced := existing != nil
	if replaced {
		if err := o.analyses.DeleteByJournalID(ctx, journalID); err != nil {
			return nil, o.fail(apperror.Storage(opAnalyze, err))
		}
		o.logger.Info("daily_analysis_replacing",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.String("journal_id", journalID.String()))
	}

	weekStart := o.quota.CurrentWeek()
	count, err := o.quota.Get(ctx, userID, weekStart)
	if err != nil {
		if !replaced {
			return nil, o.fail(apperror.Storage(opAnalyze, err))
		}
		// Replacements skip the quota check; the count only feeds the
		// usage summary.
		o.logger.Warn("usage_lookup_failed",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.String("error", logger.SanitizeError(err)))
		count = 0
	}
	if !replaced && count >= o.quota.Limit() {
		metrics.RecordDailyAnalysis(metrics.OutcomeQuotaExceeded)
		o.logger.Info("daily_analysis_quota_exceeded",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.Int("count", count),
			zap.Int("limit", o.quota.Limit()))
		return nil, apperror.QuotaExceeded(opAnalyze, o.quota.Summary(count, weekStart))
	}

	start := time.Now()
	raw, err := o.engine.AnalyzeEntry(ctx, entry.Content)
	metrics.ObserveEngineCall("daily", err == nil, time.Since(start))
	if err != nil {
		return nil, o.fail(apperror.AnalysisEngine(opAnalyze, err))
	}

	a, err := scoring.Normalize(raw)
	if err != nil {
		return nil, o.fail(apperror.Validation(opAnalyze, err))
	}
	a.ID = uuid.New()
	a.JournalID = journalID
	a.UserID = userID
	a.CreatedAt = o.now().UTC().Truncate(time.Microsecond)

	if err := o.analyses.Create(ctx, a); err != nil {
		return nil, o.fail(apperror.Storage(opAnalyze, err))
	}

	outcome := metrics.OutcomeReplaced
	if !replaced {
		if err := o.quota.Increment(ctx, userID, weekStart, count); err != nil {
			o.logger.Error("daily_analysis_quota_update_failed",
				zap.String("user_id", logger.SanitizeUserID(userID)),
				zap.String("analysis_id", a.ID.String()),
				zap.String("error", logger.SanitizeError(err)))
			return nil, o.fail(apperror.Storage(opAnalyze, err))
		}
		count++
		outcome = metrics.OutcomeCreated
	}
	metrics.RecordDailyAnalysis(outcome)

	o.logger.Info("daily_analysis_stored",
		zap.String("user_id", logger.SanitizeUserID(userID)),
		zap.String("analysis_id", a.ID.String()),
		zap.Bool("replaced", replaced),
		zap.Int("alignment_score", a.AlignmentScore))

	eventType := queue.EventAnalysisCreated
	if replaced {
		eventType = queue.EventAnalysisReplaced
	}
	o.publish(ctx, queue.NewEvent(eventType, userID, map[string]any{
		"analysis_id":     a.ID.String(),
		"journal_id":      journalID.String(),
		"alignment_score": a.AlignmentScore,
		"week_start":      weekStart,
		"entry_date":      entry.EntryDate,
	}))

	return &DailyResult{
		Analysis: a,
		Replaced: replaced,
		Usage:    o.quota.Summary(count, weekStart),
	}, nil
}

func (o *DailyOrchestrator) fail(err *apperror.Error) error {
	metrics.RecordDailyAnalysis(metrics.OutcomeFailed)
	o.logger.Warn("daily_analysis_failed",
		zap.String("kind", string(err.Kind)),
		zap.String("error", logger.SanitizeError(err)))
	return err
}

func (o *DailyOrchestrator) publish(ctx context.Context, event *queue.Event) {
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn("event_publish_failed",
			zap.String("event_type", string(event.Type)),
			zap.String("error", logger.SanitizeError(err)))
	}
}
