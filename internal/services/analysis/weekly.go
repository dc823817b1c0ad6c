package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/selfspeak/internal/aggregate"
	"github.com/benvon/selfspeak/internal/apperror"
	"github.com/benvon/selfspeak/internal/database"
	"github.com/benvon/selfspeak/internal/logger"
	"github.com/benvon/selfspeak/internal/metrics"
	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/queue"
	"github.com/benvon/selfspeak/internal/scoring"
	"github.com/benvon/selfspeak/internal/services/ai"
)

const opWeekly = "analysis.GetWeeklyInsight"

const (
	// MinInsightEntries is the number of analyses needed before the weekly
	// engine is called.
	MinInsightEntries = 3

	insufficientSummary  = "Weekly insights require at least %d analyzed journal entries. You have %d. Keep journaling and analyzing!"
	insufficientQuestion = "What's on your mind today?"
)

// WeeklyInsightService serves the weekly dashboard from a per-week cache,
// regenerating the narrative when analyses newer than it exist.
type WeeklyInsightService struct {
	analyses  database.AnalysisRepositoryInterface
	insights  database.InsightRepositoryInterface
	engine    ai.WeeklyEngine
	publisher queue.Publisher
	validate  *validator.Validate
	logger    *zap.Logger
	now       Clock
}

// NewWeeklyInsightService creates the service. publisher and now may be nil.
func NewWeeklyInsightService(
	analyses database.AnalysisRepositoryInterface,
	insights database.InsightRepositoryInterface,
	engine ai.WeeklyEngine,
	publisher queue.Publisher,
	log *zap.Logger,
	now Clock,
) *WeeklyInsightService {
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &WeeklyInsightService{
		analyses:  analyses,
		insights:  insights,
		engine:    engine,
		publisher: publisher,
		validate:  validator.New(),
		logger:    log,
		now:       now,
	}
}

// ResolveWeek returns the Monday of the week containing date, or of the
// current week when date is empty.
func (s *WeeklyInsightService) ResolveWeek(date string) (string, error) {
	if date == "" {
		return WeekStart(s.now()).Format(models.DateLayout), nil
	}
	t, err := time.ParseInLocation(models.DateLayout, date, s.now().Location())
	if err != nil {
		return "", apperror.InvalidInput(opWeekly, fmt.Sprintf("invalid week_start %q (expected YYYY-MM-DD)", date))
	}
	return WeekStart(t).Format(models.DateLayout), nil
}

// GetWeeklyInsight returns the dashboard for the week containing weekStart.
func (s *WeeklyInsightService) GetWeeklyInsight(ctx context.Context, userID, weekStart string) (*models.InsightResponse, error) {
	ws, err := s.ResolveWeek(weekStart)
	if err != nil {
		return nil, err
	}
	start, _ := time.Parse(models.DateLayout, ws)
	end := start.AddDate(0, 0, 6).Format(models.DateLayout)

	// A new insight is stamped with the time its analyses were read, so an
	// analysis stored while the engine runs still makes it stale.
	fetchedAt := s.now().UTC().Truncate(time.Microsecond)

	analyses, err := s.analyses.ListByUserAndDateRange(ctx, userID, ws, end)
	if err != nil {
		return nil, apperror.Storage(opWeekly, err)
	}
	if len(analyses) == 0 {
		return nil, apperror.NotFound(opWeekly, "No journal analyses found for this week")
	}

	existing, err := s.insights.GetByUserAndWeek(ctx, userID, ws)
	if err != nil {
		return nil, apperror.Storage(opWeekly, err)
	}

	meta, err := aggregate.Compute(analyses)
	if err != nil {
		return nil, apperror.Validation(opWeekly, err)
	}

	if existing != nil && !IsStale(existing, analyses) {
		metrics.RecordWeeklyInsight(string(models.InsightCached))
		s.logger.Debug("weekly_insight_cache_hit",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.String("week_start", ws))
		return buildResponse(existing, meta, analyses, models.InsightCached), nil
	}

	if existing != nil {
		if _, err := s.insights.DeleteByUserAndWeek(ctx, userID, ws); err != nil {
			return nil, apperror.Storage(opWeekly, err)
		}
		s.logger.Info("weekly_insight_stale",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.String("week_start", ws))
	}

	if len(analyses) < MinInsightEntries {
		metrics.RecordWeeklyInsight(string(models.InsightInsufficientData))
		return buildResponse(s.insufficientInsight(userID, ws, len(analyses)), meta, analyses, models.InsightInsufficientData), nil
	}

	begin := time.Now()
	narrative, err := s.engine.GenerateInsight(ctx, meta)
	metrics.ObserveEngineCall("weekly", err == nil, time.Since(begin))
	if err != nil {
		return nil, apperror.AnalysisEngine(opWeekly, err)
	}
	if err := s.validate.Struct(narrative); err != nil {
		return nil, apperror.Validation(opWeekly, fmt.Errorf("incomplete weekly narrative: %w", err))
	}

	insight := newInsight(userID, ws, meta, narrative, fetchedAt)
	if err := s.insights.Create(ctx, insight); err != nil {
		return nil, apperror.Storage(opWeekly, err)
	}

	metrics.RecordWeeklyInsight(string(models.InsightGenerated))
	s.logger.Info("weekly_insight_generated",
		zap.String("user_id", logger.SanitizeUserID(userID)),
		zap.String("week_start", ws),
		zap.Int("entry_count", meta.EntryCount))

	event := queue.NewEvent(queue.EventInsightGenerated, userID, map[string]any{
		"insight_id":             insight.ID.String(),
		"week_start":             ws,
		"entry_count":            meta.EntryCount,
		"weekly_alignment_score": meta.AlignmentScore,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event_publish_failed",
			zap.String("event_type", string(event.Type)),
			zap.String("error", logger.SanitizeError(err)))
	}

	return buildResponse(insight, meta, analyses, models.InsightGenerated), nil
}

// IsStale reports whether any analysis was created after the insight.
func IsStale(insight *models.WeeklyInsight, analyses []*models.DailyAnalysis) bool {
	for _, a := range analyses {
		if a.CreatedAt.After(insight.CreatedAt) {
			return true
		}
	}
	return false
}

func newInsight(userID, ws string, meta *aggregate.Metadata, n *ai.WeeklyNarrative, createdAt time.Time) *models.WeeklyInsight {
	alignment := meta.AlignmentScore
	theme := meta.BehavioralTheme
	summary := n.PatternSummary
	experiment := n.PatternExperiment
	return &models.WeeklyInsight{
		ID:                      uuid.New(),
		UserID:                  userID,
		WeekStartDate:           ws,
		SummaryText:             n.SummaryText,
		ConfidenceTrend:         meta.Trends.Confidence,
		ResistanceTrend:         meta.Trends.Resistance,
		GratitudeTrend:          meta.Trends.Gratitude,
		DominantWeekEmotion:     n.DominantWeekEmotion,
		ReflectionQuestion:      n.ReflectionQuestion,
		PatternSummary:          &summary,
		PatternExperiment:       &experiment,
		DominantBehavioralTheme: &theme,
		WeeklyAlignmentScore:    &alignment,
		CreatedAt:               createdAt,
	}
}

// insufficientInsight is returned, never stored, for weeks below
// MinInsightEntries. Its ID is the zero UUID.
func (s *WeeklyInsightService) insufficientInsight(userID, ws string, n int) *models.WeeklyInsight {
	return &models.WeeklyInsight{
		UserID:              userID,
		WeekStartDate:       ws,
		SummaryText:         fmt.Sprintf(insufficientSummary, MinInsightEntries, n),
		ConfidenceTrend:     models.TrendStable,
		ResistanceTrend:     models.TrendStable,
		GratitudeTrend:      models.TrendStable,
		DominantWeekEmotion: scoring.DefaultEmotion,
		ReflectionQuestion:  insufficientQuestion,
		CreatedAt:           s.now().UTC().Truncate(time.Microsecond),
	}
}

func buildResponse(insight *models.WeeklyInsight, meta *aggregate.Metadata, analyses []*models.DailyAnalysis, status models.InsightStatus) *models.InsightResponse {
	return &models.InsightResponse{
		WeeklyInsight:  insight,
		WeeklyAverages: meta.AvgScores,
		TrendData: models.TrendData{
			Confidence:      insight.ConfidenceTrend,
			Resistance:      insight.ResistanceTrend,
			Gratitude:       insight.GratitudeTrend,
			DominantEmotion: insight.DominantWeekEmotion,
		},
		EntryCount:  meta.EntryCount,
		DailyScores: DailyScores(analyses),
		Status:      status,
	}
}

// DailyScores returns one chart point per analysis, ordered by entry date.
func DailyScores(analyses []*models.DailyAnalysis) []models.DailyScorePoint {
	points := make([]models.DailyScorePoint, 0, len(analyses))
	for _, a := range analyses {
		points = append(points, models.DailyScorePoint{
			Date:            a.EntryDate,
			Confidence:      a.ConfidenceScore,
			Abundance:       a.AbundanceScore,
			Clarity:         a.ClarityScore,
			Gratitude:       a.GratitudeScore,
			Resistance:      a.ResistanceScore,
			Alignment:       a.AlignmentScore,
			DominantEmotion: a.DominantEmotion,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}
