// Package workers holds background consumers of domain events.
package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/selfspeak/internal/apperror"
	"github.com/benvon/selfspeak/internal/logger"
	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/queue"
)

// InsightProvider builds (or returns the cached) weekly insight.
type InsightProvider interface {
	GetWeeklyInsight(ctx context.Context, userID, weekStart string) (*models.InsightResponse, error)
}

// InsightWarmer regenerates the weekly insight for the week of each newly
// analyzed entry, so the next dashboard request is a cache hit.
type InsightWarmer struct {
	insights InsightProvider
	logger   *zap.Logger
}

// NewInsightWarmer creates a warmer
func NewInsightWarmer(insights InsightProvider, log *zap.Logger) *InsightWarmer {
	if log == nil {
		log = zap.NewNop()
	}
	return &InsightWarmer{insights: insights, logger: log}
}

// Run handles messages until the channel closes or ctx is cancelled.
func (w *InsightWarmer) Run(ctx context.Context, msgs <-chan queue.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Info("message_channel_closed")
				return
			}
			if err := w.Handle(ctx, msg); err != nil {
				w.logger.Error("failed_to_process_event",
					zap.String("event_id", msg.Event().ID.String()),
					zap.String("event_type", string(msg.Event().Type)),
					zap.String("error", logger.SanitizeError(err)))
			}
		}
	}
}

// Handle processes one message and settles it. Engine and storage
// failures are requeued once, then dead-lettered.
func (w *InsightWarmer) Handle(ctx context.Context, msg queue.Message) error {
	event := msg.Event()

	switch event.Type {
	case queue.EventAnalysisCreated, queue.EventAnalysisReplaced:
	default:
		return ack(msg)
	}

	entryDate, _ := event.Data["entry_date"].(string)
	if _, err := time.Parse(models.DateLayout, entryDate); err != nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			return fmt.Errorf("failed to nack event: %w", nackErr)
		}
		return fmt.Errorf("event %s has no valid entry_date", event.ID)
	}

	start := time.Now()
	resp, err := w.insights.GetWeeklyInsight(ctx, event.UserID, entryDate)
	if err != nil {
		return w.handleError(msg, err)
	}

	w.logger.Info("insight_warmed",
		zap.String("user_id", logger.SanitizeUserID(event.UserID)),
		zap.String("week_of", entryDate),
		zap.String("status", string(resp.Status)),
		zap.Int("entry_count", resp.EntryCount),
		zap.Duration("duration", time.Since(start)))
	return ack(msg)
}

func (w *InsightWarmer) handleError(msg queue.Message, err error) error {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		// The analysis was removed before the event was handled.
		return ack(msg)
	case apperror.KindAnalysisEngine, apperror.KindValidation, apperror.KindStorage:
		requeue := !msg.Redelivered()
		if nackErr := msg.Nack(requeue); nackErr != nil {
			return fmt.Errorf("failed to nack event: %w", nackErr)
		}
		return fmt.Errorf("insight warming failed (requeued=%t): %w", requeue, err)
	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			return fmt.Errorf("failed to nack event: %w", nackErr)
		}
		return fmt.Errorf("insight warming failed: %w", err)
	}
}

func ack(msg queue.Message) error {
	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack event: %w", err)
	}
	return nil
}
