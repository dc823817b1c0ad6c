// Package analysis runs the daily analysis flow and the weekly insight
// cache. Storage and engines are injected as interfaces.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/selfspeak/internal/database"
	"github.com/benvon/selfspeak/internal/models"
)

// DefaultWeeklyLimit is the number of new analyses allowed per week.
const DefaultWeeklyLimit = 2

// Clock returns the current time. Weeks are computed in its location.
type Clock func() time.Time

// WeekStart returns the Monday of t's week at midnight, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// QuotaTracker counts new analyses per user-week.
//
// Get and Increment are not atomic together; two concurrent analyses for the
// same user can both pass the limit check.
type QuotaTracker struct {
	repo  database.UsageRepositoryInterface
	limit int
	now   Clock
}

// NewQuotaTracker creates a tracker. A nil clock means time.Now.
func NewQuotaTracker(repo database.UsageRepositoryInterface, limit int, now Clock) *QuotaTracker {
	if limit < 1 {
		limit = DefaultWeeklyLimit
	}
	if now == nil {
		now = time.Now
	}
	return &QuotaTracker{repo: repo, limit: limit, now: now}
}

// Limit returns the weekly limit
func (q *QuotaTracker) Limit() int {
	return q.limit
}

// CurrentWeek returns the current week's Monday as YYYY-MM-DD.
func (q *QuotaTracker) CurrentWeek() string {
	return WeekStart(q.now()).Format(models.DateLayout)
}

// Get returns the count for a week, 0 when nothing was recorded.
func (q *QuotaTracker) Get(ctx context.Context, userID, weekStart string) (int, error) {
	usage, err := q.repo.Get(ctx, userID, weekStart)
	if err != nil {
		return 0, fmt.Errorf("failed to get usage: %w", err)
	}
	if usage == nil {
		return 0, nil
	}
	return usage.AnalysisCount, nil
}

// Increment records one more analysis. previous is the count read by Get.
func (q *QuotaTracker) Increment(ctx context.Context, userID, weekStart string, previous int) error {
	if previous == 0 {
		if err := q.repo.Upsert(ctx, userID, weekStart, 1); err != nil {
			return fmt.Errorf("failed to create usage record: %w", err)
		}
		return nil
	}
	if err := q.repo.SetCount(ctx, userID, weekStart, previous+1); err != nil {
		return fmt.Errorf("failed to update usage record: %w", err)
	}
	return nil
}

// Summary builds the client-facing view of a week's usage.
func (q *QuotaTracker) Summary(count int, weekStart string) models.UsageSummary {
	resets := weekStart
	if ws, err := time.Parse(models.DateLayout, weekStart); err == nil {
		resets = ws.AddDate(0, 0, 7).Format(models.DateLayout)
	}
	return models.UsageSummary{
		Count:     count,
		Limit:     q.limit,
		WeekStart: weekStart,
		ResetsOn:  resets,
	}
}

// Usage returns the current week's summary for a user.
func (q *QuotaTracker) Usage(ctx context.Context, userID string) (models.UsageSummary, error) {
	ws := q.CurrentWeek()
	count, err := q.Get(ctx, userID, ws)
	if err != nil {
		return q.Summary(0, ws), err
	}
	return q.Summary(count, ws), nil
}
