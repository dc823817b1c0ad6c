package analysis

import (
	"context"
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "monday", at: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), want: "2024-03-11"},
		{name: "wednesday", at: wednesday, want: "2024-03-11"},
		{name: "sunday belongs to previous monday", at: time.Date(2024, 3, 17, 23, 59, 0, 0, time.UTC), want: "2024-03-11"},
		{name: "across month boundary", at: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC), want: "2024-02-26"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WeekStart(tt.at).Format("2006-01-02"); got != tt.want {
				t.Errorf("WeekStart(%v) = %s, want %s", tt.at, got, tt.want)
			}
		})
	}
}

func TestQuotaTracker_Increment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFakeUsageRepo()
	q := NewQuotaTracker(repo, 2, fixedClock(wednesday))
	ws := q.CurrentWeek()

	count, err := q.Get(ctx, "user-1", ws)
	if err != nil || count != 0 {
		t.Fatalf("Get() = %d, %v; want 0, nil", count, err)
	}

	if err := q.Increment(ctx, "user-1", ws, 0); err != nil {
		t.Fatalf("Increment(0) error = %v", err)
	}
	if repo.upserts != 1 {
		t.Errorf("first increment should upsert, upserts = %d", repo.upserts)
	}

	if err := q.Increment(ctx, "user-1", ws, 1); err != nil {
		t.Fatalf("Increment(1) error = %v", err)
	}
	if repo.setCalls != 1 {
		t.Errorf("later increments should update, setCalls = %d", repo.setCalls)
	}
	if got := repo.value("user-1", ws); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}

func TestQuotaTracker_Summary(t *testing.T) {
	t.Parallel()

	q := NewQuotaTracker(newFakeUsageRepo(), 0, fixedClock(wednesday))
	got := q.Summary(1, "2024-03-11")

	if got.Limit != DefaultWeeklyLimit {
		t.Errorf("Limit = %d, want default %d", got.Limit, DefaultWeeklyLimit)
	}
	if got.ResetsOn != "2024-03-18" {
		t.Errorf("ResetsOn = %s, want 2024-03-18", got.ResetsOn)
	}
	if got.Count != 1 || got.WeekStart != "2024-03-11" {
		t.Errorf("unexpected summary %+v", got)
	}
}

func TestQuotaTracker_UsageError(t *testing.T) {
	t.Parallel()

	repo := newFakeUsageRepo()
	repo.getErr = errStore
	q := NewQuotaTracker(repo, 2, fixedClock(wednesday))

	usage, err := q.Usage(context.Background(), "user-1")
	if err == nil {
		t.Fatal("Expected error from usage lookup")
	}
	if usage.Count != 0 || usage.WeekStart != "2024-03-11" {
		t.Errorf("degraded usage = %+v", usage)
	}
}
