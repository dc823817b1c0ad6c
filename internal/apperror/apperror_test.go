package apperror

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/benvon/selfspeak/internal/models"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "plain error", err: errors.New("boom"), want: KindUnknown},
		{name: "not found", err: NotFound("op", "missing"), want: KindNotFound},
		{name: "wrapped storage", err: fmt.Errorf("outer: %w", Storage("op", errors.New("db down"))), want: KindStorage},
		{name: "engine", err: AnalysisEngine("op", errors.New("bad json")), want: KindAnalysisEngine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuotaExceeded(t *testing.T) {
	t.Parallel()

	err := QuotaExceeded("analyze", models.UsageSummary{Count: 2, Limit: 2, WeekStart: "2024-03-11", ResetsOn: "2024-03-18"})
	if !Is(err, KindQuotaExceeded) {
		t.Fatalf("expected quota kind, got %q", KindOf(err))
	}
	if err.Usage == nil || err.Usage.Count != 2 || err.Usage.Limit != 2 {
		t.Errorf("expected usage 2/2, got %+v", err.Usage)
	}
	if !strings.Contains(err.Message, "(2/2)") {
		t.Errorf("expected message to carry counts, got %q", err.Message)
	}
	if err.Retryable() {
		t.Error("quota errors must not be retryable")
	}
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := Storage("store analysis", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if !Validation("x", cause).Retryable() {
		t.Error("validation errors should be retryable")
	}
}
