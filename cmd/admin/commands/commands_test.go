package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/benvon/selfspeak/internal/config"
	"github.com/benvon/selfspeak/internal/models"
)

func TestResolveWeek(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		date    string
		want    string
		wantErr bool
	}{
		{name: "current week", date: "", want: "2024-03-11"},
		{name: "sunday belongs to the previous monday", date: "2024-03-17", want: "2024-03-11"},
		{name: "monday is its own week", date: "2024-03-18", want: "2024-03-18"},
		{name: "malformed", date: "March 3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := resolveWeek(tt.date, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveWeek() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveWeek() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintUsage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printUsage(&buf, "user-1", models.UsageSummary{Count: 2, Limit: 2, WeekStart: "2024-03-11", ResetsOn: "2024-03-18"})

	out := buf.String()
	for _, want := range []string{"user-1", "2024-03-11", "resets 2024-03-18", "2/2", "Limit reached"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printUsage(&buf, "user-1", models.UsageSummary{Count: 1, Limit: 2})
	if strings.Contains(buf.String(), "Limit reached") {
		t.Error("did not expect limit notice below the limit")
	}
}

func TestPrintInsight(t *testing.T) {
	t.Parallel()

	theme := "contemplative"
	score := 72
	insight := &models.WeeklyInsight{
		ID:                      uuid.MustParse("6f1c2f2e-0a4b-4c1e-9a44-0e0b7a1d2c3f"),
		UserID:                  "user-1",
		WeekStartDate:           "2024-03-11",
		SummaryText:             "A steadier week.",
		ConfidenceTrend:         models.TrendUp,
		ResistanceTrend:         models.TrendDown,
		GratitudeTrend:          models.TrendStable,
		DominantWeekEmotion:     "Hopeful",
		ReflectionQuestion:      "What helped?",
		DominantBehavioralTheme: &theme,
		WeeklyAlignmentScore:    &score,
		CreatedAt:               time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	printInsight(&buf, insight)
	out := buf.String()
	for _, want := range []string{
		"6f1c2f2e-0a4b-4c1e-9a44-0e0b7a1d2c3f",
		"confidence up, resistance down, gratitude stable",
		"Behavioral theme: contemplative",
		"Alignment: 72",
		"2024-03-15T08:00:00Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRedactedSettings(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		DatabaseURL: "postgres://app:hunter2@db:5432/selfspeak",
		OpenAIKey:   "sk-live",
		JWTSecret:   "s3cret",
	}
	out, err := yaml.Marshal(redactedSettings(cfg))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, secret := range []string{"hunter2", "sk-live", "s3cret"} {
		if strings.Contains(string(out), secret) {
			t.Errorf("secret %q leaked:\n%s", secret, out)
		}
	}
}

func TestCommandTree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "usage show needs a user", args: []string{"show"}},
		{name: "insight invalidate needs a user", args: []string{"invalidate"}},
		{name: "bad week is rejected before connecting", args: []string{"show", "user-1", "--week", "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd := NewInsightCmd()
			if strings.HasPrefix(tt.name, "usage") {
				cmd = NewUsageCmd()
			}
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			if err := cmd.Execute(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
