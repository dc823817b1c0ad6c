package ai

import (
	"context"

	"github.com/benvon/selfspeak/internal/aggregate"
)

// DailyEngine scores a single journal entry.
type DailyEngine interface {
	// AnalyzeEntry returns the engine's raw JSON object. The object has
	// passed a parse and required-key check but is not yet normalized.
	AnalyzeEntry(ctx context.Context, content string) ([]byte, error)
}

// WeeklyEngine writes the narrative for a week from aggregated metadata.
type WeeklyEngine interface {
	GenerateInsight(ctx context.Context, meta *aggregate.Metadata) (*WeeklyNarrative, error)
}

// WeeklyNarrative is the text the weekly engine produces.
type WeeklyNarrative struct {
	SummaryText         string `json:"summary_text" validate:"required"`
	DominantWeekEmotion string `json:"dominant_week_emotion" validate:"required"`
	ReflectionQuestion  string `json:"reflection_question" validate:"required"`
	PatternSummary      string `json:"pattern_summary" validate:"required"`
	PatternExperiment   string `json:"pattern_experiment" validate:"required"`
}

// Key sets the engine responses must contain. Each inner slice lists
// accepted spellings of one key.
var (
	dailyRequiredKeys = [][]string{
		{"confidence", "confidence_score"},
		{"abundance", "abundance_score"},
		{"clarity", "clarity_score"},
		{"gratitude", "gratitude_score"},
		{"resistance", "resistance_score"},
		{"dominant_emotion"},
		{"goal_present"},
		{"self_doubt_present"},
		{"time_horizon"},
		{"overall_tone"},
		{"behavioral_tags"},
	}
	weeklyRequiredKeys = [][]string{
		{"summary_text"},
		{"dominant_week_emotion"},
		{"reflection_question"},
		{"pattern_summary"},
		{"pattern_experiment"},
	}
)
