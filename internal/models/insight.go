package models

import (
	"time"

	"github.com/google/uuid"
)

// Trend is the direction of a score across a week.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// WeeklyInsight is the cached narrative for one user-week.
type WeeklyInsight struct {
	ID                      uuid.UUID `json:"id"`
	UserID                  string    `json:"user_id"`
	WeekStartDate           string    `json:"week_start_date"`
	SummaryText             string    `json:"summary_text"`
	ConfidenceTrend         Trend     `json:"confidence_trend"`
	ResistanceTrend         Trend     `json:"resistance_trend"`
	GratitudeTrend          Trend     `json:"gratitude_trend"`
	DominantWeekEmotion     string    `json:"dominant_week_emotion"`
	ReflectionQuestion      string    `json:"reflection_question"`
	PatternSummary          *string   `json:"pattern_summary"`
	PatternExperiment       *string   `json:"pattern_experiment"`
	DominantBehavioralTheme *string   `json:"dominant_behavioral_theme"`
	WeeklyAlignmentScore    *int      `json:"weekly_alignment_score"`
	CreatedAt               time.Time `json:"created_at"`
}

// Averages are the display-rounded weekly means.
type Averages struct {
	Confidence float64 `json:"confidence"`
	Abundance  float64 `json:"abundance"`
	Clarity    float64 `json:"clarity"`
	Gratitude  float64 `json:"gratitude"`
	Resistance float64 `json:"resistance"`
	Alignment  int     `json:"alignment"`
}

// TrendData is the condensed trend map shown alongside an insight.
type TrendData struct {
	Confidence      Trend  `json:"confidence"`
	Resistance      Trend  `json:"resistance"`
	Gratitude       Trend  `json:"gratitude"`
	DominantEmotion string `json:"dominant_emotion"`
}

// DailyScorePoint is one point of the per-day chart series.
type DailyScorePoint struct {
	Date            string `json:"date"`
	Confidence      int    `json:"confidence"`
	Abundance       int    `json:"abundance"`
	Clarity         int    `json:"clarity"`
	Gratitude       int    `json:"gratitude"`
	Resistance      int    `json:"resistance"`
	Alignment       int    `json:"alignment"`
	DominantEmotion string `json:"dominant_emotion"`
}

// InsightStatus tells the client how an insight response was produced.
type InsightStatus string

const (
	InsightCached           InsightStatus = "cached"
	InsightGenerated        InsightStatus = "generated"
	InsightInsufficientData InsightStatus = "insufficient_data"
)

// InsightResponse is the weekly dashboard payload.
type InsightResponse struct {
	WeeklyInsight  *WeeklyInsight    `json:"weekly_insight"`
	WeeklyAverages Averages          `json:"weekly_averages"`
	TrendData      TrendData         `json:"trend_data"`
	EntryCount     int               `json:"entry_count"`
	DailyScores    []DailyScorePoint `json:"daily_scores"`
	Status         InsightStatus     `json:"status"`
}
