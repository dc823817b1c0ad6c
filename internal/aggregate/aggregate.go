// Package aggregate computes weekly metadata from a week's daily analyses.
// It performs no I/O and never sees journal text.
package aggregate

import (
	"errors"
	"sort"

	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/scoring"
)

const (
	// MinTrendEntries is the smallest sample that yields a non-stable trend.
	MinTrendEntries = 3
	// TrendThreshold is the mean difference, in score points, a trend must exceed.
	TrendThreshold = 5.0
	// TopTagCount is the length of Metadata.TopTags.
	TopTagCount = 5
	// MinCorrelationCount is how often a tag must occur to be correlated.
	MinCorrelationCount = 2
	// DefaultTheme is the behavioral theme when no tags were recorded.
	DefaultTheme = "reflective"
)

// ErrNoAnalyses is returned for an empty week.
var ErrNoAnalyses = errors.New("no analyses to aggregate")

// Trends holds the direction of the three tracked scores.
type Trends struct {
	Confidence models.Trend `json:"confidence"`
	Resistance models.Trend `json:"resistance"`
	Gratitude  models.Trend `json:"gratitude"`
}

// TagCount is a tag and how many analyses carried it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagCorrelation is the mean resistance and clarity of analyses carrying a tag.
type TagCorrelation struct {
	AvgResistance float64 `json:"avg_resistance"`
	AvgClarity    float64 `json:"avg_clarity"`
	Count         int     `json:"count"`
}

// Metadata is the aggregated view of a week. It is what the weekly engine
// receives, so the JSON names are part of the prompt.
type Metadata struct {
	EntryCount       int                       `json:"entry_count"`
	AvgScores        models.Averages           `json:"avg_scores"`
	Trends           Trends                    `json:"trends"`
	DominantEmotion  string                    `json:"dominant_emotion"`
	TopTags          []string                  `json:"top_tags"`
	TagFrequency     []TagCount                `json:"tag_frequency"`
	TagCorrelations  map[string]TagCorrelation `json:"tag_correlations"`
	GoalPresenceRate float64                   `json:"goal_presence_rate"`
	SelfDoubtRate    float64                   `json:"self_doubt_rate"`
	AlignmentScore   int                       `json:"weekly_alignment_score"`
	BehavioralTheme  string                    `json:"dominant_behavioral_theme"`
}

// Compute aggregates analyses, which must be in chronological order.
func Compute(analyses []*models.DailyAnalysis) (*Metadata, error) {
	if len(analyses) == 0 {
		return nil, ErrNoAnalyses
	}

	freq := TagFrequency(analyses)
	top := make([]string, 0, TopTagCount)
	for i := 0; i < len(freq) && i < TopTagCount; i++ {
		top = append(top, freq[i].Tag)
	}

	theme := DefaultTheme
	if len(top) > 0 {
		theme = top[0]
	}

	avg := Averages(analyses)
	return &Metadata{
		EntryCount:       len(analyses),
		AvgScores:        avg,
		Trends:           ComputeTrends(analyses),
		DominantEmotion:  DominantEmotion(analyses),
		TopTags:          top,
		TagFrequency:     freq,
		TagCorrelations:  TagCorrelations(analyses),
		GoalPresenceRate: rate(analyses, func(a *models.DailyAnalysis) bool { return a.GoalPresent }),
		SelfDoubtRate:    rate(analyses, func(a *models.DailyAnalysis) bool { return a.SelfDoubtPresent }),
		AlignmentScore:   avg.Alignment,
		BehavioralTheme:  theme,
	}, nil
}

// Averages returns the means of the five scores (one decimal) and of the
// alignment score (nearest integer). An empty input yields zeros.
func Averages(analyses []*models.DailyAnalysis) models.Averages {
	if len(analyses) == 0 {
		return models.Averages{}
	}
	return models.Averages{
		Confidence: scoring.Round(mean(analyses, confidence), 1),
		Abundance:  scoring.Round(mean(analyses, func(a *models.DailyAnalysis) int { return a.AbundanceScore }), 1),
		Clarity:    scoring.Round(mean(analyses, clarity), 1),
		Gratitude:  scoring.Round(mean(analyses, gratitude), 1),
		Resistance: scoring.Round(mean(analyses, resistance), 1),
		Alignment:  int(scoring.Round(mean(analyses, func(a *models.DailyAnalysis) int { return a.AlignmentScore }), 0)),
	}
}

// ComputeTrends compares the early and late halves of the week. The split is
// at len/2, so for odd counts the late half is one longer.
func ComputeTrends(analyses []*models.DailyAnalysis) Trends {
	if len(analyses) < MinTrendEntries {
		return Trends{Confidence: models.TrendStable, Resistance: models.TrendStable, Gratitude: models.TrendStable}
	}
	mid := len(analyses) / 2
	early, late := analyses[:mid], analyses[mid:]
	return Trends{
		Confidence: Direction(mean(early, confidence), mean(late, confidence)),
		Resistance: Direction(mean(early, resistance), mean(late, resistance)),
		Gratitude:  Direction(mean(early, gratitude), mean(late, gratitude)),
	}
}

// Direction classifies the change from early to late.
func Direction(early, late float64) models.Trend {
	diff := late - early
	switch {
	case diff > TrendThreshold:
		return models.TrendUp
	case diff < -TrendThreshold:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

// TagFrequency ranks tags by count, descending; ties keep first-seen order.
func TagFrequency(analyses []*models.DailyAnalysis) []TagCount {
	counts := make(map[string]int)
	var order []string
	for _, a := range analyses {
		for _, tag := range a.BehavioralTags {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	ranked := make([]TagCount, 0, len(order))
	for _, tag := range order {
		ranked = append(ranked, TagCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// TagCorrelations reports mean resistance and clarity for every tag seen at
// least MinCorrelationCount times.
func TagCorrelations(analyses []*models.DailyAnalysis) map[string]TagCorrelation {
	type acc struct{ resistance, clarity, n int }
	sums := make(map[string]*acc)
	for _, a := range analyses {
		for _, tag := range a.BehavioralTags {
			s, ok := sums[tag]
			if !ok {
				s = &acc{}
				sums[tag] = s
			}
			s.resistance += a.ResistanceScore
			s.clarity += a.ClarityScore
			s.n++
		}
	}

	out := make(map[string]TagCorrelation)
	for tag, s := range sums {
		if s.n < MinCorrelationCount {
			continue
		}
		out[tag] = TagCorrelation{
			AvgResistance: scoring.Round(float64(s.resistance)/float64(s.n), 1),
			AvgClarity:    scoring.Round(float64(s.clarity)/float64(s.n), 1),
			Count:         s.n,
		}
	}
	return out
}

// DominantEmotion is the most frequent non-empty emotion. Ties go to the one
// that appears first in the input.
func DominantEmotion(analyses []*models.DailyAnalysis) string {
	counts := make(map[string]int)
	for _, a := range analyses {
		if a.DominantEmotion != "" {
			counts[a.DominantEmotion]++
		}
	}
	best, bestCount := "", 0
	for _, a := range analyses {
		if c := counts[a.DominantEmotion]; a.DominantEmotion != "" && c > bestCount {
			best, bestCount = a.DominantEmotion, c
		}
	}
	if best == "" {
		return scoring.DefaultEmotion
	}
	return best
}

func rate(analyses []*models.DailyAnalysis, pred func(*models.DailyAnalysis) bool) float64 {
	n := 0
	for _, a := range analyses {
		if pred(a) {
			n++
		}
	}
	return scoring.Round(float64(n)/float64(len(analyses)), 2)
}

func mean(analyses []*models.DailyAnalysis, field func(*models.DailyAnalysis) int) float64 {
	if len(analyses) == 0 {
		return 0
	}
	sum := 0
	for _, a := range analyses {
		sum += field(a)
	}
	return float64(sum) / float64(len(analyses))
}

func confidence(a *models.DailyAnalysis) int { return a.ConfidenceScore }
func clarity(a *models.DailyAnalysis) int    { return a.ClarityScore }
func gratitude(a *models.DailyAnalysis) int  { return a.GratitudeScore }
func resistance(a *models.DailyAnalysis) int { return a.ResistanceScore }
