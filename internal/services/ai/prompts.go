package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/benvon/selfspeak/internal/aggregate"
	"github.com/benvon/selfspeak/internal/scoring"
)

// DailySystemPrompt frames the per-entry analysis. The engine observes
// language and tone only and must not coach.
const DailySystemPrompt = `You are analyzing a personal journal entry for a self-awareness analytics platform.
You evaluate language and tone only.
You do not provide therapy, life advice, instructions, or motivational coaching.
You do not use words like:
should
must
need to
fix
change your life
You provide neutral, reflective observations.
You return conservative scores.
Output valid JSON only.`

// WeeklySystemPrompt frames the weekly narrative, which only ever sees
// aggregated metadata.
const WeeklySystemPrompt = `You analyze structured emotional trend data from a journaling application.
You do not provide therapy, advice, or predictions.
You observe patterns neutrally.
Avoid words like: should, must, need to, fix, improve.
Return JSON only.`

// BuildDailyPrompt renders the user prompt for one journal entry.
func BuildDailyPrompt(content string) string {
	var b strings.Builder
	b.WriteString(`Analyze this journal entry and return:
confidence (0–100)
abundance (0–100)
clarity (0–100)
gratitude (0–100)
resistance (0–100)
dominant_emotion (1 word)
goal_present (true/false)
self_doubt_present (true/false)
time_horizon (short, long, vague)
overall_tone (calm, anxious, driven, scattered)
behavioral_tags (array of 1-4 tags from allowed list)

Allowed behavioral tags:
`)
	b.WriteString(strings.Join(scoring.BehavioralTags, ", "))
	b.WriteString(`

Rules for behavioral_tags:
- Select 1-4 most relevant tags
- Base selection on observable language patterns
- Do not over-interpret
- Return as JSON array of strings

Journal:
"""
`)
	b.WriteString(content)
	b.WriteString(`
"""

Return JSON only.`)
	return b.String()
}

// BuildWeeklyPrompt renders the user prompt for a week's metadata.
func BuildWeeklyPrompt(meta *aggregate.Metadata) (string, error) {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode weekly metadata: %w", err)
	}

	return fmt.Sprintf(`Here is aggregated weekly data:
%s

Return:
- summary_text (3-5 sentences describing observable patterns)
- dominant_week_emotion (single word for the week's primary emotion)
- reflection_question (1 open-ended reflective question based on trends)
- pattern_summary (2-3 sentences describing behavioral patterns observed, neutral tone)
- pattern_experiment (5-7 day exploratory experiment suggestion based on patterns, non-prescriptive)

Rules:
- No advice language
- No "you should" or "you must"
- Suggest experiments as possibilities, not instructions
- Be specific but exploratory

Return JSON only.`, data), nil
}
