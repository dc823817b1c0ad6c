package models

import (
	"time"

	"github.com/google/uuid"
)

// Tone is the overall tone of an entry.
type Tone string

const (
	ToneCalm      Tone = "calm"
	ToneAnxious   Tone = "anxious"
	ToneDriven    Tone = "driven"
	ToneScattered Tone = "scattered"
)

// TimeHorizon is how far ahead the writer is thinking.
type TimeHorizon string

const (
	TimeHorizonShort TimeHorizon = "short"
	TimeHorizonLong  TimeHorizon = "long"
	TimeHorizonVague TimeHorizon = "vague"
)

// DailyAnalysis is the normalized analysis of a single journal entry.
// At most one analysis exists per journal entry.
type DailyAnalysis struct {
	ID               uuid.UUID   `json:"id"`
	JournalID        uuid.UUID   `json:"journal_id"`
	UserID           string      `json:"user_id"`
	ConfidenceScore  int         `json:"confidence_score"`
	AbundanceScore   int         `json:"abundance_score"`
	ClarityScore     int         `json:"clarity_score"`
	GratitudeScore   int         `json:"gratitude_score"`
	ResistanceScore  int         `json:"resistance_score"`
	AlignmentScore   int         `json:"alignment_score"`
	DominantEmotion  string      `json:"dominant_emotion"`
	OverallTone      Tone        `json:"overall_tone"`
	TimeHorizon      TimeHorizon `json:"time_horizon"`
	GoalPresent      bool        `json:"goal_present"`
	SelfDoubtPresent bool        `json:"self_doubt_present"`
	BehavioralTags   []string    `json:"behavioral_tags"`
	CreatedAt        time.Time   `json:"created_at"`

	// EntryDate is the parent entry's date; only set on date-range reads.
	EntryDate string `json:"entry_date,omitempty"`
}
