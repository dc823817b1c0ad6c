package queue

import (
	"time"

	"github.com/google/uuid"
)

// EventType is the routing key of a domain event.
type EventType string

const (
	// EventAnalysisCreated follows a new daily analysis that consumed quota
	EventAnalysisCreated EventType = "analysis.created"
	// EventAnalysisReplaced follows a re-analysis of an already analyzed entry
	EventAnalysisReplaced EventType = "analysis.replaced"
	// EventInsightGenerated follows a freshly generated weekly insight
	EventInsightGenerated EventType = "insight.generated"
)

// Event is a domain notification. It carries identifiers and scores only,
// never journal text.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	UserID     string         `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event stamped with a fresh id and the current time.
func NewEvent(eventType EventType, userID string, data map[string]any) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}
