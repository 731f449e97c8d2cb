package events

import (
	"time"

	"github.com/spec-kit/triage-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketReceived     EventType = "ticket_received"
	EventTicketClassified   EventType = "ticket_classified"
	EventTicketRouted       EventType = "ticket_routed"
	EventTicketAutoResolved EventType = "ticket_auto_resolved"
	EventTicketTriageFailed EventType = "ticket_triage_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketReceivedPayload payload.
type TicketReceivedPayload struct {
	CreatorID string                `json:"creator_id"`
	Priority  domain.TicketPriority `json:"priority"`
	Category  string                `json:"category,omitempty"`
	Title     string                `json:"title"`
}

// TicketClassifiedPayload payload.
type TicketClassifiedPayload struct {
	CanAutoResolve  bool    `json:"can_auto_resolve"`
	ConfidenceScore float64 `json:"confidence_score"`
	TeamID          string  `json:"team_id"`
	TeamName        string  `json:"team_name"`
	NeedsMoreInfo   bool    `json:"needs_more_info"`
}

// TicketRoutedPayload payload.
type TicketRoutedPayload struct {
	TeamID         string  `json:"team_id"`
	TeamName       string  `json:"team_name"`
	TeamMatchScore float64 `json:"team_match_score"`
}

// TicketAutoResolvedPayload payload.
type TicketAutoResolvedPayload struct {
	Solution       string        `json:"solution"`
	StepsAttempted int           `json:"steps_attempted"`
	SuccessRate    float64       `json:"success_rate"`
	ResolutionTime time.Duration `json:"resolution_time"`
}

// TicketTriageFailedPayload payload.
type TicketTriageFailedPayload struct {
	FailureReason string `json:"failure_reason"`
}
