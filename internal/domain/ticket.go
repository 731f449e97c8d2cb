package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew           TicketStatus = "new"
	TicketStatusAutoResolving TicketStatus = "auto_resolving"
	TicketStatusPending       TicketStatus = "pending"
	TicketStatusAssigned      TicketStatus = "assigned"
	TicketStatusResolved      TicketStatus = "resolved"
	TicketStatusClosed        TicketStatus = "closed"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Ticket is the aggregate for support requests. It is produced by the
// ingestion collaborator; the triage engine only mutates status and team
// assignment.
type Ticket struct {
	ID             string
	CreatorID      string
	Title          string
	Description    string
	Status         TicketStatus
	Priority       TicketPriority
	Category       string
	Tags           []string
	Attributes     map[string]any
	AssignedTeamID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EmbeddingText renders the ticket as the text fed to the similarity index,
// both for queries and for stored documents.
func (t *Ticket) EmbeddingText() string {
	parts := []string{
		"title: " + t.Title,
		"description: " + t.Description,
		"priority: " + string(t.Priority),
	}
	if t.Category != "" {
		parts = append(parts, "category: "+t.Category)
	} else {
		parts = append(parts, "category: unspecified")
	}
	if len(t.Tags) > 0 {
		parts = append(parts, "tags: "+strings.Join(t.Tags, ", "))
	} else {
		parts = append(parts, "tags: none")
	}
	return strings.Join(parts, "\n")
}

// NormalizeTags lowercases, trims and deduplicates a tag list while keeping
// first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
