package domain

import "time"

// SimilarTicket is a historical ticket returned by similarity retrieval.
// Scores are normalized to [0,1]; instances are read-only downstream.
type SimilarTicket struct {
	TicketID        string
	Content         string
	SimilarityScore float64
	Solution        string
	ResolutionSteps []string
	AutoResolved    bool
	ResolutionTime  time.Duration
	SuccessRate     float64
	Metadata        map[string]any
}
