package triage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
	"github.com/spec-kit/triage-engine/internal/search"
)

// Retriever finds historical tickets similar to a query and maintains the
// open and resolved collections backing those lookups.
type Retriever struct {
	index  search.Index
	logger *zap.Logger
}

// NewRetriever wraps a similarity index.
func NewRetriever(index search.Index, logger *zap.Logger) *Retriever {
	return &Retriever{index: index, logger: logger}
}

// FindSimilar returns up to n similar tickets scoring at or above
// threshold, best first. Scores are normalized from the backend's [-1,1]
// relevance to [0,1]. A duplicate id keeps only its highest score.
func (r *Retriever) FindSimilar(ctx context.Context, query string, n int, threshold float64, includeResolved bool) ([]domain.SimilarTicket, error) {
	if n <= 0 {
		return nil, nil
	}

	collections := []string{search.CollectionOpen}
	if includeResolved {
		collections = append(collections, search.CollectionResolved)
	}
	return r.searchCollections(ctx, query, n, threshold, collections)
}

// FindResolved searches only the resolved collection. Knowledge-base
// lookups use it so open, unsolved tickets cannot surface as answers.
func (r *Retriever) FindResolved(ctx context.Context, query string, n int, threshold float64) ([]domain.SimilarTicket, error) {
	if n <= 0 {
		return nil, nil
	}
	return r.searchCollections(ctx, query, n, threshold, []string{search.CollectionResolved})
}

func (r *Retriever) searchCollections(ctx context.Context, query string, n int, threshold float64, collections []string) ([]domain.SimilarTicket, error) {
	best := make(map[string]domain.SimilarTicket)
	for _, collection := range collections {
		hits, err := r.index.Query(ctx, collection, query, n)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		for _, hit := range hits {
			score := normalizeScore(hit.Score)
			if score < threshold {
				continue
			}
			candidate := similarFromHit(hit, score)
			if existing, ok := best[hit.ID]; ok && existing.SimilarityScore >= score {
				continue
			}
			best[hit.ID] = candidate
		}
	}

	results := make([]domain.SimilarTicket, 0, len(best))
	for _, ticket := range best {
		results = append(results, ticket)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Add indexes a ticket into the open collection.
func (r *Retriever) Add(ctx context.Context, ticket *domain.Ticket) error {
	doc := search.Document{
		ID:      ticket.ID,
		Content: ticket.EmbeddingText(),
		Metadata: map[string]any{
			"creator_id": ticket.CreatorID,
			"category":   ticket.Category,
			"priority":   string(ticket.Priority),
		},
	}
	if err := r.index.Add(ctx, search.CollectionOpen, doc); err != nil {
		return fmt.Errorf("index ticket %s: %w", ticket.ID, err)
	}
	return nil
}

// UpdateSolution records the outcome for an open ticket and moves its
// document into the resolved collection.
func (r *Retriever) UpdateSolution(ctx context.Context, ticketID, solution string, successRate float64, autoResolved bool, resolutionTime time.Duration) error {
	doc, err := r.index.Get(ctx, search.CollectionOpen, ticketID)
	if err != nil {
		return fmt.Errorf("load open ticket %s: %w", ticketID, err)
	}
	if doc == nil {
		return fmt.Errorf("ticket %s not found in open collection", ticketID)
	}

	meta := doc.Metadata
	if meta == nil {
		meta = make(map[string]any)
	}
	meta["solution"] = solution
	meta["success_rate"] = successRate
	meta["auto_resolved"] = autoResolved
	meta["resolution_seconds"] = resolutionTime.Seconds()
	doc.Metadata = meta

	if err := r.index.Add(ctx, search.CollectionResolved, *doc); err != nil {
		return fmt.Errorf("index resolved ticket %s: %w", ticketID, err)
	}
	if err := r.index.Delete(ctx, search.CollectionOpen, ticketID); err != nil {
		return fmt.Errorf("remove open ticket %s: %w", ticketID, err)
	}

	r.logger.Info("ticket moved to resolved collection",
		zap.String("ticket_id", ticketID),
		zap.Bool("auto_resolved", autoResolved))
	return nil
}

// normalizeScore maps a relevance in [-1,1] onto [0,1], clamping out of
// range inputs.
func normalizeScore(score float64) float64 {
	normalized := (score + 1) / 2
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

func similarFromHit(hit search.Hit, score float64) domain.SimilarTicket {
	ticket := domain.SimilarTicket{
		TicketID:        hit.ID,
		Content:         hit.Content,
		SimilarityScore: score,
		Metadata:        hit.Metadata,
	}
	if hit.Metadata == nil {
		return ticket
	}
	if solution, ok := hit.Metadata["solution"].(string); ok {
		ticket.Solution = solution
	}
	if steps, ok := hit.Metadata["resolution_steps"].([]any); ok {
		for _, step := range steps {
			if s, ok := step.(string); ok {
				ticket.ResolutionSteps = append(ticket.ResolutionSteps, s)
			}
		}
	}
	if autoResolved, ok := hit.Metadata["auto_resolved"].(bool); ok {
		ticket.AutoResolved = autoResolved
	}
	if rate, ok := toFloat(hit.Metadata["success_rate"]); ok {
		ticket.SuccessRate = rate
	}
	if seconds, ok := toFloat(hit.Metadata["resolution_seconds"]); ok {
		ticket.ResolutionTime = time.Duration(seconds * float64(time.Second))
	}
	return ticket
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	default:
		return 0, false
	}
}
