package search

import "context"

// Similarity collections. Open tickets and resolved tickets live in
// separate collections; a ticket moves from open to resolved once a
// solution is recorded.
const (
	CollectionOpen     = "tickets_open"
	CollectionResolved = "tickets_resolved"
)

// Document is a ticket snapshot stored in a similarity collection.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// Hit is a raw retrieval result. Score is the backend's relevance in
// [-1,1]; normalization to [0,1] happens in the retriever.
type Hit struct {
	ID       string
	Content  string
	Metadata map[string]any
	Score    float64
}

// Index is the retrieval backend contract consumed by the triage engine.
type Index interface {
	Query(ctx context.Context, collection, text string, k int) ([]Hit, error)
	Add(ctx context.Context, collection string, doc Document) error
	Get(ctx context.Context, collection, id string) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
}
