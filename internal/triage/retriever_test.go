package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
	"github.com/spec-kit/triage-engine/internal/search"
)

type fakeIndex struct {
	hits     map[string][]search.Hit
	docs     map[string]map[string]search.Document
	queryErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		hits: make(map[string][]search.Hit),
		docs: make(map[string]map[string]search.Document),
	}
}

func (f *fakeIndex) Query(ctx context.Context, collection, text string, k int) ([]search.Hit, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.hits[collection], nil
}

func (f *fakeIndex) Add(ctx context.Context, collection string, doc search.Document) error {
	if f.docs[collection] == nil {
		f.docs[collection] = make(map[string]search.Document)
	}
	f.docs[collection][doc.ID] = doc
	return nil
}

func (f *fakeIndex) Get(ctx context.Context, collection, id string) (*search.Document, error) {
	doc, ok := f.docs[collection][id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (f *fakeIndex) Delete(ctx context.Context, collection, id string) error {
	delete(f.docs[collection], id)
	return nil
}

func TestFindSimilarNormalizesFiltersAndSorts(t *testing.T) {
	index := newFakeIndex()
	// raw scores in [-1,1]: 0.8 -> 0.9, 0.4 -> 0.7, -0.2 -> 0.4 (dropped at 0.7)
	index.hits[search.CollectionOpen] = []search.Hit{
		{ID: "t1", Score: 0.4},
		{ID: "t2", Score: 0.8},
		{ID: "t3", Score: -0.2},
	}

	retriever := NewRetriever(index, zap.NewNop())
	results, err := retriever.FindSimilar(context.Background(), "query", 5, 0.7, false)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "t2", results[0].TicketID)
	assert.InDelta(t, 0.9, results[0].SimilarityScore, 1e-9)
	assert.Equal(t, "t1", results[1].TicketID)
	assert.InDelta(t, 0.7, results[1].SimilarityScore, 1e-9)
}

func TestFindSimilarMergesCollectionsAndDeduplicates(t *testing.T) {
	index := newFakeIndex()
	index.hits[search.CollectionOpen] = []search.Hit{
		{ID: "dup", Score: 0.5},
		{ID: "open-only", Score: 0.6},
	}
	index.hits[search.CollectionResolved] = []search.Hit{
		{ID: "dup", Score: 0.9},
		{ID: "resolved-only", Score: 0.7},
	}

	retriever := NewRetriever(index, zap.NewNop())
	results, err := retriever.FindSimilar(context.Background(), "query", 10, 0.0, true)

	require.NoError(t, err)
	require.Len(t, results, 3)
	// dup keeps its highest score, normalized (0.9+1)/2
	assert.Equal(t, "dup", results[0].TicketID)
	assert.InDelta(t, 0.95, results[0].SimilarityScore, 1e-9)
}

func TestFindSimilarTruncatesToN(t *testing.T) {
	index := newFakeIndex()
	index.hits[search.CollectionOpen] = []search.Hit{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.8},
		{ID: "c", Score: 0.7},
	}

	retriever := NewRetriever(index, zap.NewNop())
	results, err := retriever.FindSimilar(context.Background(), "query", 2, 0.0, false)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindSimilarMapsMetadata(t *testing.T) {
	index := newFakeIndex()
	index.hits[search.CollectionResolved] = []search.Hit{
		{
			ID:    "t1",
			Score: 0.8,
			Metadata: map[string]any{
				"solution":           "reset the password\nnotify the user",
				"success_rate":       0.92,
				"auto_resolved":      true,
				"resolution_seconds": 120.0,
				"resolution_steps":   []any{"step one", "step two"},
			},
		},
	}

	retriever := NewRetriever(index, zap.NewNop())
	results, err := retriever.FindSimilar(context.Background(), "query", 5, 0.0, true)

	require.NoError(t, err)
	require.Len(t, results, 1)
	got := results[0]
	assert.True(t, got.AutoResolved)
	assert.InDelta(t, 0.92, got.SuccessRate, 1e-9)
	assert.Equal(t, 2*time.Minute, got.ResolutionTime)
	assert.Equal(t, []string{"step one", "step two"}, got.ResolutionSteps)
	assert.Contains(t, got.Solution, "reset the password")
}

func TestFindResolvedIgnoresOpenCollection(t *testing.T) {
	index := newFakeIndex()
	index.hits[search.CollectionOpen] = []search.Hit{{ID: "open-unsolved", Score: 0.9}}
	index.hits[search.CollectionResolved] = []search.Hit{{ID: "resolved", Score: 0.6}}

	retriever := NewRetriever(index, zap.NewNop())
	results, err := retriever.FindResolved(context.Background(), "query", 5, 0.0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "resolved", results[0].TicketID)
}

func TestFindSimilarPropagatesQueryError(t *testing.T) {
	index := newFakeIndex()
	index.queryErr = errors.New("backend down")

	retriever := NewRetriever(index, zap.NewNop())
	_, err := retriever.FindSimilar(context.Background(), "query", 5, 0.7, false)

	assert.Error(t, err)
}

func TestUpdateSolutionMovesDocumentToResolved(t *testing.T) {
	index := newFakeIndex()
	retriever := NewRetriever(index, zap.NewNop())

	ticket := &domain.Ticket{
		ID:       "t1",
		Title:    "Cannot log in",
		Priority: domain.TicketPriorityHigh,
		Category: "password_reset",
	}
	require.NoError(t, retriever.Add(context.Background(), ticket))

	err := retriever.UpdateSolution(context.Background(), "t1", "reset the password", 0.9, true, 3*time.Minute)
	require.NoError(t, err)

	open, err := index.Get(context.Background(), search.CollectionOpen, "t1")
	require.NoError(t, err)
	assert.Nil(t, open)

	resolved, err := index.Get(context.Background(), search.CollectionResolved, "t1")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, "reset the password", resolved.Metadata["solution"])
	assert.Equal(t, true, resolved.Metadata["auto_resolved"])
	assert.InDelta(t, 180.0, resolved.Metadata["resolution_seconds"].(float64), 1e-9)
}

func TestUpdateSolutionUnknownTicket(t *testing.T) {
	retriever := NewRetriever(newFakeIndex(), zap.NewNop())

	err := retriever.UpdateSolution(context.Background(), "missing", "fix", 0.5, false, time.Minute)

	assert.Error(t, err)
}
