package tools

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
)

// SimilaritySearcher answers knowledge-base queries against previously
// resolved tickets.
type SimilaritySearcher interface {
	FindResolved(ctx context.Context, query string, n int, threshold float64) ([]domain.SimilarTicket, error)
}

const (
	knowledgeResults   = 3
	knowledgeThreshold = 0.7
)

// knowledgeBaseTool searches resolved tickets for relevant solutions.
type knowledgeBaseTool struct {
	searcher SimilaritySearcher
}

func (t *knowledgeBaseTool) Name() string { return ToolSearchKnowledgeBase }

func (t *knowledgeBaseTool) Description() string {
	return "Search resolved tickets for solutions relevant to a query"
}

func (t *knowledgeBaseTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return map[string]any{"error": "query argument required"}, nil
	}

	matches, err := t.searcher.FindResolved(ctx, query, knowledgeResults, knowledgeThreshold)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}

	entries := make([]map[string]any, 0, len(matches))
	for _, match := range matches {
		entries = append(entries, map[string]any{
			"ticket_id":    match.TicketID,
			"score":        match.SimilarityScore,
			"solution":     match.Solution,
			"success_rate": match.SuccessRate,
		})
	}
	return map[string]any{"results": entries, "count": len(entries)}, nil
}

// BuildRegistry wires up the built-in tools the manifest enables.
func BuildRegistry(manifest *Manifest, searcher SimilaritySearcher, timeout time.Duration, logger *zap.Logger) *Registry {
	registry := NewRegistry()
	client := newProviderClient(manifest.Provider, timeout, logger)

	candidates := []Tool{
		&knowledgeBaseTool{searcher: searcher},
		&checkUserPermissionsTool{client: client},
		&resetUserPasswordTool{client: client},
		&verifySystemStatusTool{client: client},
	}
	for _, tool := range candidates {
		if !manifest.Enabled(tool.Name()) {
			continue
		}
		registry.Register(tool)
	}

	logger.Info("tool registry ready", zap.Strings("tools", registry.Names()))
	return registry
}
