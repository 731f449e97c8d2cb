package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/events"
	"github.com/spec-kit/triage-engine/internal/triage"
)

// IndexWorker keeps the similarity collections in sync with triage
// outcomes: when a ticket is auto-resolved its document moves from the
// open collection into the resolved knowledge base.
type IndexWorker struct {
	retriever *triage.Retriever
	logger    *zap.Logger
}

// NewIndexWorker creates the worker.
func NewIndexWorker(retriever *triage.Retriever, logger *zap.Logger) *IndexWorker {
	return &IndexWorker{retriever: retriever, logger: logger}
}

// Register subscribes the worker to the events it reacts to.
func (w *IndexWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketAutoResolved, w.handleAutoResolved)
}

func (w *IndexWorker) handleAutoResolved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAutoResolvedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", event.Payload, event.Type)
	}

	err := w.retriever.UpdateSolution(ctx, event.TicketID, payload.Solution, payload.SuccessRate, true, payload.ResolutionTime)
	if err != nil {
		return fmt.Errorf("move ticket %s to resolved collection: %w", event.TicketID, err)
	}

	w.logger.Info("knowledge base updated",
		zap.String("ticket_id", event.TicketID),
		zap.Int("steps_attempted", payload.StepsAttempted))
	return nil
}
