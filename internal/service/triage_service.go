package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
	"github.com/spec-kit/triage-engine/internal/events"
	"github.com/spec-kit/triage-engine/internal/repository"
	"github.com/spec-kit/triage-engine/internal/triage"
	"github.com/spec-kit/triage-engine/pkg/util"
)

// TriageService coordinates ticket intake and triage runs.
type TriageService struct {
	tickets    repository.TicketRepository
	retriever  *triage.Retriever
	pipeline   *triage.Pipeline
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TriageDependencies bundles collaborators for the triage service.
type TriageDependencies struct {
	TicketRepo repository.TicketRepository
	Retriever  *triage.Retriever
	Pipeline   *triage.Pipeline
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTriageService wires the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	return &TriageService{
		tickets:    deps.TicketRepo,
		retriever:  deps.Retriever,
		pipeline:   deps.Pipeline,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// TicketCreateInput describes ticket intake payload.
type TicketCreateInput struct {
	CreatorID   string
	Title       string
	Description string
	Priority    domain.TicketPriority
	Category    string
	Tags        []string
	Attributes  map[string]any
}

// TriageOutcome is the result of one triage run.
type TriageOutcome struct {
	Ticket   *domain.Ticket
	Decision *domain.ClassificationDecision
	Result   *domain.ResolutionResult
}

// SubmitTicket validates and persists a new ticket, indexes it for
// similarity lookups and announces its arrival.
func (s *TriageService) SubmitTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, util.NewValidationError("title is required", nil)
	}
	if strings.TrimSpace(input.CreatorID) == "" {
		return nil, util.NewValidationError("creator_id is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}

	ticket := &domain.Ticket{
		CreatorID:   input.CreatorID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusNew,
		Priority:    priority,
		Category:    strings.ToLower(strings.TrimSpace(input.Category)),
		Tags:        domain.NormalizeTags(input.Tags),
		Attributes:  input.Attributes,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, util.ToDomainError(err)
	}

	if err := s.retriever.Add(ctx, ticket); err != nil {
		// intake still succeeds; the ticket just misses similarity lookups
		s.logger.Warn("failed to index new ticket",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}

	s.publish(ctx, events.EventTicketReceived, ticket.ID, events.TicketReceivedPayload{
		CreatorID: ticket.CreatorID,
		Priority:  ticket.Priority,
		Category:  ticket.Category,
		Title:     ticket.Title,
	})

	return ticket, nil
}

// ListTickets returns tickets matching the filter.
func (s *TriageService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, util.ToDomainError(err)
	}
	return tickets, nil
}

// GetTicket loads a single ticket.
func (s *TriageService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", nil)
		}
		return nil, util.ToDomainError(err)
	}
	return ticket, nil
}

// TriageTicket runs the pipeline for a ticket and persists the outcome.
func (s *TriageService) TriageTicket(ctx context.Context, ticketID string) (*TriageOutcome, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	state := s.pipeline.Run(ctx, ticket)
	elapsed := time.Since(started)

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.ToDomainError(err)
	}

	s.publishOutcome(ctx, ticket, state, elapsed)

	return &TriageOutcome{
		Ticket:   ticket,
		Decision: state.Decision,
		Result:   state.Result,
	}, nil
}

func (s *TriageService) publishOutcome(ctx context.Context, ticket *domain.Ticket, state *triage.State, elapsed time.Duration) {
	decision := state.Decision
	result := state.Result

	s.publish(ctx, events.EventTicketClassified, ticket.ID, events.TicketClassifiedPayload{
		CanAutoResolve:  decision.CanAutoResolve,
		ConfidenceScore: decision.ConfidenceScore,
		TeamID:          decision.RoutingTeam.ID,
		TeamName:        decision.RoutingTeam.Name,
		NeedsMoreInfo:   decision.NeedsMoreInfo,
	})

	switch {
	case decision.CanAutoResolve && result.Success:
		s.publish(ctx, events.EventTicketAutoResolved, ticket.ID, events.TicketAutoResolvedPayload{
			Solution:       result.Solution,
			StepsAttempted: len(result.StepsTaken),
			SuccessRate:    decision.ConfidenceScore,
			ResolutionTime: elapsed,
		})
	case decision.CanAutoResolve:
		s.publish(ctx, events.EventTicketTriageFailed, ticket.ID, events.TicketTriageFailedPayload{
			FailureReason: result.FailureReason,
		})
	default:
		s.publish(ctx, events.EventTicketRouted, ticket.ID, events.TicketRoutedPayload{
			TeamID:         decision.RoutingTeam.ID,
			TeamName:       decision.RoutingTeam.Name,
			TeamMatchScore: decision.TeamMatchScore,
		})
	}
}

func (s *TriageService) publish(ctx context.Context, eventType events.EventType, ticketID string, payload any) {
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}
