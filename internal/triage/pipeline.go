package triage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
	"github.com/spec-kit/triage-engine/internal/observability"
)

// Stage identifies where a pipeline run currently is.
type Stage string

const (
	StageStart    Stage = "start"
	StageRetrieve Stage = "retrieve"
	StageClassify Stage = "classify"
	StagePlan     Stage = "plan"
	StageExecute  Stage = "execute"
	StageFinalize Stage = "finalize"
	StageDone     Stage = "done"
)

// RunStatus tags the overall progress of a run.
type RunStatus string

const (
	RunStatusStarted   RunStatus = "started"
	RunStatusProcessed RunStatus = "processed"
	RunStatusError     RunStatus = "error"
	RunStatusCompleted RunStatus = "completed"
)

// State is the working record threaded through one pipeline run. It is
// owned by exactly one run and never shared across tickets.
type State struct {
	Ticket      *domain.Ticket
	Similar     []domain.SimilarTicket
	Decision    *domain.ClassificationDecision
	Plan        []domain.ResolutionStep
	StepIndex   int
	StepResults []StepOutcome
	Result      *domain.ResolutionResult
	Stage       Stage
	Status      RunStatus
	Err         error
}

type similarityFinder interface {
	FindSimilar(ctx context.Context, query string, n int, threshold float64, includeResolved bool) ([]domain.SimilarTicket, error)
}

type ticketClassifier interface {
	Classify(ctx context.Context, ticket *domain.Ticket, similar []domain.SimilarTicket) domain.ClassificationDecision
}

type stepRunner interface {
	BuildPlan(lines []string) []domain.ResolutionStep
	ExecuteStep(ctx context.Context, step domain.ResolutionStep) StepOutcome
}

// PipelineConfig tunes retrieval inside a run.
type PipelineConfig struct {
	SimilarResults int
	ScoreThreshold float64
}

// Pipeline drives a ticket through retrieval, classification and, when
// eligible, automated resolution. Run always terminates with a completed
// state carrying a decision and a result.
type Pipeline struct {
	retriever  similarityFinder
	classifier ticketClassifier
	executor   stepRunner
	cfg        PipelineConfig
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewPipeline wires the triage stages together.
func NewPipeline(retriever similarityFinder, classifier ticketClassifier, executor stepRunner, cfg PipelineConfig, metrics *observability.Metrics, logger *zap.Logger) *Pipeline {
	if cfg.SimilarResults <= 0 {
		cfg.SimilarResults = 5
	}
	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = 0.7
	}
	return &Pipeline{
		retriever:  retriever,
		classifier: classifier,
		executor:   executor,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// Run executes the full state machine for one ticket.
func (p *Pipeline) Run(ctx context.Context, ticket *domain.Ticket) *State {
	state := &State{Ticket: ticket, Stage: StageStart, Status: RunStatusStarted}

	defer func() {
		if recovered := recover(); recovered != nil {
			p.logger.Error("pipeline panic",
				zap.String("ticket_id", ticket.ID),
				zap.Any("panic", recovered))
			state.Err = fmt.Errorf("pipeline panic: %v", recovered)
			p.failSafe(state)
		}
	}()

	for state.Stage != StageDone {
		p.step(ctx, state)
	}
	return state
}

// step advances the state machine by one transition.
func (p *Pipeline) step(ctx context.Context, state *State) {
	switch state.Stage {
	case StageStart:
		state.Stage = StageRetrieve

	case StageRetrieve:
		similar, err := p.retriever.FindSimilar(ctx, state.Ticket.EmbeddingText(), p.cfg.SimilarResults, p.cfg.ScoreThreshold, true)
		if err != nil {
			p.toError(state, fmt.Errorf("similarity retrieval: %w", err))
			return
		}
		state.Similar = similar
		state.Stage = StageClassify
		p.metrics.RecordStage(string(StageRetrieve), false)

	case StageClassify:
		decision := p.classifier.Classify(ctx, state.Ticket, state.Similar)
		state.Decision = &decision
		state.Status = RunStatusProcessed
		p.metrics.RecordStage(string(StageClassify), false)
		if decision.CanAutoResolve {
			state.Stage = StagePlan
		} else {
			state.Stage = StageFinalize
		}

	case StagePlan:
		state.Plan = p.executor.BuildPlan(state.Decision.AutoResolutionSteps)
		state.Ticket.Status = domain.TicketStatusAutoResolving
		state.StepIndex = 0
		state.Stage = StageExecute
		p.metrics.RecordStage(string(StagePlan), false)

	case StageExecute:
		if state.StepIndex >= len(state.Plan) {
			state.Stage = StageFinalize
			return
		}
		outcome := p.executor.ExecuteStep(ctx, state.Plan[state.StepIndex])
		state.StepResults = append(state.StepResults, outcome)
		state.StepIndex++
		p.metrics.RecordStage(string(StageExecute), !outcome.Success)
		if !outcome.Success {
			state.Stage = StageFinalize
		}

	case StageFinalize:
		p.finalize(state)

	default:
		p.toError(state, fmt.Errorf("unknown stage %q", state.Stage))
	}
}

// finalize computes the terminal result and ticket status.
func (p *Pipeline) finalize(state *State) {
	decision := state.Decision

	result := domain.ResolutionResult{Success: true}
	for _, outcome := range state.StepResults {
		result.StepsTaken = append(result.StepsTaken, outcome.Step)
		if !outcome.Success {
			result.Success = false
			if outcome.Err != nil {
				result.FailureReason = outcome.Err.Error()
			}
		}
	}

	switch {
	case decision.CanAutoResolve && result.Success:
		result.Solution = strings.Join(decision.AutoResolutionSteps, "\n")
		state.Ticket.Status = domain.TicketStatusResolved
		p.metrics.RecordPipelineRun("auto_resolved")

	case decision.CanAutoResolve:
		state.Ticket.Status = domain.TicketStatusPending
		p.metrics.RecordPipelineRun("auto_failed")

	default:
		result.Success = false
		result.FailureReason = "automation not attempted"
		state.Ticket.Status = domain.TicketStatusAssigned
		p.metrics.RecordPipelineRun("routed")
	}

	assignTeam(state.Ticket, decision.RoutingTeam)

	state.Result = &result
	state.Status = RunStatusCompleted
	state.Stage = StageDone

	p.logger.Info("pipeline completed",
		zap.String("ticket_id", state.Ticket.ID),
		zap.Bool("auto_resolve", decision.CanAutoResolve),
		zap.Bool("success", result.Success),
		zap.String("team", decision.RoutingTeam.Name),
		zap.String("ticket_status", string(state.Ticket.Status)))
}

// assignTeam records the routing team on the ticket. The synthetic
// fallback team has no teams row, so persisting its id would violate the
// assigned_team_id foreign key; the assignment stays unset and the
// decision payload alone names the team.
func assignTeam(ticket *domain.Ticket, team domain.Team) {
	if team.IsDefault() {
		ticket.AssignedTeamID = nil
		return
	}
	teamID := team.ID
	ticket.AssignedTeamID = &teamID
}

// toError routes a stage failure through the error transition: fabricate
// the safe human-review decision and a fallback result, then complete.
func (p *Pipeline) toError(state *State, err error) {
	state.Err = err
	p.failSafe(state)
}

func (p *Pipeline) failSafe(state *State) {
	state.Status = RunStatusError
	p.metrics.RecordStage(string(state.Stage), true)
	p.logger.Warn("pipeline error, falling back to human review",
		zap.String("ticket_id", state.Ticket.ID),
		zap.Error(state.Err))

	decision := domain.ClassificationDecision{
		CanAutoResolve:  false,
		ConfidenceScore: 0.1,
		RoutingTeam:     domain.DefaultTeam(),
		TeamMatchScore:  defaultTeamScore,
		Reasoning:       fmt.Sprintf("pipeline error: %v", state.Err),
		NeedsMoreInfo:   true,
	}
	state.Decision = &decision

	result := domain.ResolutionResult{
		Success:       false,
		FailureReason: state.Err.Error(),
	}
	for _, outcome := range state.StepResults {
		result.StepsTaken = append(result.StepsTaken, outcome.Step)
	}
	state.Result = &result

	assignTeam(state.Ticket, decision.RoutingTeam)
	state.Ticket.Status = domain.TicketStatusPending

	state.Status = RunStatusCompleted
	state.Stage = StageDone
	p.metrics.RecordPipelineRun("error")
}
