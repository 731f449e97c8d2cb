package dto

import (
	"time"

	"github.com/spec-kit/triage-engine/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CreatorID   string                `json:"creator_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Category    string                `json:"category"`
	Tags        []string              `json:"tags"`
	Attributes  map[string]any        `json:"attributes"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID             string                `json:"id"`
	CreatorID      string                `json:"creator_id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Status         domain.TicketStatus   `json:"status"`
	Priority       domain.TicketPriority `json:"priority"`
	Category       string                `json:"category,omitempty"`
	Tags           []string              `json:"tags,omitempty"`
	AssignedTeamID *string               `json:"assigned_team_id"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// DecisionResponse mirrors a classification decision.
type DecisionResponse struct {
	CanAutoResolve      bool     `json:"can_auto_resolve"`
	ConfidenceScore     float64  `json:"confidence_score"`
	TeamID              string   `json:"team_id"`
	TeamName            string   `json:"team_name"`
	TeamMatchScore      float64  `json:"team_match_score"`
	AutoResolutionSteps []string `json:"auto_resolution_steps,omitempty"`
	Reasoning           string   `json:"reasoning,omitempty"`
	NeedsMoreInfo       bool     `json:"needs_more_info"`
}

// StepResponse mirrors an attempted resolution step.
type StepResponse struct {
	Action   string `json:"action"`
	ToolName string `json:"tool_name,omitempty"`
}

// ResultResponse mirrors a resolution result.
type ResultResponse struct {
	Success       bool           `json:"success"`
	StepsTaken    []StepResponse `json:"steps_taken"`
	Solution      string         `json:"solution,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
}

// TriageResponse bundles the outcome of a triage run.
type TriageResponse struct {
	Ticket   TicketResponse   `json:"ticket"`
	Decision DecisionResponse `json:"decision"`
	Result   ResultResponse   `json:"result"`
}

// TicketFromDomain maps a domain ticket onto the response shape.
func TicketFromDomain(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             ticket.ID,
		CreatorID:      ticket.CreatorID,
		Title:          ticket.Title,
		Description:    ticket.Description,
		Status:         ticket.Status,
		Priority:       ticket.Priority,
		Category:       ticket.Category,
		Tags:           ticket.Tags,
		AssignedTeamID: ticket.AssignedTeamID,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

// DecisionFromDomain maps a classification decision.
func DecisionFromDomain(decision *domain.ClassificationDecision) DecisionResponse {
	return DecisionResponse{
		CanAutoResolve:      decision.CanAutoResolve,
		ConfidenceScore:     decision.ConfidenceScore,
		TeamID:              decision.RoutingTeam.ID,
		TeamName:            decision.RoutingTeam.Name,
		TeamMatchScore:      decision.TeamMatchScore,
		AutoResolutionSteps: decision.AutoResolutionSteps,
		Reasoning:           decision.Reasoning,
		NeedsMoreInfo:       decision.NeedsMoreInfo,
	}
}

// ResultFromDomain maps a resolution result.
func ResultFromDomain(result *domain.ResolutionResult) ResultResponse {
	steps := make([]StepResponse, 0, len(result.StepsTaken))
	for _, step := range result.StepsTaken {
		steps = append(steps, StepResponse{Action: step.Action, ToolName: step.ToolName})
	}
	return ResultResponse{
		Success:       result.Success,
		StepsTaken:    steps,
		Solution:      result.Solution,
		FailureReason: result.FailureReason,
	}
}
