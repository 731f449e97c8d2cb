package triage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
)

// ClassifierConfig tunes the auto-resolution gate and routing floor.
type ClassifierConfig struct {
	SuccessRateThreshold     float64
	MinTeamMatchScore        float64
	AutoResolvableCategories []string
}

// DefaultClassifierConfig returns the production thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		SuccessRateThreshold: 0.8,
		MinTeamMatchScore:    minimumRoutableScore,
		AutoResolvableCategories: []string{
			"password_reset",
			"account_unlock",
			"credential_reset",
		},
	}
}

// Classifier decides whether a ticket can be auto-resolved and which team
// should own it. Classify never panics outward; any internal fault yields
// a conservative human-review decision.
type Classifier struct {
	directory *Directory
	cfg       ClassifierConfig
	logger    *zap.Logger
}

// NewClassifier builds a classifier over the team directory.
func NewClassifier(directory *Directory, cfg ClassifierConfig, logger *zap.Logger) *Classifier {
	if cfg.SuccessRateThreshold <= 0 {
		cfg.SuccessRateThreshold = 0.8
	}
	if cfg.MinTeamMatchScore <= 0 {
		cfg.MinTeamMatchScore = minimumRoutableScore
	}
	if len(cfg.AutoResolvableCategories) == 0 {
		cfg.AutoResolvableCategories = DefaultClassifierConfig().AutoResolvableCategories
	}
	return &Classifier{directory: directory, cfg: cfg, logger: logger}
}

// Classify produces the routing decision for a ticket given its similar
// historical tickets.
func (c *Classifier) Classify(ctx context.Context, ticket *domain.Ticket, similar []domain.SimilarTicket) (decision domain.ClassificationDecision) {
	ticketID := ""
	if ticket != nil {
		ticketID = ticket.ID
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			c.logger.Error("classification panic, falling back to human review",
				zap.String("ticket_id", ticketID),
				zap.Any("panic", recovered))
			decision = domain.ClassificationDecision{
				CanAutoResolve:  false,
				ConfidenceScore: 0.1,
				RoutingTeam:     domain.DefaultTeam(),
				TeamMatchScore:  defaultTeamScore,
				Reasoning:       fmt.Sprintf("classification failed: %v", recovered),
				NeedsMoreInfo:   true,
			}
		}
	}()

	canAuto, autoSignal, plan, autoReason := c.evaluateAutoResolution(ticket, similar)
	team, teamScore := c.selectTeam(ctx, ticket, canAuto)

	confidence := autoSignal
	if teamScore < confidence {
		confidence = teamScore
	}
	confidence = clamp01(confidence)

	decision = domain.ClassificationDecision{
		CanAutoResolve:  canAuto,
		ConfidenceScore: confidence,
		RoutingTeam:     team,
		TeamMatchScore:  teamScore,
		Reasoning:       autoReason,
		NeedsMoreInfo:   !canAuto && IsUnclear(ticket.Category, ticket.Tags),
	}
	if canAuto {
		decision.AutoResolutionSteps = plan
	}
	return decision
}

// evaluateAutoResolution runs the auto gate: the previously auto-resolved
// similars must average a success rate above the threshold and the ticket
// category must be on the allow-list.
func (c *Classifier) evaluateAutoResolution(ticket *domain.Ticket, similar []domain.SimilarTicket) (bool, float64, []string, string) {
	var autoResolved []domain.SimilarTicket
	for _, s := range similar {
		if s.AutoResolved {
			autoResolved = append(autoResolved, s)
		}
	}

	if len(autoResolved) == 0 {
		signal := 0.0
		if len(similar) > 0 {
			signal = similar[0].SimilarityScore
		}
		return false, signal, nil, "no auto-resolved precedent among similar tickets"
	}

	var sum float64
	best := autoResolved[0]
	for _, s := range autoResolved {
		sum += s.SuccessRate
		if s.SuccessRate > best.SuccessRate {
			best = s
		}
	}
	mean := sum / float64(len(autoResolved))

	if mean <= c.cfg.SuccessRateThreshold {
		return false, mean, nil, fmt.Sprintf(
			"historical auto-resolution success rate %.2f below threshold", mean)
	}
	if !c.categoryAllowed(ticket.Category) {
		return false, mean, nil, fmt.Sprintf(
			"category %q is not eligible for auto-resolution", ticket.Category)
	}

	plan := planFromSimilar(best)
	if len(plan) == 0 {
		return false, mean, nil, "best precedent carries no usable resolution steps"
	}

	return true, mean, plan, fmt.Sprintf(
		"%d auto-resolved precedents with mean success rate %.2f", len(autoResolved), mean)
}

func (c *Classifier) categoryAllowed(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, allowed := range c.cfg.AutoResolvableCategories {
		if category == allowed {
			return true
		}
	}
	return false
}

// selectTeam picks the routing team. Auto-resolvable tickets go to the
// auto-resolution team when one exists; otherwise the best-scoring team
// above the floor wins, with the default team as backstop.
func (c *Classifier) selectTeam(ctx context.Context, ticket *domain.Ticket, canAuto bool) (domain.Team, float64) {
	teams := c.directory.Teams(ctx, false)

	if canAuto {
		for _, team := range teams {
			if strings.EqualFold(team.Metadata.FocusArea, domain.FocusAreaAutoResolution) {
				return team, 1.0
			}
		}
	}

	var bestTeam domain.Team
	bestScore := -1.0
	for _, team := range teams {
		score := ScoreTeamMatch(team, ticket.Category, ticket.Tags)
		if score > bestScore {
			bestTeam = team
			bestScore = score
		}
	}

	if bestScore < c.cfg.MinTeamMatchScore {
		return domain.DefaultTeam(), defaultTeamScore
	}
	return bestTeam, bestScore
}

// planFromSimilar extracts the resolution plan from a precedent: the
// non-empty trimmed lines of its recorded solution, or its recorded step
// list when the solution text is empty.
func planFromSimilar(precedent domain.SimilarTicket) []string {
	var plan []string
	for _, line := range strings.Split(precedent.Solution, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			plan = append(plan, line)
		}
	}
	if len(plan) == 0 {
		for _, step := range precedent.ResolutionSteps {
			step = strings.TrimSpace(step)
			if step != "" {
				plan = append(plan, step)
			}
		}
	}
	return plan
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
