package triage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
)

func newTestClassifier(t *testing.T, teams ...domain.Team) *Classifier {
	t.Helper()
	source := &fakeTeamSource{teams: teams}
	dir := NewDirectory(source, time.Minute, nil, zap.NewNop())
	return NewClassifier(dir, DefaultClassifierConfig(), zap.NewNop())
}

func autoResolvedSimilar(id string, successRate float64, solution string) domain.SimilarTicket {
	return domain.SimilarTicket{
		TicketID:        id,
		SimilarityScore: 0.85,
		Solution:        solution,
		AutoResolved:    true,
		SuccessRate:     successRate,
	}
}

func TestClassifyAutoResolvesEligibleTicket(t *testing.T) {
	autoTeam := domain.Team{
		ID:       "auto",
		Name:     "Auto Resolution",
		Metadata: domain.TeamMetadata{FocusArea: domain.FocusAreaAutoResolution},
	}
	classifier := newTestClassifier(t, autoTeam, makeTeam("billing"))

	ticket := &domain.Ticket{ID: "t1", Category: "password_reset", Tags: []string{"login", "password"}}
	similar := []domain.SimilarTicket{
		autoResolvedSimilar("s1", 0.9, "verify identity\nreset_user_password"),
		autoResolvedSimilar("s2", 0.95, "reset_user_password"),
		autoResolvedSimilar("s3", 0.85, "reset_user_password\nconfirm with user"),
	}

	decision := classifier.Classify(context.Background(), ticket, similar)

	assert.True(t, decision.CanAutoResolve)
	assert.Equal(t, "auto", decision.RoutingTeam.ID)
	assert.InDelta(t, 1.0, decision.TeamMatchScore, 1e-9)
	// plan comes from the highest-success precedent
	assert.Equal(t, []string{"reset_user_password"}, decision.AutoResolutionSteps)
	assert.False(t, decision.NeedsMoreInfo)
}

func TestClassifyConfidenceIsMinimumOfSignals(t *testing.T) {
	classifier := newTestClassifier(t, makeTeam("billing"))

	ticket := &domain.Ticket{ID: "t1", Category: "password_reset"}
	similar := []domain.SimilarTicket{
		autoResolvedSimilar("s1", 0.9, "reset_user_password"),
	}

	decision := classifier.Classify(context.Background(), ticket, similar)

	require.True(t, decision.CanAutoResolve)
	// no auto-resolution team: routed by score, confidence bounded by it
	assert.LessOrEqual(t, decision.ConfidenceScore, decision.TeamMatchScore)
	assert.LessOrEqual(t, decision.ConfidenceScore, 0.9)
}

func TestClassifyRejectsDisallowedCategory(t *testing.T) {
	classifier := newTestClassifier(t, makeTeam("billing"))

	ticket := &domain.Ticket{ID: "t1", Category: "billing"}
	similar := []domain.SimilarTicket{
		autoResolvedSimilar("s1", 0.95, "refund the charge"),
	}

	decision := classifier.Classify(context.Background(), ticket, similar)

	assert.False(t, decision.CanAutoResolve)
	assert.Nil(t, decision.AutoResolutionSteps)
	assert.Equal(t, "team-billing", decision.RoutingTeam.ID)
}

func TestClassifyRejectsLowSuccessRate(t *testing.T) {
	classifier := newTestClassifier(t, makeTeam("billing"))

	ticket := &domain.Ticket{ID: "t1", Category: "password_reset"}
	similar := []domain.SimilarTicket{
		autoResolvedSimilar("s1", 0.6, "reset_user_password"),
		autoResolvedSimilar("s2", 0.7, "reset_user_password"),
	}

	decision := classifier.Classify(context.Background(), ticket, similar)

	assert.False(t, decision.CanAutoResolve)
	assert.Nil(t, decision.AutoResolutionSteps)
}

func TestClassifyNoSimilarTicketsRoutesToTeam(t *testing.T) {
	classifier := newTestClassifier(t, makeTeam("networking", "vpn"))

	ticket := &domain.Ticket{ID: "t1", Category: "networking", Tags: []string{"vpn", "office"}}

	decision := classifier.Classify(context.Background(), ticket, nil)

	assert.False(t, decision.CanAutoResolve)
	assert.Equal(t, "team-networking", decision.RoutingTeam.ID)
	// auto signal is zero with no similars, so confidence collapses
	assert.InDelta(t, 0.0, decision.ConfidenceScore, 1e-9)
	assert.False(t, decision.NeedsMoreInfo)
}

func TestClassifyUnclearTicketNeedsMoreInfo(t *testing.T) {
	classifier := newTestClassifier(t, makeTeam("general"))

	ticket := &domain.Ticket{ID: "t1", Category: "technical", Tags: []string{"misc"}}

	decision := classifier.Classify(context.Background(), ticket, nil)

	assert.False(t, decision.CanAutoResolve)
	assert.True(t, decision.NeedsMoreInfo)
	assert.Equal(t, "team-general", decision.RoutingTeam.ID)
}

func TestClassifyBelowFloorFallsBackToDefaultTeam(t *testing.T) {
	classifier := newTestClassifier(t, makeTeam("networking"))

	ticket := &domain.Ticket{ID: "t1", Category: "billing", Tags: []string{"invoice", "refund"}}

	decision := classifier.Classify(context.Background(), ticket, nil)

	assert.True(t, decision.RoutingTeam.IsDefault())
	assert.InDelta(t, 0.5, decision.TeamMatchScore, 1e-9)
}

func TestClassifyPlanFallsBackToRecordedSteps(t *testing.T) {
	classifier := newTestClassifier(t, makeTeam("billing"))

	ticket := &domain.Ticket{ID: "t1", Category: "password_reset"}
	precedent := autoResolvedSimilar("s1", 0.9, "")
	precedent.ResolutionSteps = []string{"check_user_permissions", "reset_user_password"}

	decision := classifier.Classify(context.Background(), ticket, []domain.SimilarTicket{precedent})

	require.True(t, decision.CanAutoResolve)
	assert.Equal(t, []string{"check_user_permissions", "reset_user_password"}, decision.AutoResolutionSteps)
}

func TestClassifyRecoversFromPanic(t *testing.T) {
	classifier := newTestClassifier(t)

	decision := classifier.Classify(context.Background(), nil, nil)

	assert.False(t, decision.CanAutoResolve)
	assert.True(t, decision.NeedsMoreInfo)
	assert.True(t, decision.RoutingTeam.IsDefault())
	assert.InDelta(t, 0.1, decision.ConfidenceScore, 1e-9)
	assert.NotEmpty(t, decision.Reasoning)
}
