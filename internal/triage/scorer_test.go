package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/triage-engine/internal/domain"
)

func makeTeam(focus string, tags ...string) domain.Team {
	return domain.Team{
		ID:   "team-" + focus,
		Name: focus,
		Metadata: domain.TeamMetadata{
			FocusArea: focus,
			Tags:      tags,
		},
	}
}

func TestIsUnclear(t *testing.T) {
	tests := []struct {
		name     string
		category string
		tags     []string
		want     bool
	}{
		{"empty category no tags", "", nil, true},
		{"technical one tag", "technical", []string{"vpn"}, true},
		{"general uppercase", "General", nil, true},
		{"unknown", "unknown", nil, true},
		{"specific category", "password_reset", nil, false},
		{"vague but many tags", "technical", []string{"vpn", "login"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnclear(tt.category, tt.tags))
		})
	}
}

func TestScoreTeamMatch(t *testing.T) {
	tests := []struct {
		name     string
		team     domain.Team
		category string
		tags     []string
		want     float64
	}{
		{
			name:     "unclear ticket against general team",
			team:     makeTeam("general"),
			category: "technical",
			tags:     []string{"misc"},
			want:     0.8,
		},
		{
			name:     "exact category focus match",
			team:     makeTeam("billing"),
			category: "billing",
			tags:     nil,
			want:     0.7,
		},
		{
			name:     "general team on clear mismatched ticket",
			team:     makeTeam("general"),
			category: "billing",
			tags:     []string{"invoice", "refund"},
			want:     0.2,
		},
		{
			name:     "no focus match no overlap",
			team:     makeTeam("networking"),
			category: "billing",
			tags:     []string{"invoice", "refund"},
			want:     0,
		},
		{
			name:     "full tag overlap adds 0.3",
			team:     makeTeam("billing", "invoice", "refund"),
			category: "billing",
			tags:     []string{"invoice", "refund"},
			want:     1.0,
		},
		{
			name:     "half tag overlap",
			team:     makeTeam("networking", "vpn"),
			category: "billing",
			tags:     []string{"vpn", "invoice"},
			want:     0.15,
		},
		{
			name:     "case-insensitive category and tags",
			team:     makeTeam("Billing", "Invoice"),
			category: "BILLING",
			tags:     []string{"INVOICE"},
			want:     1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreTeamMatch(tt.team, tt.category, tt.tags)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

// Adding a tag the team shares never lowers the score. Scoped to tickets
// with two or more tags: going from one tag to two flips the unclear
// detection, which legitimately changes the focus component.
func TestScoreTeamMatchTagOverlapMonotonic(t *testing.T) {
	team := makeTeam("billing", "invoice", "refund", "payment")

	tests := []struct {
		name   string
		before []string
		after  []string
	}{
		{"matching tag on partial overlap", []string{"invoice", "shipping"}, []string{"invoice", "shipping", "refund"}},
		{"matching tag on no overlap", []string{"shipping", "customs"}, []string{"shipping", "customs", "payment"}},
		{"matching tag on full overlap", []string{"invoice", "refund"}, []string{"invoice", "refund", "payment"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ScoreTeamMatch(team, "billing", tt.before)
			after := ScoreTeamMatch(team, "billing", tt.after)
			assert.GreaterOrEqual(t, after, before)
		})
	}
}

func TestScoreTeamMatchClampedAtOne(t *testing.T) {
	team := makeTeam("general", "a")
	// unclear general (0.8) + full overlap (0.3) would be 1.1
	got := ScoreTeamMatch(team, "general", []string{"a"})
	assert.InDelta(t, 1.0, got, 1e-9)
}
