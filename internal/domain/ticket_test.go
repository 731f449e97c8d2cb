package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"lowercases and trims", []string{" VPN ", "Login"}, []string{"vpn", "login"}},
		{"drops empties", []string{"", "  ", "a"}, []string{"a"}},
		{"dedupes keeping order", []string{"b", "a", "B"}, []string{"b", "a"}},
		{"nil input", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.in))
		})
	}
}

func TestEmbeddingTextIncludesAllSignals(t *testing.T) {
	ticket := &Ticket{
		Title:       "Cannot log in",
		Description: "Password rejected since this morning",
		Priority:    TicketPriorityHigh,
		Category:    "password_reset",
		Tags:        []string{"login", "password"},
	}

	text := ticket.EmbeddingText()

	assert.Contains(t, text, "title: Cannot log in")
	assert.Contains(t, text, "description: Password rejected since this morning")
	assert.Contains(t, text, "priority: high")
	assert.Contains(t, text, "category: password_reset")
	assert.Contains(t, text, "tags: login, password")
}

func TestEmbeddingTextDefaultsForMissingFields(t *testing.T) {
	ticket := &Ticket{Title: "Help", Priority: TicketPriorityLow}

	text := ticket.EmbeddingText()

	assert.Contains(t, text, "category: unspecified")
	assert.Contains(t, text, "tags: none")
}

func TestDefaultTeamIsWellFormed(t *testing.T) {
	team := DefaultTeam()

	assert.True(t, team.IsDefault())
	assert.Equal(t, "General Support", team.Name)
	assert.Equal(t, FocusAreaGeneral, team.Metadata.FocusArea)
}
