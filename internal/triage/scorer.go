package triage

import (
	"strings"

	"github.com/spec-kit/triage-engine/internal/domain"
)

// Weights for the team match score. The focus component dominates; tag
// overlap nudges the choice between otherwise equal teams.
const (
	focusWeightUnclearGeneral = 0.8
	focusWeightExactMatch     = 0.7
	focusWeightGeneralTeam    = 0.2
	tagOverlapWeight          = 0.3
	minimumRoutableScore      = 0.3
	defaultTeamScore          = 0.5
)

// vague categories give no routing signal on their own.
var vagueCategories = map[string]struct{}{
	"":          {},
	"technical": {},
	"general":   {},
	"unknown":   {},
}

// IsUnclear reports whether the ticket carries too little signal to route
// confidently: at most one tag and a vague category.
func IsUnclear(category string, tags []string) bool {
	if len(tags) > 1 {
		return false
	}
	_, vague := vagueCategories[strings.ToLower(strings.TrimSpace(category))]
	return vague
}

// ScoreTeamMatch rates how well a team fits a ticket, in [0,1]. Pure:
// the same inputs always yield the same score.
func ScoreTeamMatch(team domain.Team, category string, tags []string) float64 {
	category = strings.ToLower(strings.TrimSpace(category))
	focus := strings.ToLower(strings.TrimSpace(team.Metadata.FocusArea))
	generalTeam := focus == domain.FocusAreaGeneral

	var score float64
	switch {
	case IsUnclear(category, tags) && generalTeam:
		score = focusWeightUnclearGeneral
	case category != "" && category == focus:
		score = focusWeightExactMatch
	case generalTeam:
		score = focusWeightGeneralTeam
	}

	score += tagOverlap(team.Metadata.Tags, tags) * tagOverlapWeight
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// tagOverlap is |team ∩ ticket| / |ticket|, case-insensitive; zero when
// the ticket has no tags.
func tagOverlap(teamTags, ticketTags []string) float64 {
	if len(ticketTags) == 0 {
		return 0
	}
	teamSet := make(map[string]struct{}, len(teamTags))
	for _, tag := range teamTags {
		teamSet[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	matched := 0
	for _, tag := range ticketTags {
		if _, ok := teamSet[strings.ToLower(strings.TrimSpace(tag))]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(ticketTags))
}
