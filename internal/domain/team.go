package domain

import "time"

// TechnicalLevel grades a team's depth of expertise.
type TechnicalLevel string

const (
	TechnicalLevelJunior TechnicalLevel = "junior"
	TechnicalLevelMid    TechnicalLevel = "mid"
	TechnicalLevelSenior TechnicalLevel = "senior"
)

// Well-known focus areas. FocusAreaAutoResolution marks the team that owns
// automated resolutions; FocusAreaGeneral marks generalist teams.
const (
	FocusAreaGeneral        = "general"
	FocusAreaAutoResolution = "auto_resolution"
)

// TeamMetadata carries the routing attributes stored alongside a team.
type TeamMetadata struct {
	FocusArea      string
	Skills         []string
	TechnicalLevel TechnicalLevel
	Tags           []string
}

// Team represents an organizational team tickets can be routed to.
type Team struct {
	ID          string
	Name        string
	Description string
	Metadata    TeamMetadata
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultTeamID identifies the synthetic fallback team.
const DefaultTeamID = "default-general-support"

// DefaultTeam returns the synthetic fallback team used whenever no real
// team can be resolved. It always exists, even when the backing store is
// empty or unreachable.
func DefaultTeam() Team {
	return Team{
		ID:          DefaultTeamID,
		Name:        "General Support",
		Description: "Fallback team for tickets that cannot be routed elsewhere",
		Metadata: TeamMetadata{
			FocusArea:      FocusAreaGeneral,
			Skills:         []string{"customer service", "basic troubleshooting"},
			TechnicalLevel: TechnicalLevelJunior,
			Tags:           []string{"support", "general"},
		},
	}
}

// IsDefault reports whether the team is the synthetic fallback.
func (t Team) IsDefault() bool {
	return t.ID == DefaultTeamID
}
