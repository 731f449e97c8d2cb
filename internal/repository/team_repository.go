package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
)

// TeamRepository reads organizational teams for routing.
type TeamRepository interface {
	ListTeams(ctx context.Context) ([]domain.Team, error)
	GetByID(ctx context.Context, id string) (*domain.Team, error)
}

type teamRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool, logger *zap.Logger) TeamRepository {
	return &teamRepository{pool: pool, logger: logger}
}

func (r *teamRepository) ListTeams(ctx context.Context) ([]domain.Team, error) {
	const query = `
        SELECT id, name, description, metadata, created_at, updated_at
        FROM teams ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var (
			team domain.Team
			raw  []byte
		)
		if err := rows.Scan(&team.ID, &team.Name, &team.Description, &raw, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		meta, err := decodeTeamMetadata(raw)
		if err != nil {
			// A team without readable metadata cannot be scored; skip it
			// rather than failing the whole listing.
			r.logger.Warn("skipping team with unparseable metadata",
				zap.String("team_id", team.ID), zap.Error(err))
			continue
		}
		team.Metadata = meta
		result = append(result, team)
	}
	return result, rows.Err()
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	const query = `
        SELECT id, name, description, metadata, created_at, updated_at
        FROM teams WHERE id=$1`
	var (
		team domain.Team
		raw  []byte
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&team.ID, &team.Name, &team.Description, &raw, &team.CreatedAt, &team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	meta, err := decodeTeamMetadata(raw)
	if err == nil {
		team.Metadata = meta
	}
	return &team, nil
}

// decodeTeamMetadata tolerates the historical metadata shapes: focus_area as
// either {"value": "...", "label": "..."} or a bare string, and skills under
// "Skills" or "skills". Malformed individual fields are treated as unset.
func decodeTeamMetadata(raw []byte) (domain.TeamMetadata, error) {
	var meta domain.TeamMetadata
	if len(raw) == 0 {
		return meta, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return meta, err
	}

	if focus, ok := doc["focus_area"]; ok {
		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(focus, &obj); err == nil && obj.Value != "" {
			meta.FocusArea = obj.Value
		} else {
			var plain string
			if err := json.Unmarshal(focus, &plain); err == nil {
				meta.FocusArea = plain
			}
		}
	}

	for _, key := range []string{"Skills", "skills"} {
		if skills, ok := doc[key]; ok {
			var list []string
			if err := json.Unmarshal(skills, &list); err == nil {
				meta.Skills = list
				break
			}
		}
	}

	if level, ok := doc["technical_level"]; ok {
		var plain string
		if err := json.Unmarshal(level, &plain); err == nil {
			meta.TechnicalLevel = domain.TechnicalLevel(plain)
		}
	}

	if tags, ok := doc["tags"]; ok {
		var list []string
		if err := json.Unmarshal(tags, &list); err == nil {
			meta.Tags = list
		}
	}

	return meta, nil
}
