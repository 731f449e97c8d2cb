package triage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
)

// TeamSource loads the routing teams from the backing store.
type TeamSource interface {
	ListTeams(ctx context.Context) ([]domain.Team, error)
}

// Directory caches the team roster with a TTL. Lookups never fail: when
// the source errors the last good snapshot is served, and when nothing
// was ever loaded the default team stands in.
type Directory struct {
	source TeamSource
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu        sync.RWMutex
	teams     []domain.Team
	fetchedAt time.Time
	loaded    bool
}

// NewDirectory creates a directory over the given source. A nil now
// function defaults to time.Now.
func NewDirectory(source TeamSource, ttl time.Duration, now func() time.Time, logger *zap.Logger) *Directory {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Directory{source: source, ttl: ttl, now: now, logger: logger}
}

// Teams returns the current roster. forceRefresh bypasses the TTL check.
func (d *Directory) Teams(ctx context.Context, forceRefresh bool) []domain.Team {
	d.mu.RLock()
	if !forceRefresh && d.loaded && d.now().Sub(d.fetchedAt) < d.ttl {
		cached := copyTeams(d.teams)
		d.mu.RUnlock()
		return cached
	}
	d.mu.RUnlock()

	teams, err := d.source.ListTeams(ctx)
	if err != nil {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.loaded {
			d.logger.Warn("team refresh failed, serving cached roster", zap.Error(err))
			return copyTeams(d.teams)
		}
		d.logger.Warn("team refresh failed with empty cache, serving default team", zap.Error(err))
		return []domain.Team{domain.DefaultTeam()}
	}

	if len(teams) == 0 {
		teams = []domain.Team{domain.DefaultTeam()}
	}

	d.mu.Lock()
	d.teams = teams
	d.fetchedAt = d.now()
	d.loaded = true
	d.mu.Unlock()

	return copyTeams(teams)
}

func copyTeams(teams []domain.Team) []domain.Team {
	out := make([]domain.Team, len(teams))
	copy(out, teams)
	return out
}
