// An in-memory, playtime-ordered cache in front of the highscore query, so
// repeated leaderboard reads for the same filter don't each re-scan
// game_session. repository.Queries.GetHighscores already returns rows
// ordered by playtime, so the cache just holds the slice it got back.
package leaderboard

import (
	"context"
	"sync"
	"time"

	"github.com/vancomm/minesweeper-server/internal/repository"
)

// boardKey identifies one leaderboard: a (width, height, mine_count, kind)
// difficulty bucket, optionally narrowed to a single player.
type boardKey struct {
	username  string
	width     int
	height    int
	mineCount int
	kind      string
}

type entry struct {
	rows      []repository.Highscore
	expiresAt time.Time
}

// Cache fronts repository.Queries.GetHighscores with a short-lived,
// per-filter cache. Safe for concurrent use.
type Cache struct {
	repo *repository.Queries
	ttl  time.Duration

	mu      sync.Mutex
	entries map[boardKey]*entry
}

func New(repo *repository.Queries, ttl time.Duration) *Cache {
	return &Cache{repo: repo, ttl: ttl, entries: make(map[boardKey]*entry)}
}

func keyFor(filter repository.HighscoreFilter) boardKey {
	k := boardKey{}
	if filter.Username != nil {
		k.username = *filter.Username
	}
	if filter.GameParams != nil {
		k.width = filter.GameParams.Width
		k.height = filter.GameParams.Height
		k.mineCount = filter.GameParams.MineCount
		k.kind = filter.GameParams.Kind.String()
	}
	return k
}

// Get returns the cached, playtime-ordered list for filter, refreshing from
// the database if the cache entry is missing or stale.
func (c *Cache) Get(ctx context.Context, filter repository.HighscoreFilter) ([]repository.Highscore, error) {
	k := keyFor(filter)

	c.mu.Lock()
	e, ok := c.entries[k]
	c.mu.Unlock()

	if ok && time.Now().Before(e.expiresAt) {
		return e.rows, nil
	}

	rows, err := c.repo.GetHighscores(ctx, filter)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[k] = &entry{rows: rows, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return rows, nil
}
