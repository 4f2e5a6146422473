package fixtures

import (
	"context"
	"strconv"
	"sync"
	"time"

	"pl-predictions/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	matches   []domain.Match
	fetchedAt time.Time
}

// Cached keeps provider responses per gameweek for a TTL. Concurrent misses
// for the same gameweek share one upstream call. A stale entry is served when
// a refresh fails.
type Cached struct {
	next   Provider
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[int]cacheEntry
	group   singleflight.Group
}

func NewCached(next Provider, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{
		next:    next,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[int]cacheEntry),
	}
}

func (c *Cached) Matches(ctx context.Context, gw int) ([]domain.Match, error) {
	c.mu.RLock()
	entry, ok := c.entries[gw]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return cloneMatches(entry.matches), nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(gw), func() (any, error) {
		matches, err := c.next.Matches(ctx, gw)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[gw] = cacheEntry{matches: matches, fetchedAt: c.now()}
		c.mu.Unlock()
		return matches, nil
	})
	if err != nil {
		if ok {
			c.logger.Warn().Err(err).Int("gameweek", gw).Msg("fixture refresh failed, serving stale data")
			return cloneMatches(entry.matches), nil
		}
		return nil, err
	}
	return cloneMatches(v.([]domain.Match)), nil
}

func cloneMatches(in []domain.Match) []domain.Match {
	out := make([]domain.Match, len(in))
	copy(out, in)
	return out
}
