// Package fixtures supplies match data. One Provider is chosen at startup.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"pl-predictions/internal/api"
	"pl-predictions/internal/config"
	"pl-predictions/internal/domain"

	"github.com/rs/zerolog"
)

// Provider returns the fixtures of one gameweek, or the whole season when
// gameweek is 0.
type Provider interface {
	Matches(ctx context.Context, gameweek int) ([]domain.Match, error)
}

func NewProvider(cfg *config.Config, client *api.FootballDataClient, logger zerolog.Logger) (Provider, error) {
	switch cfg.FixtureSource {
	case config.FixtureSourceLive:
		logger.Info().Str("season", cfg.FootballSeason).Dur("ttl", cfg.FixtureCacheTTL).Msg("using live fixture provider")
		return NewCached(NewLive(client, cfg.FootballSeason, logger), cfg.FixtureCacheTTL, logger), nil
	case config.FixtureSourceSimulated:
		start := cfg.SimSeasonStart
		if start.IsZero() {
			start = AnchoredSeasonStart(time.Now(), cfg.SimFinishedGameweeks)
		}
		logger.Info().
			Uint64("seed", cfg.SimSeed).
			Int("finished_gameweeks", cfg.SimFinishedGameweeks).
			Time("season_start", start).
			Msg("using simulated fixture provider")
		return NewSimulated(SimulatedOptions{
			Seed:              cfg.SimSeed,
			SeasonStart:       start,
			FinishedGameweeks: cfg.SimFinishedGameweeks,
		}), nil
	}
	return nil, fmt.Errorf("unsupported fixture source %q", cfg.FixtureSource)
}
