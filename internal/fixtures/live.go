package fixtures

import (
	"context"
	"fmt"

	"pl-predictions/internal/api"
	"pl-predictions/internal/domain"

	"github.com/rs/zerolog"
)

// Live reads fixtures from football-data.org.
type Live struct {
	client *api.FootballDataClient
	season string
	logger zerolog.Logger
}

func NewLive(client *api.FootballDataClient, season string, logger zerolog.Logger) *Live {
	return &Live{client: client, season: season, logger: logger}
}

func (l *Live) Matches(ctx context.Context, gw int) ([]domain.Match, error) {
	resp, err := l.client.GetMatches(ctx, l.season, gw)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures for gameweek %d: %w", gw, err)
	}

	matches := make([]domain.Match, 0, len(resp.Matches))
	for _, md := range resp.Matches {
		m, err := domain.NewMatch(
			md.ID,
			md.HomeTeam.Name,
			md.AwayTeam.Name,
			md.UTCDate,
			mapStatus(md.Status),
			md.Score.FullTime.Home,
			md.Score.FullTime.Away,
			md.Matchday,
		)
		if err != nil {
			l.logger.Warn().Err(err).Int64("match_id", md.ID).Str("status", md.Status).Msg("skipping malformed fixture")
			continue
		}
		matches = append(matches, m)
	}

	rl := l.client.GetRateLimitInfo()
	l.logger.Debug().
		Int("gameweek", gw).
		Int("matches", len(matches)).
		Int("rate_limit_remaining", rl.Remaining).
		Msg("fetched live fixtures")

	return matches, nil
}

func mapStatus(s string) domain.MatchStatus {
	switch s {
	case "FINISHED", "AWARDED":
		return domain.StatusFinished
	case "IN_PLAY", "PAUSED", "LIVE":
		return domain.StatusLive
	default:
		return domain.StatusUpcoming
	}
}
