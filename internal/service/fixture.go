package service

import (
	"context"
	"fmt"
	"time"

	"pl-predictions/internal/constants"
	"pl-predictions/internal/domain"
	"pl-predictions/internal/fixtures"
	"pl-predictions/internal/gameweek"

	"github.com/rs/zerolog"
)

// FixtureService serves provider fixtures with stored result overrides
// applied on top.
type FixtureService struct {
	provider fixtures.Provider
	results  ResultStore
	logger   zerolog.Logger
	now      func() time.Time
}

func NewFixtureService(provider fixtures.Provider, results ResultStore, logger zerolog.Logger) *FixtureService {
	return &FixtureService{provider: provider, results: results, logger: logger, now: time.Now}
}

type GameweekView struct {
	Gameweek   int
	Matches    []domain.Match
	Deadline   time.Time // zero when Gameweek is 0 or has no matches
	CanPredict bool
}

// Matches returns one gameweek's fixtures, or the whole season for 0.
func (s *FixtureService) Matches(ctx context.Context, gw int) ([]domain.Match, error) {
	if gw < 0 || gw > constants.SeasonGameweeks {
		return nil, fmt.Errorf("%w: gameweek %d out of range", domain.ErrInvalidInput, gw)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	matches, err := s.provider.Matches(ctx, gw)
	if err != nil {
		s.logger.Error().Err(err).Int("gameweek", gw).Msg("failed to load fixtures")
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}

	overrides, err := s.results.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load match results: %w", err)
	}
	if len(overrides) == 0 {
		return matches, nil
	}

	byMatch := make(map[int64]domain.MatchResult, len(overrides))
	for _, r := range overrides {
		byMatch[r.MatchID] = r
	}
	for i, m := range matches {
		if r, ok := byMatch[m.ID]; ok {
			matches[i] = m.WithResult(r.HomeScore, r.AwayScore)
		}
	}
	return matches, nil
}

func (s *FixtureService) Gameweek(ctx context.Context, gw int) (*GameweekView, error) {
	matches, err := s.Matches(ctx, gw)
	if err != nil {
		return nil, err
	}

	view := &GameweekView{Gameweek: gw, Matches: matches}
	if gw == 0 {
		return view, nil
	}
	view.Deadline, _ = gameweek.Deadline(matches)
	view.CanPredict = gameweek.CanPredict(s.now(), matches)
	return view, nil
}

func (s *FixtureService) Gameweeks(ctx context.Context) ([]domain.GameweekSummary, error) {
	matches, err := s.Matches(ctx, 0)
	if err != nil {
		return nil, err
	}
	return gameweek.Summarize(s.now(), matches), nil
}

// FindMatch looks a match up across the whole season.
func (s *FixtureService) FindMatch(ctx context.Context, matchID int64) (domain.Match, error) {
	matches, err := s.Matches(ctx, 0)
	if err != nil {
		return domain.Match{}, err
	}
	for _, m := range matches {
		if m.ID == matchID {
			return m, nil
		}
	}
	return domain.Match{}, fmt.Errorf("%w: %d", domain.ErrUnknownMatch, matchID)
}
