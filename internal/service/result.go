package service

import (
	"context"
	"fmt"
	"time"

	"pl-predictions/internal/domain"

	"github.com/rs/zerolog"
)

type ResultService struct {
	results     ResultStore
	fixtures    *FixtureService
	leaderboard *LeaderboardService
	logger      zerolog.Logger
}

func NewResultService(results ResultStore, fixtures *FixtureService, leaderboard *LeaderboardService, logger zerolog.Logger) *ResultService {
	return &ResultService{results: results, fixtures: fixtures, leaderboard: leaderboard, logger: logger}
}

type ResultUpdate struct {
	Result      domain.MatchResult
	Leaderboard []domain.LeaderboardEntry
}

// UpdateMatchResult records a final score, which marks the match finished,
// then recomputes the leaderboard.
func (s *ResultService) UpdateMatchResult(ctx context.Context, matchID int64, homeScore, awayScore int) (*ResultUpdate, error) {
	if homeScore < 0 || awayScore < 0 {
		return nil, fmt.Errorf("%w: scores cannot be negative", domain.ErrInvalidInput)
	}
	if _, err := s.fixtures.FindMatch(ctx, matchID); err != nil {
		return nil, err
	}

	result, err := s.results.Upsert(ctx, domain.MatchResult{
		MatchID:   matchID,
		HomeScore: homeScore,
		AwayScore: awayScore,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("match_id", matchID).
		Int("home_score", homeScore).
		Int("away_score", awayScore).
		Msg("match result updated")

	entries, err := s.leaderboard.Recompute(ctx)
	if err != nil {
		return nil, err
	}
	return &ResultUpdate{Result: *result, Leaderboard: entries}, nil
}
