package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pl-predictions/internal/constants"
	"pl-predictions/internal/domain"
	"pl-predictions/internal/ranking"
	"pl-predictions/internal/scoring"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// LeaderboardService re-derives every user's score from scratch and
// persists it. Passes are serialized, so a result written before a pass
// starts is always reflected in what that pass stores.
type LeaderboardService struct {
	users       UserStore
	predictions PredictionStore
	doublers    DoublerStore
	fixtures    *FixtureService
	publisher   ranking.Publisher
	logger      zerolog.Logger

	mu    sync.Mutex
	group singleflight.Group
}

func NewLeaderboardService(
	users UserStore,
	predictions PredictionStore,
	doublers DoublerStore,
	fixtures *FixtureService,
	publisher ranking.Publisher,
	logger zerolog.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		users:       users,
		predictions: predictions,
		doublers:    doublers,
		fixtures:    fixtures,
		publisher:   publisher,
		logger:      logger,
	}
}

// Get recomputes the leaderboard. Concurrent callers share one pass.
func (s *LeaderboardService) Get(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	v, err, shared := s.group.Do("leaderboard", func() (any, error) {
		return s.Recompute(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug().Msg("leaderboard pass shared between requests")
	}
	entries := v.([]domain.LeaderboardEntry)
	out := make([]domain.LeaderboardEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// Recompute runs a full pass. Any fetch failure aborts it before scores are
// written.
func (s *LeaderboardService) Recompute(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.LeaderboardTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	var (
		users       []domain.User
		predictions []domain.Prediction
		matches     []domain.Match
		doublers    []domain.Doubler
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.users.List(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		predictions, err = s.predictions.ListAll(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.fixtures.Matches(gCtx, 0)
		return err
	})
	g.Go(func() error {
		var err error
		doublers, err = s.doublers.ListAll(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to load leaderboard inputs")
		return nil, fmt.Errorf("failed to compute leaderboard: %w", err)
	}

	for _, c := range scoring.DoublerConflicts(predictions, doublers) {
		s.logger.Warn().
			Int64("user_id", c.UserID).
			Int("gameweek", c.Gameweek).
			Int64("doubler_match_id", c.RecordMatchID).
			Ints64("flagged_match_ids", c.FlaggedMatches).
			Msg("doubler record disagrees with prediction flags")
	}

	entries := scoring.BuildLeaderboard(users, predictions, matches)

	scores := make(map[int64]int, len(entries))
	for _, e := range entries {
		scores[e.UserID] = e.Score
	}
	if err := s.users.UpdateScores(ctx, scores); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist scores")
		return nil, fmt.Errorf("failed to persist scores: %w", err)
	}

	if err := s.publisher.Publish(ctx, entries); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mirror ranking")
	}

	s.logger.Info().
		Int("users", len(users)).
		Int("predictions", len(predictions)).
		Int("matches", len(matches)).
		Dur("took", time.Since(start)).
		Msg("leaderboard recomputed")

	return entries, nil
}
