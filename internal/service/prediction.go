package service

import (
	"context"
	"errors"
	"fmt"

	"pl-predictions/internal/domain"
	"pl-predictions/internal/scoring"

	"github.com/rs/zerolog"
)

type PredictionService struct {
	predictions PredictionStore
	doublers    DoublerStore
	fixtures    *FixtureService
	logger      zerolog.Logger
}

func NewPredictionService(predictions PredictionStore, doublers DoublerStore, fixtures *FixtureService, logger zerolog.Logger) *PredictionService {
	return &PredictionService{predictions: predictions, doublers: doublers, fixtures: fixtures, logger: logger}
}

type SubmitInput struct {
	MatchID   int64
	HomeScore int
	AwayScore int
	IsDoubler bool
	Gameweek  int
}

// ScoredPrediction pairs a prediction with its match. Points is nil until
// the match is finished or when the match is unknown.
type ScoredPrediction struct {
	Prediction domain.Prediction
	Match      *domain.Match
	Points     *int
}

// Submit stores a prediction if its gameweek is still open. The deadline is
// checked against fresh fixtures on every call.
func (s *PredictionService) Submit(ctx context.Context, userID int64, in SubmitInput) (*domain.Prediction, error) {
	p, err := domain.NewPrediction(userID, in.MatchID, in.HomeScore, in.AwayScore, in.IsDoubler, in.Gameweek)
	if err != nil {
		return nil, err
	}

	view, err := s.fixtures.Gameweek(ctx, in.Gameweek)
	if err != nil {
		return nil, err
	}

	found := false
	for _, m := range view.Matches {
		if m.ID == in.MatchID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: match %d is not in gameweek %d", domain.ErrUnknownMatch, in.MatchID, in.Gameweek)
	}

	if !view.CanPredict {
		s.logger.Info().
			Int64("user_id", userID).
			Int("gameweek", in.Gameweek).
			Time("deadline", view.Deadline).
			Msg("prediction rejected after deadline")
		return nil, domain.ErrDeadlinePassed
	}

	saved, err := s.predictions.Save(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", userID).
		Int64("match_id", in.MatchID).
		Int("gameweek", in.Gameweek).
		Bool("doubler", in.IsDoubler).
		Msg("prediction submitted")
	return saved, nil
}

func (s *PredictionService) ListForUser(ctx context.Context, userID int64, gw int) ([]ScoredPrediction, error) {
	predictions, err := s.predictions.ListByUser(ctx, userID, gw)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	matches, err := s.fixtures.Matches(ctx, gw)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}

	out := make([]ScoredPrediction, 0, len(predictions))
	for _, p := range predictions {
		sp := ScoredPrediction{Prediction: p}
		if m, ok := byID[p.MatchID]; ok {
			sp.Match = &m
			if m.Finished() {
				pts := scoring.Points(p, m)
				sp.Points = &pts
			}
		}
		out = append(out, sp)
	}
	return out, nil
}

// Doubler returns the designated match for a gameweek, ok false when none.
func (s *PredictionService) Doubler(ctx context.Context, userID int64, gw int) (matchID int64, ok bool, err error) {
	d, err := s.doublers.Get(ctx, userID, gw)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return d.MatchID, true, nil
}
