package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pl-predictions/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type PredictionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPredictionRepository(sqlDB *sql.DB, logger zerolog.Logger) *PredictionRepository {
	return &PredictionRepository{db: sqlDB, logger: logger}
}

// Save upserts a prediction keyed by (user, match) and keeps the gameweek's
// doubler consistent in the same transaction. Flagging a match moves the
// doubler there and clears the flag on the user's other predictions;
// unflagging the designated match removes the doubler.
func (r *PredictionRepository) Save(ctx context.Context, p domain.Prediction) (*domain.Prediction, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate prediction id: %w", err)
	}
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO predictions (id, user_id, match_id, home_score, away_score, is_doubler, gameweek, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT (user_id, match_id) DO UPDATE SET
		     home_score = excluded.home_score,
		     away_score = excluded.away_score,
		     is_doubler = excluded.is_doubler,
		     gameweek = excluded.gameweek,
		     updated_at = excluded.updated_at`,
		id, p.UserID, p.MatchID, p.HomeScore, p.AwayScore, p.IsDoubler, p.Gameweek, now,
	)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", p.UserID).Int64("match_id", p.MatchID).Msg("failed to upsert prediction")
		return nil, fmt.Errorf("upsert prediction: %w", err)
	}

	if p.IsDoubler {
		err = setDoubler(ctx, tx, p.UserID, p.Gameweek, p.MatchID, now)
	} else {
		err = releaseDoubler(ctx, tx, p.UserID, p.Gameweek, p.MatchID)
	}
	if err != nil {
		return nil, err
	}

	saved, err := scanPrediction(tx.QueryRowContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE user_id = $1 AND match_id = $2`,
		p.UserID, p.MatchID))
	if err != nil {
		return nil, fmt.Errorf("reload prediction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("prediction_id", saved.ID).
		Int64("user_id", saved.UserID).
		Int64("match_id", saved.MatchID).
		Bool("doubler", saved.IsDoubler).
		Msg("prediction saved")
	return saved, nil
}

const predictionColumns = `id, user_id, match_id, home_score, away_score, is_doubler, gameweek, created_at, updated_at`

func scanPrediction(s scanner) (*domain.Prediction, error) {
	var p domain.Prediction
	err := s.Scan(&p.ID, &p.UserID, &p.MatchID, &p.HomeScore, &p.AwayScore, &p.IsDoubler, &p.Gameweek, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func queryPredictions(ctx context.Context, q querier, query string, args ...any) ([]domain.Prediction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := []domain.Prediction{}
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, *p)
	}
	return predictions, rows.Err()
}

// ListByUser returns a user's predictions, optionally limited to one
// gameweek (0 means all).
func (r *PredictionRepository) ListByUser(ctx context.Context, userID int64, gameweek int) ([]domain.Prediction, error) {
	if gameweek == 0 {
		return queryPredictions(ctx, r.db,
			`SELECT `+predictionColumns+` FROM predictions WHERE user_id = $1 ORDER BY gameweek, match_id`, userID)
	}
	return queryPredictions(ctx, r.db,
		`SELECT `+predictionColumns+` FROM predictions WHERE user_id = $1 AND gameweek = $2 ORDER BY match_id`,
		userID, gameweek)
}

func (r *PredictionRepository) ListAll(ctx context.Context) ([]domain.Prediction, error) {
	return queryPredictions(ctx, r.db,
		`SELECT `+predictionColumns+` FROM predictions ORDER BY user_id, match_id`)
}
