package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pl-predictions/internal/domain"

	"github.com/rs/zerolog"
)

// ResultRepository stores admin-entered final scores.
type ResultRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewResultRepository(sqlDB *sql.DB, logger zerolog.Logger) *ResultRepository {
	return &ResultRepository{db: sqlDB, logger: logger}
}

func (r *ResultRepository) Upsert(ctx context.Context, result domain.MatchResult) (*domain.MatchResult, error) {
	if result.UpdatedAt.IsZero() {
		result.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO match_results (match_id, home_score, away_score, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (match_id) DO UPDATE SET
		     home_score = excluded.home_score,
		     away_score = excluded.away_score,
		     updated_at = excluded.updated_at`,
		result.MatchID, result.HomeScore, result.AwayScore, result.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Int64("match_id", result.MatchID).Msg("failed to store match result")
		return nil, fmt.Errorf("upsert match result: %w", err)
	}
	return &result, nil
}

func (r *ResultRepository) List(ctx context.Context) ([]domain.MatchResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, home_score, away_score, updated_at FROM match_results ORDER BY match_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.MatchResult{}
	for rows.Next() {
		var res domain.MatchResult
		if err := rows.Scan(&res.MatchID, &res.HomeScore, &res.AwayScore, &res.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
