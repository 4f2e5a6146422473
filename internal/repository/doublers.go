package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pl-predictions/internal/domain"

	"github.com/rs/zerolog"
)

type DoublerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewDoublerRepository(sqlDB *sql.DB, logger zerolog.Logger) *DoublerRepository {
	return &DoublerRepository{db: sqlDB, logger: logger}
}

func setDoubler(ctx context.Context, q querier, userID int64, gameweek int, matchID int64, now time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO doublers (user_id, gameweek, match_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, gameweek) DO UPDATE SET
		     match_id = excluded.match_id,
		     created_at = excluded.created_at`,
		userID, gameweek, matchID, now)
	if err != nil {
		return fmt.Errorf("set doubler: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`UPDATE predictions SET is_doubler = (match_id = $1) WHERE user_id = $2 AND gameweek = $3`,
		matchID, userID, gameweek)
	if err != nil {
		return fmt.Errorf("move doubler flag: %w", err)
	}
	return nil
}

// releaseDoubler drops the gameweek's doubler only if it points at matchID.
func releaseDoubler(ctx context.Context, q querier, userID int64, gameweek int, matchID int64) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM doublers WHERE user_id = $1 AND gameweek = $2 AND match_id = $3`,
		userID, gameweek, matchID)
	if err != nil {
		return fmt.Errorf("release doubler: %w", err)
	}
	return nil
}

func (r *DoublerRepository) Get(ctx context.Context, userID int64, gameweek int) (*domain.Doubler, error) {
	var d domain.Doubler
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, gameweek, match_id, created_at FROM doublers WHERE user_id = $1 AND gameweek = $2`,
		userID, gameweek,
	).Scan(&d.UserID, &d.Gameweek, &d.MatchID, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DoublerRepository) ListAll(ctx context.Context) ([]domain.Doubler, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, gameweek, match_id, created_at FROM doublers ORDER BY user_id, gameweek`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doublers := []domain.Doubler{}
	for rows.Next() {
		var d domain.Doubler
		if err := rows.Scan(&d.UserID, &d.Gameweek, &d.MatchID, &d.CreatedAt); err != nil {
			return nil, err
		}
		doublers = append(doublers, d)
	}
	return doublers, rows.Err()
}
