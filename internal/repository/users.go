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

type UserRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserRepository(sqlDB *sql.DB, logger zerolog.Logger) *UserRepository {
	return &UserRepository{db: sqlDB, logger: logger}
}

func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	user := &domain.User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, score, created_at)
		 VALUES ($1, $2, 0, $3)
		 RETURNING id`,
		user.Username, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)
	if isUniqueViolation(err) {
		return nil, domain.ErrUsernameTaken
	}
	if err != nil {
		r.logger.Error().Err(err).Str("username", username).Msg("failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	r.logger.Debug().Int64("user_id", user.ID).Str("username", username).Msg("user created")
	return user, nil
}

const userColumns = `id, username, password_hash, score, created_at`

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Score, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return u, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return u, err
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateScores writes all scores in one transaction.
func (r *UserRepository) UpdateScores(ctx context.Context, scores map[int64]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE users SET score = $1 WHERE id = $2`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for userID, score := range scores {
		if _, err := stmt.ExecContext(ctx, score, userID); err != nil {
			r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to update score")
			return fmt.Errorf("update score for user %d: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	r.logger.Debug().Int("users", len(scores)).Msg("scores updated")
	return nil
}
