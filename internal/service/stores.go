package service

import (
	"context"

	"pl-predictions/internal/domain"
)

// Persistence seams. The repository package provides the SQL implementations.

type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateScores(ctx context.Context, scores map[int64]int) error
}

type PredictionStore interface {
	Save(ctx context.Context, p domain.Prediction) (*domain.Prediction, error)
	ListByUser(ctx context.Context, userID int64, gameweek int) ([]domain.Prediction, error)
	ListAll(ctx context.Context) ([]domain.Prediction, error)
}

type DoublerStore interface {
	Get(ctx context.Context, userID int64, gameweek int) (*domain.Doubler, error)
	ListAll(ctx context.Context) ([]domain.Doubler, error)
}

type ResultStore interface {
	Upsert(ctx context.Context, result domain.MatchResult) (*domain.MatchResult, error)
	List(ctx context.Context) ([]domain.MatchResult, error)
}
