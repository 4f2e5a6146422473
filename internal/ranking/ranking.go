// Package ranking mirrors the computed leaderboard into Redis so other
// readers can query ranks without touching the database.
package ranking

import (
	"context"
	"fmt"

	"pl-predictions/internal/config"
	"pl-predictions/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	ScoresKey      = "leaderboard:scores"
	PredictionsKey = "leaderboard:predictions"
)

type Publisher interface {
	Publish(ctx context.Context, entries []domain.LeaderboardEntry) error
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Publish(context.Context, []domain.LeaderboardEntry) error { return nil }

type Redis struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

func NewRedis(rdb *redis.Client, logger zerolog.Logger) *Redis {
	return &Redis{rdb: rdb, logger: logger}
}

// Publish replaces both keys in one MULTI/EXEC so readers never see a
// half-written ranking.
func (r *Redis) Publish(ctx context.Context, entries []domain.LeaderboardEntry) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, ScoresKey, PredictionsKey)

	if len(entries) > 0 {
		members := make([]redis.Z, 0, len(entries))
		counts := make(map[string]any, len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{Score: float64(e.Score), Member: e.Username})
			counts[e.Username] = e.PredictionCount
		}
		pipe.ZAdd(ctx, ScoresKey, members...)
		pipe.HSet(ctx, PredictionsKey, counts)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish ranking: %w", err)
	}
	r.logger.Debug().Int("entries", len(entries)).Msg("ranking mirrored to redis")
	return nil
}

func NewPublisher(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) Publisher {
	if cfg.RedisAddr == "" {
		logger.Info().Msg("REDIS_ADDR not set, ranking mirror disabled")
		return Noop{}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				// the mirror is optional; publishing will keep logging failures
				logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
				return nil
			}
			logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})

	return NewRedis(rdb, logger)
}
