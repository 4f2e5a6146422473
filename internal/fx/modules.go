package fx

import (
	"pl-predictions/internal/api"
	"pl-predictions/internal/config"
	"pl-predictions/internal/database"
	"pl-predictions/internal/fixtures"
	"pl-predictions/internal/logger"
	"pl-predictions/internal/ranking"
	"pl-predictions/internal/realtime"
	"pl-predictions/internal/repository"
	"pl-predictions/internal/server"
	"pl-predictions/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Invoke(logger.ApplyLevel),
	fx.Provide(database.New),
	// repos
	fx.Provide(
		fx.Annotate(repository.NewUserRepository, fx.As(new(service.UserStore))),
		fx.Annotate(repository.NewPredictionRepository, fx.As(new(service.PredictionStore))),
		fx.Annotate(repository.NewDoublerRepository, fx.As(new(service.DoublerStore))),
		fx.Annotate(repository.NewResultRepository, fx.As(new(service.ResultStore))),
	),
	// fixtures
	fx.Provide(api.NewFootballDataClient),
	fx.Provide(fixtures.NewProvider),
	// ranking mirror + realtime
	fx.Provide(ranking.NewPublisher),
	fx.Provide(realtime.NewHub),
	// svc
	fx.Provide(service.NewAuthService),
	fx.Provide(service.NewFixtureService),
	fx.Provide(service.NewPredictionService),
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(service.NewResultService),
	// server
	fx.Provide(server.NewPredictionServer),
	fx.Provide(server.NewRouter),
)
