package constants

import "time"

const (
	PredictionDeadlineOffset = 12 * time.Hour
	SeasonGameweeks          = 38
	MatchesPerGameweek       = 10
	MaxUsernameLength        = 32
)

const (
	FixtureCacheTTL    = 5 * time.Minute
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	LeaderboardTimeout = 20 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	TokenTTL   = 30 * 24 * time.Hour
	BcryptCost = 10
)

const (
	WSWriteTimeout = 10 * time.Second
	WSPongWait     = 60 * time.Second
	WSPingPeriod   = (WSPongWait * 9) / 10
	WSSendBuffer   = 16
)
