package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pl-predictions/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

const (
	FixtureSourceSimulated = "simulated"
	FixtureSourceLive      = "live"
)

type Config struct {
	ServerPort  string
	LogLevel    string
	CORSOrigins []string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	JWTSecret  string
	AdminToken string

	FixtureSource   string
	FootballAPIKey  string
	FootballSeason  string
	FixtureCacheTTL time.Duration

	SimSeed              uint64
	SimFinishedGameweeks int
	SimSeasonStart       time.Time

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	apiKey := getEnv("FOOTBALL_API_KEY", "")
	defaultSource := FixtureSourceSimulated
	if apiKey != "" {
		defaultSource = FixtureSourceLive
	}

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DBDriver:       getEnv("DB_DRIVER", DriverSQLite),
		DBPath:         getEnv("DB_PATH", "predictions.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),
		FixtureSource:  strings.ToLower(getEnv("FIXTURE_SOURCE", defaultSource)),
		FootballAPIKey: apiKey,
		FootballSeason: getEnv("FOOTBALL_SEASON", "2025"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
	}

	var err error
	if cfg.FixtureCacheTTL, err = getDuration("FIXTURE_CACHE_TTL", constants.FixtureCacheTTL); err != nil {
		return nil, err
	}
	if cfg.SimSeed, err = getUint("SIM_SEED", 2025); err != nil {
		return nil, err
	}
	if cfg.SimFinishedGameweeks, err = getInt("SIM_FINISHED_GAMEWEEKS", 5); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if raw := getEnv("SIM_SEASON_START", ""); raw != "" {
		if cfg.SimSeasonStart, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, fmt.Errorf("invalid SIM_SEASON_START: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		cfg.JWTSecret = hex.EncodeToString(secret)
		logger.Warn().Msg("JWT_SECRET not set, generated an ephemeral secret; tokens will not survive restarts")
	}

	logger.Info().
		Str("db_driver", cfg.DBDriver).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("fixture_source", cfg.FixtureSource).
		Dur("fixture_cache_ttl", cfg.FixtureCacheTTL).
		Bool("ranking_mirror", cfg.RedisAddr != "").
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.FixtureSource {
	case FixtureSourceSimulated:
	case FixtureSourceLive:
		if c.FootballAPIKey == "" {
			return fmt.Errorf("FOOTBALL_API_KEY is required when FIXTURE_SOURCE is live")
		}
	default:
		return fmt.Errorf("unsupported FIXTURE_SOURCE %q", c.FixtureSource)
	}

	if c.SimFinishedGameweeks < 0 || c.SimFinishedGameweeks > constants.SeasonGameweeks {
		return fmt.Errorf("SIM_FINISHED_GAMEWEEKS must be between 0 and %d", constants.SeasonGameweeks)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getUint(key string, fallback uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
