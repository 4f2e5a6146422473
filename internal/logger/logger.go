package logger

import (
	"os"

	"pl-predictions/internal/config"

	"github.com/rs/zerolog"
)

func New() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()
}

// ApplyLevel sets the process-wide level once the configuration is known.
// Loggers handed out before config load share the global threshold.
func ApplyLevel(cfg *config.Config, logger zerolog.Logger) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		logger.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, falling back to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger.Debug().Str("level", level.String()).Msg("log level applied")
}
