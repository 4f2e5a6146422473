package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"pl-predictions/internal/config"
	"pl-predictions/internal/constants"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

func New(cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	dsn := cfg.DatabaseURL
	if cfg.DBDriver == config.DriverSQLite {
		// per-connection settings go in the DSN so every pooled conn gets them
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", cfg.DBPath)
		logger.Info().Str("driver", cfg.DBDriver).Str("path", cfg.DBPath).Msg("connecting to database")
	} else {
		logger.Info().Str("driver", cfg.DBDriver).Msg("connecting to database")
	}

	db, err := Open(cfg.DBDriver, dsn, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().Msg("database connection established and optimized")
	return db, nil
}

// Open connects with the given driver, tunes the pool and applies migrations.
func Open(driver, dsn string, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(constants.DBMaxOpenConns)
	db.SetMaxIdleConns(constants.DBMaxIdleConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == config.DriverSQLite {
		if err := optimizeSQLite(db, logger); err != nil {
			db.Close()
			logger.Error().Err(err).Msg("failed to optimize SQLite")
			return nil, fmt.Errorf("failed to optimize SQLite: %w", err)
		}
	}
	if err := runMigrations(db, driver, logger); err != nil {
		db.Close()
		logger.Error().Err(err).Msg("failed to run migrations")
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func runMigrations(db *sql.DB, dialect string, logger zerolog.Logger) error {
	migrations, err := fs.Sub(embedMigrations, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("no migrations for dialect %s: %w", dialect, err)
	}

	provider, err := goose.NewProvider(goose.Dialect(dialect), db, migrations)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(context.Background())
	if err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	for _, r := range results {
		logger.Debug().Int64("version", r.Source.Version).Dur("took", r.Duration).Msg("applied migration")
	}
	logger.Info().Int("applied", len(results)).Str("dialect", dialect).Msg("migrations completed successfully")
	return nil
}

func optimizeSQLite(sqlDB *sql.DB, logger zerolog.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"cache_size", "-64000"},
		{"temp_store", "MEMORY"},
		{"mmap_size", "268435456"}, // 256MB https://sqlite.org/mmap.html
	}

	for _, pragma := range pragmas {
		query := fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)
		if _, err := sqlDB.Exec(query); err != nil {
			logger.Warn().
				Err(err).
				Str("pragma", pragma.name).
				Str("value", pragma.value).
				Msg("failed to set pragma")
			return fmt.Errorf("failed to set PRAGMA %s: %w", pragma.name, err)
		}
		logger.Debug().
			Str("pragma", pragma.name).
			Str("value", pragma.value).
			Msg("SQLite pragma set")
	}

	return nil
}
