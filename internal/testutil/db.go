// Package testutil holds helpers shared by package tests.
package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"pl-predictions/internal/config"
	"pl-predictions/internal/database"

	"github.com/rs/zerolog"
)

// NewDB returns a migrated SQLite database in a temp dir, closed on cleanup.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)

	db, err := database.Open(config.DriverSQLite, dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func IntPtr(v int) *int { return &v }
