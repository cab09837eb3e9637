package feed

import (
	"database/sql"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alumnet/alumnet-go/internal/infrastructure/database"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
)

// newTestDB opens an in-memory database with the full schema. The pool is
// pinned to one connection so every statement sees the same memory database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := database.NewTableCreator().CreateSchema(db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelError,
	})
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}
	return logger
}

// fixedClock returns a settable clock for repositories under test.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now },
		func(d time.Duration) { now = now.Add(d) }
}
