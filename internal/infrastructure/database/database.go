// Package database provides the SQLite/libsql connection layer.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alumnet/alumnet-go/pkg/config"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Database wraps the shared connection pool for the AlumNet store.
type Database struct {
	Conn     *sql.DB
	UseTurso bool
}

// NewDatabase opens the configured database. Libsql is preferred when a URL
// and token are configured, otherwise a local SQLite file is used.
func NewDatabase() (*Database, error) {
	var conn *sql.DB
	var err error
	var useTurso bool

	if config.LibsqlURL != "" && config.LibsqlToken != "" {
		connStr := config.LibsqlURL + "?authToken=" + config.LibsqlToken
		conn, err = sql.Open("libsql", connStr)
		if err != nil {
			return nil, fmt.Errorf("libsql connection failed: %w", err)
		}
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("libsql ping failed: %w", err)
		}
		useTurso = true
	} else {
		dbDir := filepath.Dir(config.SQLitePath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		conn, err = sql.Open("sqlite3", config.SQLitePath+"?_foreign_keys=on&_journal_mode=WAL")
		if err != nil {
			return nil, fmt.Errorf("sqlite connection failed: %w", err)
		}
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite ping failed: %w", err)
		}
	}

	conn.SetMaxOpenConns(config.DBMaxOpenConns)
	conn.SetMaxIdleConns(config.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(config.DBConnMaxIdleMinutes) * time.Minute)

	return &Database{Conn: conn, UseTurso: useTurso}, nil
}

func (db *Database) Close() error {
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

// GetConnectionInfo describes the active backend for startup logging.
func (db *Database) GetConnectionInfo() string {
	if db.UseTurso {
		return "Turso (libsql)"
	}
	return fmt.Sprintf("SQLite (%s)", config.SQLitePath)
}

// GetPoolInfo reports connection pool statistics for the ops dashboard.
func (db *Database) GetPoolInfo() map[string]any {
	stats := db.Conn.Stats()
	return map[string]any{
		"healthy":      db.Conn.Ping() == nil,
		"maxOpen":      stats.MaxOpenConnections,
		"open":         stats.OpenConnections,
		"inUse":        stats.InUse,
		"idle":         stats.Idle,
		"waitCount":    stats.WaitCount,
		"waitDuration": stats.WaitDuration.String(),
	}
}
