// Package database opens the shared *sql.DB pool and propagates transactions
// through context so repositories stay driver-agnostic.
package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	apperrors "github.com/allisson/identity/internal/errors"
)

// Config carries the pool settings for Connect. Driver is the database/sql
// driver name, "postgres" or "mysql".
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// Connect opens the pool, applies the connection limits and verifies the
// server is reachable before handing the pool to the caller.
func Connect(cfg Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(err, "failed to ping database")
	}

	return db, nil
}
