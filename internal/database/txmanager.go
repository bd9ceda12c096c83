package database

import (
	"context"
	"database/sql"

	apperrors "github.com/allisson/identity/internal/errors"
)

// txKey keys the active transaction in a context.
type txKey struct{}

// Querier is the query surface shared by *sql.DB and *sql.Tx. Repositories
// run every statement through it so the same method works inside and outside
// a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager runs a function inside a single database transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type sqlTxManager struct {
	db *sql.DB
}

// NewTxManager wraps the pool in a TxManager.
func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

// WithTx begins a transaction, stashes it in the context passed to fn, and
// commits when fn succeeds. Any error from fn rolls the transaction back and
// is returned unchanged so sentinel checks still work at the call site.
func (m *sqlTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, "failed to begin transaction")
	}

	ctx = context.WithValue(ctx, txKey{}, tx)

	if err := fn(ctx); err != nil {
		// The caller matches sentinels on this error, so the rollback result
		// must not displace it.
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// GetTx returns the transaction carried by ctx, falling back to the pool when
// the caller is not running inside WithTx.
func GetTx(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}
