// Package repository implements access key persistence for PostgreSQL and
// MySQL.
//
// Listing never loads secret material; the salted hash leaves storage only
// through the single-key lookup used for validation.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	accessKeyDomain "github.com/allisson/identity/internal/accesskey/domain"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
)

// PostgreSQLAccessKeyRepository implements access key persistence for PostgreSQL.
type PostgreSQLAccessKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLAccessKeyRepository creates a new PostgreSQL access key repository.
func NewPostgreSQLAccessKeyRepository(db *sql.DB) *PostgreSQLAccessKeyRepository {
	return &PostgreSQLAccessKeyRepository{db: db}
}

// Create inserts a new access key.
func (p *PostgreSQLAccessKeyRepository) Create(
	ctx context.Context,
	accessKey *accessKeyDomain.AccessKey,
) error {
	querier := database.GetTx(ctx, p.db)

	scopesJSON, err := json.Marshal(accessKey.Scopes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal access key scopes")
	}

	query := `INSERT INTO access_keys (id, user_id, name, access_key, secret_hash, secret_salt,
				scopes, expiry_date, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = querier.ExecContext(
		ctx,
		query,
		accessKey.ID,
		accessKey.UserID,
		accessKey.Name,
		accessKey.Key,
		accessKey.Secret.Hash,
		accessKey.Secret.Salt,
		scopesJSON,
		accessKey.ExpiryDate,
		accessKey.CreatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "access key already exists")
		}
		return apperrors.Wrap(err, "failed to create access key")
	}
	return nil
}

// GetActiveByKey retrieves a non-expired access key by its unique key,
// including the secret material needed for validation.
func (p *PostgreSQLAccessKeyRepository) GetActiveByKey(
	ctx context.Context,
	key string,
	now time.Time,
) (*accessKeyDomain.AccessKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, name, access_key, secret_hash, secret_salt, scopes, expiry_date, created_at
			  FROM access_keys
			  WHERE access_key = $1 AND (expiry_date IS NULL OR expiry_date > $2)`

	accessKey, err := scanAccessKey(querier.QueryRowContext(ctx, query, key, now), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accessKeyDomain.ErrAccessKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get access key")
	}
	return accessKey, nil
}

// ListByUserID retrieves the user's access keys ordered by creation time.
// Secret material stays out of the result.
func (p *PostgreSQLAccessKeyRepository) ListByUserID(
	ctx context.Context,
	userID uuid.UUID,
) ([]*accessKeyDomain.AccessKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, name, access_key, scopes, expiry_date, created_at
			  FROM access_keys WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access keys")
	}
	defer func() { _ = rows.Close() }()

	return collectAccessKeys(rows)
}

// Delete removes an access key by its key. Deleting an unknown key is a no-op.
func (p *PostgreSQLAccessKeyRepository) Delete(ctx context.Context, key string) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM access_keys WHERE access_key = $1`

	if _, err := querier.ExecContext(ctx, query, key); err != nil {
		return apperrors.Wrap(err, "failed to delete access key")
	}
	return nil
}

// scanAccessKey reads one access key row; withSecret selects the column set.
func scanAccessKey(row rowScanner, withSecret bool) (*accessKeyDomain.AccessKey, error) {
	var (
		accessKey  accessKeyDomain.AccessKey
		scopesJSON []byte
		expiryDate sql.NullTime
	)

	dest := []any{&accessKey.ID, &accessKey.UserID, &accessKey.Name, &accessKey.Key}
	if withSecret {
		dest = append(dest, &accessKey.Secret.Hash, &accessKey.Secret.Salt)
	}
	dest = append(dest, &scopesJSON, &expiryDate, &accessKey.CreatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(scopesJSON, &accessKey.Scopes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal access key scopes")
	}
	if expiryDate.Valid {
		accessKey.ExpiryDate = &expiryDate.Time
	}
	return &accessKey, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan helper.
type rowScanner interface {
	Scan(dest ...any) error
}

// collectAccessKeys drains rows into a slice.
func collectAccessKeys(rows *sql.Rows) ([]*accessKeyDomain.AccessKey, error) {
	accessKeys := []*accessKeyDomain.AccessKey{}
	for rows.Next() {
		accessKey, err := scanAccessKey(rows, false)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan access key")
		}
		accessKeys = append(accessKeys, accessKey)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate access keys")
	}
	return accessKeys, nil
}

// isPgUniqueViolation reports whether err is a unique constraint violation.
func isPgUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
