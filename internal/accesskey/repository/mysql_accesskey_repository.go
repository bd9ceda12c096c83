package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	accessKeyDomain "github.com/allisson/identity/internal/accesskey/domain"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
)

// MySQLAccessKeyRepository implements access key persistence for MySQL.
type MySQLAccessKeyRepository struct {
	db *sql.DB
}

// NewMySQLAccessKeyRepository creates a new MySQL access key repository.
func NewMySQLAccessKeyRepository(db *sql.DB) *MySQLAccessKeyRepository {
	return &MySQLAccessKeyRepository{db: db}
}

// Create inserts a new access key.
func (m *MySQLAccessKeyRepository) Create(
	ctx context.Context,
	accessKey *accessKeyDomain.AccessKey,
) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := accessKey.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal access key id")
	}
	userIDBytes, err := accessKey.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal access key user id")
	}
	scopesJSON, err := json.Marshal(accessKey.Scopes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal access key scopes")
	}

	query := `INSERT INTO access_keys (id, user_id, name, access_key, secret_hash, secret_salt,
				scopes, expiry_date, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		userIDBytes,
		accessKey.Name,
		accessKey.Key,
		accessKey.Secret.Hash,
		accessKey.Secret.Salt,
		scopesJSON,
		accessKey.ExpiryDate,
		accessKey.CreatedAt,
	)
	if err != nil {
		if isMySQLDuplicate(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "access key already exists")
		}
		return apperrors.Wrap(err, "failed to create access key")
	}
	return nil
}

// GetActiveByKey retrieves a non-expired access key by its unique key,
// including the secret material needed for validation.
func (m *MySQLAccessKeyRepository) GetActiveByKey(
	ctx context.Context,
	key string,
	now time.Time,
) (*accessKeyDomain.AccessKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, name, access_key, secret_hash, secret_salt, scopes, expiry_date, created_at
			  FROM access_keys
			  WHERE access_key = ? AND (expiry_date IS NULL OR expiry_date > ?)`

	accessKey, err := scanMySQLAccessKey(querier.QueryRowContext(ctx, query, key, now), true)
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
func (m *MySQLAccessKeyRepository) ListByUserID(
	ctx context.Context,
	userID uuid.UUID,
) ([]*accessKeyDomain.AccessKey, error) {
	querier := database.GetTx(ctx, m.db)

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal access key user id")
	}

	query := `SELECT id, user_id, name, access_key, scopes, expiry_date, created_at
			  FROM access_keys WHERE user_id = ? ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, userIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access keys")
	}
	defer func() { _ = rows.Close() }()

	accessKeys := []*accessKeyDomain.AccessKey{}
	for rows.Next() {
		accessKey, err := scanMySQLAccessKey(rows, false)
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

// Delete removes an access key by its key. Deleting an unknown key is a no-op.
func (m *MySQLAccessKeyRepository) Delete(ctx context.Context, key string) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM access_keys WHERE access_key = ?`

	if _, err := querier.ExecContext(ctx, query, key); err != nil {
		return apperrors.Wrap(err, "failed to delete access key")
	}
	return nil
}

// scanMySQLAccessKey reads one access key row, decoding the BINARY(16) ids;
// withSecret selects the column set.
func scanMySQLAccessKey(row rowScanner, withSecret bool) (*accessKeyDomain.AccessKey, error) {
	var (
		accessKey   accessKeyDomain.AccessKey
		idBytes     []byte
		userIDBytes []byte
		scopesJSON  []byte
		expiryDate  sql.NullTime
	)

	dest := []any{&idBytes, &userIDBytes, &accessKey.Name, &accessKey.Key}
	if withSecret {
		dest = append(dest, &accessKey.Secret.Hash, &accessKey.Secret.Salt)
	}
	dest = append(dest, &scopesJSON, &expiryDate, &accessKey.CreatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal access key id")
	}
	accessKey.ID = id

	userID, err := uuid.FromBytes(userIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal access key user id")
	}
	accessKey.UserID = userID

	if err := json.Unmarshal(scopesJSON, &accessKey.Scopes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal access key scopes")
	}
	if expiryDate.Valid {
		accessKey.ExpiryDate = &expiryDate.Time
	}
	return &accessKey, nil
}

// isMySQLDuplicate reports whether err is a MySQL duplicate entry error.
func isMySQLDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
