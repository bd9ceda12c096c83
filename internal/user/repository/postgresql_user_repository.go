// Package repository implements user persistence for PostgreSQL and MySQL.
//
// Every mutation is a single conditional statement so concurrent updates
// cannot lose each other's writes; the PostgreSQL variants use RETURNING to
// hand back the post-update row.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	userDomain "github.com/allisson/identity/internal/user/domain"
)

const userColumns = `id, username, name, email, phone, roles, password_hash, password_salt,
	is_active, is_approved, reset_token, reset_token_expiry, created_at, updated_at`

// PostgreSQLUserRepository implements user persistence for PostgreSQL.
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQL user repository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// Create inserts a new user.
func (p *PostgreSQLUserRepository) Create(ctx context.Context, user *userDomain.User) error {
	querier := database.GetTx(ctx, p.db)

	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user roles")
	}

	query := `INSERT INTO users (id, username, name, email, phone, roles, password_hash,
				password_salt, is_active, is_approved, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	_, err = querier.ExecContext(
		ctx,
		query,
		user.ID,
		user.Username,
		user.Name,
		user.Email,
		nullString(user.Phone),
		rolesJSON,
		user.Credential.Hash,
		user.Credential.Salt,
		user.IsActive,
		user.IsApproved,
		user.CreatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return userDomain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by id.
func (p *PostgreSQLUserRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}
	return user, nil
}

// GetByUsername retrieves a user by username.
func (p *PostgreSQLUserRepository) GetByUsername(
	ctx context.Context,
	username string,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(querier.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}
	return user, nil
}

// List retrieves users ordered by username ascending with pagination.
func (p *PostgreSQLUserRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*userDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + userColumns + ` FROM users ORDER BY username ASC OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	return collectUsers(rows)
}

// UpdateRoles replaces the user's role assignment and returns the updated row.
func (p *PostgreSQLUserRepository) UpdateRoles(
	ctx context.Context,
	id uuid.UUID,
	roles []string,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user roles")
	}

	query := `UPDATE users SET roles = $1, updated_at = NOW()
			  WHERE id = $2
			  RETURNING ` + userColumns

	user, err := scanUser(querier.QueryRowContext(ctx, query, rolesJSON, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to update user roles")
	}
	return user, nil
}

// SetActive flips the account's active flag.
func (p *PostgreSQLUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return p.setFlag(ctx, `UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`, id, active)
}

// SetApproved flips the account's approved flag.
func (p *PostgreSQLUserRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return p.setFlag(ctx, `UPDATE users SET is_approved = $1, updated_at = NOW() WHERE id = $2`, id, approved)
}

func (p *PostgreSQLUserRepository) setFlag(
	ctx context.Context,
	query string,
	id uuid.UUID,
	value bool,
) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, query, value, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user status")
	}
	return requireOneRow(result, userDomain.ErrUserNotFound)
}

// UpdateCredential replaces the stored credential of an active user.
func (p *PostgreSQLUserRepository) UpdateCredential(
	ctx context.Context,
	id uuid.UUID,
	credential cryptoDomain.Credential,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE users SET password_hash = $1, password_salt = $2, updated_at = NOW()
			  WHERE id = $3 AND is_active = true`

	result, err := querier.ExecContext(ctx, query, credential.Hash, credential.Salt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user credential")
	}
	return requireOneRow(result, userDomain.ErrUserNotFound)
}

// SetResetToken stores a pending reset token and its expiry on the user.
func (p *PostgreSQLUserRepository) SetResetToken(
	ctx context.Context,
	id uuid.UUID,
	token string,
	expiry time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE users SET reset_token = $1, reset_token_expiry = $2, updated_at = NOW()
			  WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, token, expiry, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to set reset token")
	}
	return requireOneRow(result, userDomain.ErrUserNotFound)
}

// GetByResetToken retrieves the user holding a non-expired reset token.
func (p *PostgreSQLUserRepository) GetByResetToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + userColumns + ` FROM users
			  WHERE reset_token = $1 AND reset_token_expiry > $2`

	user, err := scanUser(querier.QueryRowContext(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userDomain.ErrResetTokenInvalid
		}
		return nil, apperrors.Wrap(err, "failed to get user by reset token")
	}
	return user, nil
}

// ConsumeResetToken replaces the credential of the active user holding a
// non-expired reset token and clears the token, all in one statement. The
// token is single-use: a second consumption matches no rows.
func (p *PostgreSQLUserRepository) ConsumeResetToken(
	ctx context.Context,
	token string,
	credential cryptoDomain.Credential,
	now time.Time,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE users SET password_hash = $1, password_salt = $2,
				reset_token = NULL, reset_token_expiry = NULL, updated_at = NOW()
			  WHERE reset_token = $3 AND reset_token_expiry > $4 AND is_active = true
			  RETURNING ` + userColumns

	user, err := scanUser(querier.QueryRowContext(ctx, query, credential.Hash, credential.Salt, token, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userDomain.ErrResetTokenInvalid
		}
		return nil, apperrors.Wrap(err, "failed to consume reset token")
	}
	return user, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan helper.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads one user row.
func scanUser(row rowScanner) (*userDomain.User, error) {
	var (
		user             userDomain.User
		phone            sql.NullString
		rolesJSON        []byte
		resetToken       sql.NullString
		resetTokenExpiry sql.NullTime
	)

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Email,
		&phone,
		&rolesJSON,
		&user.Credential.Hash,
		&user.Credential.Salt,
		&user.IsActive,
		&user.IsApproved,
		&resetToken,
		&resetTokenExpiry,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user roles")
	}
	user.Phone = phone.String
	if resetToken.Valid {
		user.ResetToken = &resetToken.String
	}
	if resetTokenExpiry.Valid {
		user.ResetTokenExpiry = &resetTokenExpiry.Time
	}
	return &user, nil
}

// collectUsers drains rows into a slice.
func collectUsers(rows *sql.Rows) ([]*userDomain.User, error) {
	users := []*userDomain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate users")
	}
	return users, nil
}

// requireOneRow maps a zero-row update to the provided domain error.
func requireOneRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

// nullString maps an empty string to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isPgUniqueViolation reports whether err is a PostgreSQL unique violation.
func isPgUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
