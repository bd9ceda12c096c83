package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	userDomain "github.com/allisson/identity/internal/user/domain"
)

// MySQLUserRepository implements user persistence for MySQL.
// Uses BINARY(16) for UUID storage. MySQL has no RETURNING clause, so
// mutations that must hand back the post-update row re-read it; callers run
// those inside a transaction when read-modify-write atomicity matters.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQL user repository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new user.
func (m *MySQLUserRepository) Create(ctx context.Context, user *userDomain.User) error {
	querier := database.GetTx(ctx, m.db)

	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user roles")
	}

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO users (id, username, name, email, phone, roles, password_hash,
				password_salt, is_active, is_approved, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
		user.CreatedAt,
	)
	if err != nil {
		if isMySQLDuplicate(err) {
			return userDomain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by id.
func (m *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	return m.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, idBytes)
}

// GetByUsername retrieves a user by username.
func (m *MySQLUserRepository) GetByUsername(
	ctx context.Context,
	username string,
) (*userDomain.User, error) {
	return m.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (m *MySQLUserRepository) getOne(
	ctx context.Context,
	query string,
	arg any,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	user, err := scanMySQLUser(querier.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}
	return user, nil
}

// List retrieves users ordered by username ascending with pagination.
func (m *MySQLUserRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*userDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + userColumns + ` FROM users ORDER BY username ASC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	users := []*userDomain.User{}
	for rows.Next() {
		user, err := scanMySQLUser(rows)
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

// UpdateRoles replaces the user's role assignment and returns the updated row.
func (m *MySQLUserRepository) UpdateRoles(
	ctx context.Context,
	id uuid.UUID,
	roles []string,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user roles")
	}

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	result, err := querier.ExecContext(
		ctx,
		`UPDATE users SET roles = ?, updated_at = NOW() WHERE id = ?`,
		rolesJSON,
		idBytes,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to update user roles")
	}
	if err := requireOneRow(result, userDomain.ErrUserNotFound); err != nil {
		return nil, err
	}

	return m.GetByID(ctx, id)
}

// SetActive flips the account's active flag.
func (m *MySQLUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return m.setFlag(ctx, `UPDATE users SET is_active = ?, updated_at = NOW() WHERE id = ?`, id, active)
}

// SetApproved flips the account's approved flag.
func (m *MySQLUserRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return m.setFlag(ctx, `UPDATE users SET is_approved = ?, updated_at = NOW() WHERE id = ?`, id, approved)
}

func (m *MySQLUserRepository) setFlag(
	ctx context.Context,
	query string,
	id uuid.UUID,
	value bool,
) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	result, err := querier.ExecContext(ctx, query, value, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user status")
	}
	return requireOneRow(result, userDomain.ErrUserNotFound)
}

// UpdateCredential replaces the stored credential of an active user.
func (m *MySQLUserRepository) UpdateCredential(
	ctx context.Context,
	id uuid.UUID,
	credential cryptoDomain.Credential,
) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users SET password_hash = ?, password_salt = ?, updated_at = NOW()
			  WHERE id = ? AND is_active = TRUE`

	result, err := querier.ExecContext(ctx, query, credential.Hash, credential.Salt, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user credential")
	}
	return requireOneRow(result, userDomain.ErrUserNotFound)
}

// SetResetToken stores a pending reset token and its expiry on the user.
func (m *MySQLUserRepository) SetResetToken(
	ctx context.Context,
	id uuid.UUID,
	token string,
	expiry time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users SET reset_token = ?, reset_token_expiry = ?, updated_at = NOW()
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, token, expiry, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to set reset token")
	}
	return requireOneRow(result, userDomain.ErrUserNotFound)
}

// GetByResetToken retrieves the user holding a non-expired reset token.
func (m *MySQLUserRepository) GetByResetToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + userColumns + ` FROM users
			  WHERE reset_token = ? AND reset_token_expiry > ?`

	user, err := scanMySQLUser(querier.QueryRowContext(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userDomain.ErrResetTokenInvalid
		}
		return nil, apperrors.Wrap(err, "failed to get user by reset token")
	}
	return user, nil
}

// ConsumeResetToken replaces the credential of the active user holding a
// non-expired reset token and clears the token in one conditional statement,
// then re-reads the row. The update itself settles the single-use race: only
// one statement can match the token. The row is re-read by the new password
// hash, which is fresh random KDF output and cannot collide.
func (m *MySQLUserRepository) ConsumeResetToken(
	ctx context.Context,
	token string,
	credential cryptoDomain.Credential,
	now time.Time,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE users SET password_hash = ?, password_salt = ?,
				reset_token = NULL, reset_token_expiry = NULL, updated_at = NOW()
			  WHERE reset_token = ? AND reset_token_expiry > ? AND is_active = TRUE`

	result, err := querier.ExecContext(ctx, query, credential.Hash, credential.Salt, token, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to consume reset token")
	}
	if err := requireOneRow(result, userDomain.ErrResetTokenInvalid); err != nil {
		return nil, err
	}

	readQuery := `SELECT ` + userColumns + ` FROM users WHERE password_hash = ?`

	user, err := scanMySQLUser(querier.QueryRowContext(ctx, readQuery, credential.Hash))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read consumed user")
	}
	return user, nil
}

// scanMySQLUser reads one user row, decoding the BINARY(16) id.
func scanMySQLUser(row rowScanner) (*userDomain.User, error) {
	var (
		user             userDomain.User
		idBytes          []byte
		phone            sql.NullString
		rolesJSON        []byte
		resetToken       sql.NullString
		resetTokenExpiry sql.NullTime
	)

	err := row.Scan(
		&idBytes,
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

	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	user.ID = id

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

// isMySQLDuplicate reports whether err is a MySQL duplicate entry error.
func isMySQLDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
