package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	roleDomain "github.com/allisson/identity/internal/role/domain"
)

// MySQLRoleRepository implements role persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLRoleRepository struct {
	db *sql.DB
}

// Create inserts a new role into the MySQL database.
func (m *MySQLRoleRepository) Create(ctx context.Context, role *roleDomain.Role) error {
	querier := database.GetTx(ctx, m.db)

	permissionsJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role permissions")
	}

	id, err := role.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `INSERT INTO roles (id, name, permissions, expiry_date, is_system, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		role.Name,
		permissionsJSON,
		role.ExpiryDate,
		role.IsSystem,
		role.CreatedAt,
	)
	if err != nil {
		if isMySQLDuplicate(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "role name already exists")
		}
		return apperrors.Wrap(err, "failed to create role")
	}
	return nil
}

// GetByName retrieves a role by its unique name.
func (m *MySQLRoleRepository) GetByName(ctx context.Context, name string) (*roleDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, permissions, expiry_date, is_system, created_at
			  FROM roles WHERE name = ?`

	role, err := scanMySQLRole(querier.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roleDomain.ErrRoleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role")
	}
	return role, nil
}

// List retrieves all roles ordered by name ascending.
func (m *MySQLRoleRepository) List(ctx context.Context) ([]*roleDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, permissions, expiry_date, is_system, created_at
			  FROM roles ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list roles")
	}
	defer rows.Close()

	return collectMySQLRoles(rows)
}

// ListValid retrieves the non-expired roles ordered by name ascending.
func (m *MySQLRoleRepository) ListValid(
	ctx context.Context,
	now time.Time,
) ([]*roleDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, permissions, expiry_date, is_system, created_at
			  FROM roles
			  WHERE expiry_date IS NULL OR expiry_date > ?
			  ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list valid roles")
	}
	defer rows.Close()

	return collectMySQLRoles(rows)
}

// ListValidByNames retrieves the non-expired roles matching any of the names.
func (m *MySQLRoleRepository) ListValidByNames(
	ctx context.Context,
	names []string,
	now time.Time,
) ([]*roleDomain.Role, error) {
	if len(names) == 0 {
		return []*roleDomain.Role{}, nil
	}

	querier := database.GetTx(ctx, m.db)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	query := `SELECT id, name, permissions, expiry_date, is_system, created_at
			  FROM roles
			  WHERE name IN (` + placeholders + `) AND (expiry_date IS NULL OR expiry_date > ?)
			  ORDER BY name ASC`

	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		args = append(args, name)
	}
	args = append(args, now)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list roles by names")
	}
	defer rows.Close()

	return collectMySQLRoles(rows)
}

// UpdatePermissions replaces the permission set of a non-system role and
// returns the updated role. MySQL has no RETURNING clause, so the updated row
// is re-read with the same is_system filter inside the caller's transaction.
func (m *MySQLRoleRepository) UpdatePermissions(
	ctx context.Context,
	id uuid.UUID,
	permissions []string,
) (*roleDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	permissionsJSON, err := json.Marshal(permissions)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal role permissions")
	}

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `UPDATE roles SET permissions = ? WHERE id = ? AND is_system = FALSE`

	if _, err := querier.ExecContext(ctx, query, permissionsJSON, idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to update role permissions")
	}

	readQuery := `SELECT id, name, permissions, expiry_date, is_system, created_at
				  FROM roles WHERE id = ? AND is_system = FALSE`

	role, err := scanMySQLRole(querier.QueryRowContext(ctx, readQuery, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roleDomain.ErrRoleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get updated role")
	}
	return role, nil
}

// Delete removes a non-system role by name.
func (m *MySQLRoleRepository) Delete(ctx context.Context, name string) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM roles WHERE name = ? AND is_system = FALSE`

	result, err := querier.ExecContext(ctx, query, name)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete role")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return roleDomain.ErrRoleNotFound
	}
	return nil
}

// NewMySQLRoleRepository creates a new MySQL role repository.
func NewMySQLRoleRepository(db *sql.DB) *MySQLRoleRepository {
	return &MySQLRoleRepository{db: db}
}

// scanMySQLRole reads one role row, decoding the BINARY(16) id and the
// permissions JSON column.
func scanMySQLRole(row rowScanner) (*roleDomain.Role, error) {
	var (
		role            roleDomain.Role
		idBytes         []byte
		permissionsJSON []byte
		expiryDate      sql.NullTime
	)

	err := row.Scan(
		&idBytes,
		&role.Name,
		&permissionsJSON,
		&expiryDate,
		&role.IsSystem,
		&role.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role id")
	}
	role.ID = id

	if err := json.Unmarshal(permissionsJSON, &role.Permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role permissions")
	}
	if expiryDate.Valid {
		role.ExpiryDate = &expiryDate.Time
	}
	return &role, nil
}

// collectMySQLRoles drains rows into a slice.
func collectMySQLRoles(rows *sql.Rows) ([]*roleDomain.Role, error) {
	roles := []*roleDomain.Role{}
	for rows.Next() {
		role, err := scanMySQLRole(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan role")
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate roles")
	}
	return roles, nil
}

// isMySQLDuplicate reports whether err is a MySQL duplicate entry error.
func isMySQLDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
