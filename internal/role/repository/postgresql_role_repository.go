// Package repository implements data persistence for roles.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). PostgreSQL uses native UUID types and RETURNING clauses;
// MySQL uses BINARY(16) types. Permission sets are stored as JSON.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	roleDomain "github.com/allisson/identity/internal/role/domain"
)

// PostgreSQLRoleRepository implements role persistence for PostgreSQL.
type PostgreSQLRoleRepository struct {
	db *sql.DB
}

// Create inserts a new role into the PostgreSQL database.
func (p *PostgreSQLRoleRepository) Create(ctx context.Context, role *roleDomain.Role) error {
	querier := database.GetTx(ctx, p.db)

	permissionsJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role permissions")
	}

	query := `INSERT INTO roles (id, name, permissions, expiry_date, is_system, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = querier.ExecContext(
		ctx,
		query,
		role.ID,
		role.Name,
		permissionsJSON,
		role.ExpiryDate,
		role.IsSystem,
		role.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "role name already exists")
		}
		return apperrors.Wrap(err, "failed to create role")
	}
	return nil
}

// GetByName retrieves a role by its unique name.
func (p *PostgreSQLRoleRepository) GetByName(ctx context.Context, name string) (*roleDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, permissions, expiry_date, is_system, created_at
			  FROM roles WHERE name = $1`

	role, err := scanRole(querier.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roleDomain.ErrRoleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role")
	}
	return role, nil
}

// List retrieves all roles ordered by name ascending.
func (p *PostgreSQLRoleRepository) List(ctx context.Context) ([]*roleDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, permissions, expiry_date, is_system, created_at
			  FROM roles ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list roles")
	}
	defer rows.Close()

	return collectRoles(rows)
}

// ListValid retrieves the non-expired roles ordered by name ascending.
func (p *PostgreSQLRoleRepository) ListValid(
	ctx context.Context,
	now time.Time,
) ([]*roleDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, permissions, expiry_date, is_system, created_at
			  FROM roles
			  WHERE expiry_date IS NULL OR expiry_date > $1
			  ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list valid roles")
	}
	defer rows.Close()

	return collectRoles(rows)
}

// ListValidByNames retrieves the non-expired roles matching any of the names.
func (p *PostgreSQLRoleRepository) ListValidByNames(
	ctx context.Context,
	names []string,
	now time.Time,
) ([]*roleDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, permissions, expiry_date, is_system, created_at
			  FROM roles
			  WHERE name = ANY($1) AND (expiry_date IS NULL OR expiry_date > $2)
			  ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query, pq.Array(names), now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list roles by names")
	}
	defer rows.Close()

	return collectRoles(rows)
}

// UpdatePermissions replaces the permission set of a non-system role in a
// single conditional statement and returns the updated role. A system role
// cannot be matched by this statement and surfaces as ErrRoleNotFound.
func (p *PostgreSQLRoleRepository) UpdatePermissions(
	ctx context.Context,
	id uuid.UUID,
	permissions []string,
) (*roleDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	permissionsJSON, err := json.Marshal(permissions)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal role permissions")
	}

	query := `UPDATE roles SET permissions = $1
			  WHERE id = $2 AND is_system = false
			  RETURNING id, name, permissions, expiry_date, is_system, created_at`

	role, err := scanRole(querier.QueryRowContext(ctx, query, permissionsJSON, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roleDomain.ErrRoleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to update role permissions")
	}
	return role, nil
}

// Delete removes a non-system role by name.
func (p *PostgreSQLRoleRepository) Delete(ctx context.Context, name string) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM roles WHERE name = $1 AND is_system = false`

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

// NewPostgreSQLRoleRepository creates a new PostgreSQL role repository.
func NewPostgreSQLRoleRepository(db *sql.DB) *PostgreSQLRoleRepository {
	return &PostgreSQLRoleRepository{db: db}
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRole reads one role row, decoding the permissions JSON column.
func scanRole(row rowScanner) (*roleDomain.Role, error) {
	var (
		role            roleDomain.Role
		permissionsJSON []byte
		expiryDate      sql.NullTime
	)

	err := row.Scan(
		&role.ID,
		&role.Name,
		&permissionsJSON,
		&expiryDate,
		&role.IsSystem,
		&role.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(permissionsJSON, &role.Permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role permissions")
	}
	if expiryDate.Valid {
		role.ExpiryDate = &expiryDate.Time
	}
	return &role, nil
}

// collectRoles drains rows into a slice.
func collectRoles(rows *sql.Rows) ([]*roleDomain.Role, error) {
	roles := []*roleDomain.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
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

// isUniqueViolation reports whether err is a PostgreSQL unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
