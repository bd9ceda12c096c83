package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/identity/internal/errors"
	roleDomain "github.com/allisson/identity/internal/role/domain"
	"github.com/allisson/identity/internal/testutil"
)

func TestNewPostgreSQLRoleRepository(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLRoleRepository{}, repo)
}

func TestPostgreSQLRoleRepository_Create(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	role := &roleDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "editor",
		Permissions: []string{"post.read", "post.write"},
		CreatedAt:   time.Now().UTC(),
	}

	err := repo.Create(ctx, role)
	require.NoError(t, err)

	// Read it back
	readRole, err := repo.GetByName(ctx, "editor")
	require.NoError(t, err)

	assert.Equal(t, role.ID, readRole.ID)
	assert.Equal(t, role.Name, readRole.Name)
	assert.Equal(t, role.Permissions, readRole.Permissions)
	assert.Nil(t, readRole.ExpiryDate)
	assert.False(t, readRole.IsSystem)
	assert.WithinDuration(t, role.CreatedAt, readRole.CreatedAt, time.Second)
}

func TestPostgreSQLRoleRepository_Create_DuplicateName(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	role := &roleDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "editor",
		Permissions: []string{"post.read"},
		CreatedAt:   time.Now().UTC(),
	}
	err := repo.Create(ctx, role)
	require.NoError(t, err)

	duplicate := &roleDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "editor",
		Permissions: []string{"post.write"},
		CreatedAt:   time.Now().UTC(),
	}
	err = repo.Create(ctx, duplicate)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestPostgreSQLRoleRepository_GetByName_NotFound(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	role, err := repo.GetByName(ctx, "missing")
	assert.Error(t, err)
	assert.Nil(t, role)
	assert.ErrorIs(t, err, roleDomain.ErrRoleNotFound)
}

func TestPostgreSQLRoleRepository_List(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	expired := time.Now().UTC().Add(-time.Hour)
	for _, role := range []*roleDomain.Role{
		{
			ID:          uuid.Must(uuid.NewV7()),
			Name:        "viewer",
			Permissions: []string{"post.read"},
			CreatedAt:   time.Now().UTC(),
		},
		{
			ID:          uuid.Must(uuid.NewV7()),
			Name:        "editor",
			Permissions: []string{"post.read", "post.write"},
			CreatedAt:   time.Now().UTC(),
		},
		{
			ID:          uuid.Must(uuid.NewV7()),
			Name:        "trial",
			Permissions: []string{"post.read"},
			ExpiryDate:  &expired,
			CreatedAt:   time.Now().UTC(),
		},
	} {
		require.NoError(t, repo.Create(ctx, role))
	}

	// List returns everything, expired included, ordered by name
	roles, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, "editor", roles[0].Name)
	assert.Equal(t, "trial", roles[1].Name)
	assert.Equal(t, "viewer", roles[2].Name)
	assert.NotNil(t, roles[1].ExpiryDate)
}

func TestPostgreSQLRoleRepository_ListValid(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	expired := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	for _, role := range []*roleDomain.Role{
		{
			ID:          uuid.Must(uuid.NewV7()),
			Name:        "permanent",
			Permissions: []string{"post.read"},
			CreatedAt:   now,
		},
		{
			ID:          uuid.Must(uuid.NewV7()),
			Name:        "temporary",
			Permissions: []string{"post.write"},
			ExpiryDate:  &future,
			CreatedAt:   now,
		},
		{
			ID:          uuid.Must(uuid.NewV7()),
			Name:        "gone",
			Permissions: []string{"post.delete"},
			ExpiryDate:  &expired,
			CreatedAt:   now,
		},
	} {
		require.NoError(t, repo.Create(ctx, role))
	}

	roles, err := repo.ListValid(ctx, now)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "permanent", roles[0].Name)
	assert.Equal(t, "temporary", roles[1].Name)
}

func TestPostgreSQLRoleRepository_ListValidByNames(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	expired := now.Add(-time.Hour)

	for _, role := range []*roleDomain.Role{
		{
			ID:          uuid.Must(uuid.NewV7()),
			Name:        "admin",
			Permissions: []string{"post.delete"},
			CreatedAt:   now,
		},
		{
			ID:          uuid.Must(uuid.NewV7()),
			Name:        "editor",
			Permissions: []string{"post.write"},
			CreatedAt:   now,
		},
		{
			ID:          uuid.Must(uuid.NewV7()),
			Name:        "trial",
			Permissions: []string{"post.read"},
			ExpiryDate:  &expired,
			CreatedAt:   now,
		},
	} {
		require.NoError(t, repo.Create(ctx, role))
	}

	t.Run("matching names excluding expired", func(t *testing.T) {
		roles, err := repo.ListValidByNames(ctx, []string{"admin", "trial", "unknown"}, now)
		require.NoError(t, err)
		require.Len(t, roles, 1)
		assert.Equal(t, "admin", roles[0].Name)
	})

	t.Run("empty names returns empty slice", func(t *testing.T) {
		roles, err := repo.ListValidByNames(ctx, []string{}, now)
		require.NoError(t, err)
		assert.Empty(t, roles)
	})
}

func TestPostgreSQLRoleRepository_UpdatePermissions(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	role := &roleDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "editor",
		Permissions: []string{"post.read"},
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, role))

	updated, err := repo.UpdatePermissions(ctx, role.ID, []string{"post.read", "post.write"})
	require.NoError(t, err)
	assert.Equal(t, role.ID, updated.ID)
	assert.Equal(t, []string{"post.read", "post.write"}, updated.Permissions)

	// Unknown id
	_, err = repo.UpdatePermissions(ctx, uuid.Must(uuid.NewV7()), []string{"post.read"})
	assert.ErrorIs(t, err, roleDomain.ErrRoleNotFound)
}

func TestPostgreSQLRoleRepository_UpdatePermissions_SystemRole(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	role := &roleDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "superuser",
		Permissions: []string{"*"},
		IsSystem:    true,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, role))

	_, err := repo.UpdatePermissions(ctx, role.ID, []string{"post.read"})
	assert.ErrorIs(t, err, roleDomain.ErrRoleNotFound)

	// Permissions untouched
	readRole, err := repo.GetByName(ctx, "superuser")
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, readRole.Permissions)
}

func TestPostgreSQLRoleRepository_Delete(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	role := &roleDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "editor",
		Permissions: []string{"post.read"},
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, role))

	err := repo.Delete(ctx, "editor")
	require.NoError(t, err)

	_, err = repo.GetByName(ctx, "editor")
	assert.ErrorIs(t, err, roleDomain.ErrRoleNotFound)

	// Deleting again reports not found
	err = repo.Delete(ctx, "editor")
	assert.ErrorIs(t, err, roleDomain.ErrRoleNotFound)
}

func TestPostgreSQLRoleRepository_Delete_SystemRole(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	role := &roleDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "superuser",
		Permissions: []string{"*"},
		IsSystem:    true,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, role))

	err := repo.Delete(ctx, "superuser")
	assert.ErrorIs(t, err, roleDomain.ErrRoleNotFound)

	// Still there
	readRole, err := repo.GetByName(ctx, "superuser")
	require.NoError(t, err)
	assert.True(t, readRole.IsSystem)
}

func TestPostgreSQLRoleRepository_Create_WithTransaction(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRoleRepository(db)
	ctx := context.Background()

	// Insert within a transaction and roll back
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO roles (id, name, permissions, expiry_date, is_system, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.Must(uuid.NewV7()),
		"rollback-role",
		`["post.read"]`,
		nil,
		false,
		time.Now().UTC(),
	)
	require.NoError(t, err)

	err = tx.Rollback()
	require.NoError(t, err)

	_, err = repo.GetByName(ctx, "rollback-role")
	assert.ErrorIs(t, err, roleDomain.ErrRoleNotFound)
}
