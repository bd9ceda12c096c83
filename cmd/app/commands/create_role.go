package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	roleDomain "github.com/allisson/identity/internal/role/domain"
	roleUsecase "github.com/allisson/identity/internal/role/usecase"
)

// RunCreateRole creates a role with a set of permissions, or merges the
// permissions into an existing non-system role. Permissions is a
// comma-separated list of permission strings.
//
// Requirements: Database must be migrated and accessible.
func RunCreateRole(
	ctx context.Context,
	registry roleUsecase.Registry,
	logger *slog.Logger,
	name string,
	permissions string,
	format string,
	io IOTuple,
) error {
	logger.Info("creating new role", slog.String("name", name))

	perms := roleDomain.SplitNames(permissions)
	if len(perms) == 0 {
		return fmt.Errorf("at least one permission is required")
	}

	role, err := registry.Add(ctx, &roleDomain.AddRoleInput{
		Name:        name,
		Permissions: perms,
	})
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	if format == "json" {
		outputJSON(role, io.Writer)
	} else {
		printField(io.Writer, "Name", role.Name)
		printField(io.Writer, "Permissions", strings.Join(role.Permissions, ", "))
	}

	logger.Info("role created successfully",
		slog.String("name", role.Name),
		slog.Int("permission_count", len(role.Permissions)),
	)

	return nil
}
