package commands

import (
	"context"
	"fmt"
	"log/slog"

	accessKeyUsecase "github.com/allisson/identity/internal/accesskey/usecase"
	roleDomain "github.com/allisson/identity/internal/role/domain"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
)

// RunCreateAccessKey issues an access key for an existing user. The plaintext
// secret is printed exactly once and cannot be retrieved again. Scopes is a
// comma-separated list of scope strings.
//
// Requirements: Database must be migrated and accessible.
func RunCreateAccessKey(
	ctx context.Context,
	accessKeyManager accessKeyUsecase.Manager,
	userManager userUsecase.Manager,
	logger *slog.Logger,
	username string,
	name string,
	scopes string,
	format string,
	io IOTuple,
) error {
	logger.Info("creating new access key",
		slog.String("username", username),
		slog.String("name", name),
	)

	user, err := userManager.Get(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	output, err := accessKeyManager.Create(ctx, accessKeyUsecase.CreateAccessKeyInput{
		UserID: user.ID,
		Name:   name,
		Scopes: roleDomain.SplitNames(scopes),
	})
	if err != nil {
		return fmt.Errorf("failed to create access key: %w", err)
	}

	if format == "json" {
		outputJSON(output, io.Writer)
	} else {
		printField(io.Writer, "Key", output.AccessKey.Key)
		printField(io.Writer, "Secret", output.Secret)
		printField(io.Writer, "Name", output.AccessKey.Name)
		_, _ = fmt.Fprintln(io.Writer, "Store the secret now. It cannot be retrieved again.")
	}

	logger.Info("access key created successfully",
		slog.String("key", output.AccessKey.Key),
		slog.String("username", username),
	)

	return nil
}
