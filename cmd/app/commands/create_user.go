package commands

import (
	"context"
	"fmt"
	"log/slog"

	roleDomain "github.com/allisson/identity/internal/role/domain"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
)

// RunCreateUser registers a new user account. When password is empty a random
// initial password is generated and delivered through the notification
// channel. Roles is a comma-separated list of role names, all of which must be
// currently valid.
//
// Requirements: Database must be migrated and accessible.
func RunCreateUser(
	ctx context.Context,
	userManager userUsecase.Manager,
	logger *slog.Logger,
	username string,
	name string,
	email string,
	phone string,
	password string,
	roles string,
	approve bool,
	format string,
	io IOTuple,
) error {
	logger.Info("creating new user", slog.String("username", username))

	input := userUsecase.CreateUserInput{
		Username: username,
		Name:     name,
		Email:    email,
		Phone:    phone,
		Password: password,
		Roles:    roleDomain.SplitNames(roles),
	}

	user, err := userManager.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if approve {
		if err := userManager.Approve(ctx, user.Username); err != nil {
			return fmt.Errorf("failed to approve user: %w", err)
		}
		user.IsApproved = true
	}

	if format == "json" {
		outputJSON(user, io.Writer)
	} else {
		printField(io.Writer, "ID", user.ID.String())
		printField(io.Writer, "Username", user.Username)
		printField(io.Writer, "Name", user.Name)
		printField(io.Writer, "Email", user.Email)
		printField(io.Writer, "Approved", fmt.Sprintf("%t", user.IsApproved))
	}

	logger.Info("user created successfully",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
		slog.Bool("approved", user.IsApproved),
	)

	return nil
}
