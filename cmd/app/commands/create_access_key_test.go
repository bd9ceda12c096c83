package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	accessKeyDomain "github.com/allisson/identity/internal/accesskey/domain"
	accessKeyUsecase "github.com/allisson/identity/internal/accesskey/usecase"
	userDomain "github.com/allisson/identity/internal/user/domain"
)

func TestRunCreateAccessKey(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	userID := uuid.New()

	user := &userDomain.User{ID: userID, Username: "alice.w", IsActive: true}

	t.Run("text output shows secret once", func(t *testing.T) {
		userManager := &mockUserManager{}
		accessKeyManager := &mockAccessKeyManager{}

		userManager.On("Get", ctx, "alice.w").Return(user, nil)
		accessKeyManager.On("Create", ctx, accessKeyUsecase.CreateAccessKeyInput{
			UserID: userID,
			Name:   "ci pipeline",
			Scopes: []string{"deploy"},
		}).Return(&accessKeyUsecase.CreateAccessKeyOutput{
			AccessKey: &accessKeyDomain.AccessKey{
				Key:  "IK0123456789ABCDEF0123",
				Name: "ci pipeline",
			},
			Secret: "plain-secret-value",
		}, nil)

		var out bytes.Buffer
		err := RunCreateAccessKey(
			ctx, accessKeyManager, userManager, logger,
			"alice.w", "ci pipeline", "deploy", "text",
			IOTuple{Writer: &out},
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), "IK0123456789ABCDEF0123")
		require.Contains(t, out.String(), "plain-secret-value")
		require.Contains(t, out.String(), "cannot be retrieved again")
		userManager.AssertExpectations(t)
		accessKeyManager.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		userManager := &mockUserManager{}
		accessKeyManager := &mockAccessKeyManager{}

		userManager.On("Get", ctx, "ghost").Return(nil, errors.New("user not found"))

		var out bytes.Buffer
		err := RunCreateAccessKey(
			ctx, accessKeyManager, userManager, logger,
			"ghost", "anything", "", "text",
			IOTuple{Writer: &out},
		)

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to get user")
		accessKeyManager.AssertNotCalled(t, "Create")
	})

	t.Run("issuance failure", func(t *testing.T) {
		userManager := &mockUserManager{}
		accessKeyManager := &mockAccessKeyManager{}

		userManager.On("Get", ctx, "alice.w").Return(user, nil)
		accessKeyManager.On("Create", ctx, accessKeyUsecase.CreateAccessKeyInput{
			UserID: userID,
			Name:   "bad",
			Scopes: []string{},
		}).Return(nil, errors.New("boom"))

		var out bytes.Buffer
		err := RunCreateAccessKey(
			ctx, accessKeyManager, userManager, logger,
			"alice.w", "bad", "", "text",
			IOTuple{Writer: &out},
		)

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create access key")
	})
}
