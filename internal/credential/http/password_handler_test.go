package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	credentialUsecase "github.com/allisson/identity/internal/credential/usecase"
	userDomain "github.com/allisson/identity/internal/user/domain"
	userHTTP "github.com/allisson/identity/internal/user/http"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// mockLifecycle is a mock implementation of usecase.Lifecycle for testing.
type mockLifecycle struct {
	mock.Mock
}

func (m *mockLifecycle) ResetPassword(
	ctx context.Context,
	userID uuid.UUID,
	newPassword string,
	channel credentialUsecase.Channel,
) error {
	args := m.Called(ctx, userID, newPassword, channel)
	return args.Error(0)
}

func (m *mockLifecycle) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	oldPassword, newPassword string,
) error {
	args := m.Called(ctx, userID, oldPassword, newPassword)
	return args.Error(0)
}

func (m *mockLifecycle) ForgotPassword(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockLifecycle) ResetPasswordByToken(
	ctx context.Context,
	token, newPassword string,
) (*userDomain.User, error) {
	args := m.Called(ctx, token, newPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockLifecycle) IsResetTokenValid(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func setupPasswordTestHandler(t *testing.T) (*PasswordHandler, *mockLifecycle) {
	t.Helper()

	lifecycle := &mockLifecycle{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewPasswordHandler(lifecycle, logger)

	return handler, lifecycle
}

// createTestContext creates a test Gin context with the given request.
func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

// withSession stores an authenticated session on the test context.
func withSession(c *gin.Context, user *userDomain.User) {
	info := &userUsecase.AuthInfo{User: user}
	c.Request = c.Request.WithContext(userHTTP.WithAuthInfo(c.Request.Context(), info))
}

func TestPasswordHandler_ChangeHandler(t *testing.T) {
	t.Run("Success_PasswordChanged", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		user := &userDomain.User{ID: uuid.Must(uuid.NewV7()), Username: "alice"}

		lifecycle.On("ChangePassword", mock.Anything, user.ID, "old-password", "new-password-123").
			Return(nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/password/change", ChangePasswordRequest{
			OldPassword: "old-password",
			NewPassword: "new-password-123",
		})
		withSession(c, user)

		handler.ChangeHandler(c)

		c.Writer.WriteHeaderNow()
		assert.Equal(t, http.StatusNoContent, w.Code)
		lifecycle.AssertExpectations(t)
	})

	t.Run("Error_NoSession", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/password/change", ChangePasswordRequest{
			OldPassword: "old-password",
			NewPassword: "new-password-123",
		})

		handler.ChangeHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		lifecycle.AssertNotCalled(t, "ChangePassword")
	})

	t.Run("Error_MissingNewPassword", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		user := &userDomain.User{ID: uuid.Must(uuid.NewV7()), Username: "alice"}

		c, w := createTestContext(http.MethodPost, "/v1/password/change", ChangePasswordRequest{
			OldPassword: "old-password",
		})
		withSession(c, user)

		handler.ChangeHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		lifecycle.AssertNotCalled(t, "ChangePassword")
	})

	t.Run("Error_WrongOldPassword", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		user := &userDomain.User{ID: uuid.Must(uuid.NewV7()), Username: "alice"}

		lifecycle.On("ChangePassword", mock.Anything, user.ID, "wrong", "new-password-123").
			Return(userDomain.ErrPasswordMismatch).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/password/change", ChangePasswordRequest{
			OldPassword: "wrong",
			NewPassword: "new-password-123",
		})
		withSession(c, user)

		handler.ChangeHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		lifecycle.AssertExpectations(t)
	})

	t.Run("Error_IdenticalPasswords", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		user := &userDomain.User{ID: uuid.Must(uuid.NewV7()), Username: "alice"}

		lifecycle.On("ChangePassword", mock.Anything, user.ID, "same-password", "same-password").
			Return(userDomain.ErrPasswordsIdentical).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/password/change", ChangePasswordRequest{
			OldPassword: "same-password",
			NewPassword: "same-password",
		})
		withSession(c, user)

		handler.ChangeHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		lifecycle.AssertExpectations(t)
	})
}

func TestPasswordHandler_ResetUserHandler(t *testing.T) {
	t.Run("Success_ResetWithChannel", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		userID := uuid.Must(uuid.NewV7())

		lifecycle.On("ResetPassword", mock.Anything, userID, "new-password-123",
			credentialUsecase.ChannelEmail).
			Return(nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/password/reset-user", ResetUserPasswordRequest{
			UserID:      userID.String(),
			NewPassword: "new-password-123",
			Channel:     "email",
		})

		handler.ResetUserHandler(c)

		c.Writer.WriteHeaderNow()
		assert.Equal(t, http.StatusNoContent, w.Code)
		lifecycle.AssertExpectations(t)
	})

	t.Run("Success_NoChannel", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		userID := uuid.Must(uuid.NewV7())

		lifecycle.On("ResetPassword", mock.Anything, userID, "new-password-123",
			credentialUsecase.ChannelNone).
			Return(nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/password/reset-user", ResetUserPasswordRequest{
			UserID:      userID.String(),
			NewPassword: "new-password-123",
		})

		handler.ResetUserHandler(c)

		c.Writer.WriteHeaderNow()
		assert.Equal(t, http.StatusNoContent, w.Code)
		lifecycle.AssertExpectations(t)
	})

	t.Run("Error_InvalidUserID", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/password/reset-user", ResetUserPasswordRequest{
			UserID:      "not-a-uuid",
			NewPassword: "new-password-123",
		})

		handler.ResetUserHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		lifecycle.AssertNotCalled(t, "ResetPassword")
	})

	t.Run("Error_UnknownChannel", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/password/reset-user", ResetUserPasswordRequest{
			UserID:      uuid.Must(uuid.NewV7()).String(),
			NewPassword: "new-password-123",
			Channel:     "carrier-pigeon",
		})

		handler.ResetUserHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		lifecycle.AssertNotCalled(t, "ResetPassword")
	})

	t.Run("Error_UserNotFound", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		userID := uuid.Must(uuid.NewV7())

		lifecycle.On("ResetPassword", mock.Anything, userID, "new-password-123",
			credentialUsecase.ChannelNone).
			Return(userDomain.ErrUserNotFound).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/password/reset-user", ResetUserPasswordRequest{
			UserID:      userID.String(),
			NewPassword: "new-password-123",
		})

		handler.ResetUserHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		lifecycle.AssertExpectations(t)
	})
}

func TestPasswordHandler_ForgotHandler(t *testing.T) {
	t.Run("Success_KnownAccount", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		lifecycle.On("ForgotPassword", mock.Anything, "alice").Return(true, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/password/forgot", ForgotPasswordRequest{
			Username: "alice",
		})

		handler.ForgotHandler(c)

		assert.Equal(t, http.StatusAccepted, w.Code)
		lifecycle.AssertExpectations(t)
	})

	t.Run("Success_UnknownAccountLooksTheSame", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		lifecycle.On("ForgotPassword", mock.Anything, "ghost").Return(false, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/password/forgot", ForgotPasswordRequest{
			Username: "ghost",
		})

		handler.ForgotHandler(c)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), "If the account exists")
		lifecycle.AssertExpectations(t)
	})

	t.Run("Error_MissingUsername", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/password/forgot", ForgotPasswordRequest{})

		handler.ForgotHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		lifecycle.AssertNotCalled(t, "ForgotPassword")
	})
}

func TestPasswordHandler_ResetByTokenHandler(t *testing.T) {
	t.Run("Success_TokenConsumed", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		user := &userDomain.User{ID: uuid.Must(uuid.NewV7()), Username: "alice"}

		lifecycle.On("ResetPasswordByToken", mock.Anything, "123456", "new-password-123").
			Return(user, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/password/reset", ResetByTokenRequest{
			Token:       "123456",
			NewPassword: "new-password-123",
		})

		handler.ResetByTokenHandler(c)

		c.Writer.WriteHeaderNow()
		assert.Equal(t, http.StatusNoContent, w.Code)
		lifecycle.AssertExpectations(t)
	})

	t.Run("Error_InvalidToken", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		lifecycle.On("ResetPasswordByToken", mock.Anything, "999999", "new-password-123").
			Return(nil, userDomain.ErrResetTokenInvalid).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/password/reset", ResetByTokenRequest{
			Token:       "999999",
			NewPassword: "new-password-123",
		})

		handler.ResetByTokenHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		lifecycle.AssertExpectations(t)
	})

	t.Run("Error_MissingToken", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/password/reset", ResetByTokenRequest{
			NewPassword: "new-password-123",
		})

		handler.ResetByTokenHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		lifecycle.AssertNotCalled(t, "ResetPasswordByToken")
	})
}

func TestPasswordHandler_ValidateTokenHandler(t *testing.T) {
	t.Run("Success_PendingToken", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		lifecycle.On("IsResetTokenValid", mock.Anything, "123456").Return(true, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/password/reset/123456", nil)
		c.Params = gin.Params{{Key: "token", Value: "123456"}}

		handler.ValidateTokenHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"valid": true}`, w.Body.String())
		lifecycle.AssertExpectations(t)
	})

	t.Run("Success_ExpiredToken", func(t *testing.T) {
		handler, lifecycle := setupPasswordTestHandler(t)

		lifecycle.On("IsResetTokenValid", mock.Anything, "999999").Return(false, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/password/reset/999999", nil)
		c.Params = gin.Params{{Key: "token", Value: "999999"}}

		handler.ValidateTokenHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"valid": false}`, w.Body.String())
		lifecycle.AssertExpectations(t)
	})
}
