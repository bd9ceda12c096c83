// Package http provides HTTP handlers for the password lifecycle flows.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	credentialUsecase "github.com/allisson/identity/internal/credential/usecase"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/httputil"
	userHTTP "github.com/allisson/identity/internal/user/http"
	appValidation "github.com/allisson/identity/internal/validation"
)

// PasswordHandler handles password lifecycle HTTP requests.
type PasswordHandler struct {
	lifecycle credentialUsecase.Lifecycle
	logger    *slog.Logger
}

// NewPasswordHandler creates a new PasswordHandler.
func NewPasswordHandler(lifecycle credentialUsecase.Lifecycle, logger *slog.Logger) *PasswordHandler {
	return &PasswordHandler{
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// ChangePasswordRequest contains the parameters for a self-service password
// change.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Validate checks if the change password request is valid.
func (r *ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

// ResetUserPasswordRequest contains the parameters for an administrative
// password reset.
type ResetUserPasswordRequest struct {
	UserID      string `json:"user_id"`
	NewPassword string `json:"new_password"`
	Channel     string `json:"channel"`
}

// Validate checks if the reset user password request is valid.
func (r *ResetUserPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.Required, appValidation.NotBlank),
		validation.Field(&r.NewPassword, validation.Required),
		validation.Field(&r.Channel, validation.In("", "email", "phone")),
	)
}

// ForgotPasswordRequest contains the username starting a reset flow.
type ForgotPasswordRequest struct {
	Username string `json:"username"`
}

// Validate checks if the forgot password request is valid.
func (r *ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, appValidation.NotBlank),
	)
}

// ResetByTokenRequest contains a reset token and the replacement password.
type ResetByTokenRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Validate checks if the reset by token request is valid.
func (r *ResetByTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token, validation.Required, appValidation.NotBlank),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

// ChangeHandler changes the authenticated user's own password.
// POST /v1/password/change - Requires a valid session.
func (h *PasswordHandler) ChangeHandler(c *gin.Context) {
	info, ok := userHTTP.GetAuthInfo(c.Request.Context())
	if !ok || info == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	err := h.lifecycle.ChangePassword(c.Request.Context(), info.User.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ResetUserHandler resets another user's password administratively.
// POST /v1/password/reset-user - Requires user.write.
func (h *PasswordHandler) ResetUserHandler(c *gin.Context) {
	var req ResetUserPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			apperrors.Wrap(apperrors.ErrInvalidInput, "user_id must be a valid UUID"),
			h.logger)
		return
	}

	err = h.lifecycle.ResetPassword(
		c.Request.Context(),
		userID,
		req.NewPassword,
		credentialUsecase.Channel(req.Channel),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ForgotHandler starts a reset flow for a username.
// POST /v1/password/forgot - Unauthenticated, rate limited per source IP.
// Always returns 202 Accepted so account existence does not leak through the
// response.
func (h *PasswordHandler) ForgotHandler(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	if _, err := h.lifecycle.ForgotPassword(c.Request.Context(), req.Username); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "If the account exists, a reset token has been sent.",
	})
}

// ResetByTokenHandler consumes a reset token and sets a new password.
// POST /v1/password/reset - Unauthenticated, rate limited per source IP.
func (h *PasswordHandler) ResetByTokenHandler(c *gin.Context) {
	var req ResetByTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	if _, err := h.lifecycle.ResetPasswordByToken(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ValidateTokenHandler reports whether a reset token is still pending.
// GET /v1/password/reset/:token - Unauthenticated.
func (h *PasswordHandler) ValidateTokenHandler(c *gin.Context) {
	valid, err := h.lifecycle.IsResetTokenValid(c.Request.Context(), c.Param("token"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": valid})
}
