package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/httputil"
	userDomain "github.com/allisson/identity/internal/user/domain"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
	appValidation "github.com/allisson/identity/internal/validation"
)

// Permissions guarding the user management endpoints.
const (
	PermissionUserRead  = "user.read"
	PermissionUserWrite = "user.write"
)

// UserHandler handles user management HTTP requests.
type UserHandler struct {
	userManager userUsecase.Manager
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userManager userUsecase.Manager, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userManager: userManager,
		logger:      logger,
	}
}

// CreateUserRequest contains the parameters for registering a user.
type CreateUserRequest struct {
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// Validate checks if the create user request is valid. The usecase enforces
// the full field rules; this catches structurally empty requests early.
func (r *CreateUserRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, appValidation.NotBlank),
		validation.Field(&r.Name, validation.Required, appValidation.NotBlank),
		validation.Field(&r.Email, validation.Required, appValidation.NotBlank),
	)
}

// RolesRequest carries a set of role names for assignment.
type RolesRequest struct {
	Roles []string `json:"roles"`
}

// Validate checks if the roles request is valid.
func (r *RolesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Roles, validation.Required, validation.Length(1, 0)),
	)
}

// UserResponse represents a user in API responses. Credential and reset token
// material never appear here.
type UserResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Roles      []string  `json:"roles"`
	IsActive   bool      `json:"is_active"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// mapUserToResponse converts a domain user to an API response.
func mapUserToResponse(user *userDomain.User) UserResponse {
	return UserResponse{
		ID:         user.ID.String(),
		Username:   user.Username,
		Name:       user.Name,
		Email:      user.Email,
		Phone:      user.Phone,
		Roles:      user.Roles,
		IsActive:   user.IsActive,
		IsApproved: user.IsApproved,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// errUnauthenticated is the uniform failure when no session is in context.
func errUnauthenticated() error {
	return apperrors.ErrUnauthorized
}

// CreateHandler registers a new user.
// POST /v1/users - Requires user.write.
// Returns 201 Created; the initial password travels only through the
// notification channel, never the response.
func (h *UserHandler) CreateHandler(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.userManager.Create(c.Request.Context(), userUsecase.CreateUserInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, mapUserToResponse(user))
}

// GetHandler retrieves a user by username.
// GET /v1/users/:username - Requires user.read.
func (h *UserHandler) GetHandler(c *gin.Context) {
	user, err := h.userManager.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapUserToResponse(user))
}

// ListHandler lists users with pagination.
// GET /v1/users - Requires user.read.
func (h *UserHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	users, err := h.userManager.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, mapUserToResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{"users": responses})
}

// AddRolesHandler assigns roles to a user.
// POST /v1/users/:username/roles - Requires user.write.
// Every requested role must be currently valid.
func (h *UserHandler) AddRolesHandler(c *gin.Context) {
	var req RolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.userManager.AddRoles(c.Request.Context(), c.Param("username"), req.Roles)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapUserToResponse(user))
}

// RemoveRoleHandler unassigns one role from a user.
// DELETE /v1/users/:username/roles/:role - Requires user.write.
func (h *UserHandler) RemoveRoleHandler(c *gin.Context) {
	user, err := h.userManager.RemoveRole(c.Request.Context(), c.Param("username"), c.Param("role"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapUserToResponse(user))
}

// SuspendHandler deactivates a user account.
// POST /v1/users/:username/suspend - Requires user.write.
func (h *UserHandler) SuspendHandler(c *gin.Context) {
	if err := h.userManager.Suspend(c.Request.Context(), c.Param("username")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// RestoreHandler reactivates a suspended user account.
// POST /v1/users/:username/restore - Requires user.write.
func (h *UserHandler) RestoreHandler(c *gin.Context) {
	if err := h.userManager.Restore(c.Request.Context(), c.Param("username")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ApproveHandler marks a user account as approved.
// POST /v1/users/:username/approve - Requires user.write.
func (h *UserHandler) ApproveHandler(c *gin.Context) {
	if err := h.userManager.Approve(c.Request.Context(), c.Param("username")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
