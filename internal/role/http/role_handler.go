// Package http provides HTTP handlers for role management operations.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	"github.com/allisson/identity/internal/httputil"
	roleDomain "github.com/allisson/identity/internal/role/domain"
	roleUsecase "github.com/allisson/identity/internal/role/usecase"
	appValidation "github.com/allisson/identity/internal/validation"
)

// Permissions guarding the role management endpoints.
const (
	PermissionRoleRead  = "role.read"
	PermissionRoleWrite = "role.write"
)

// RoleHandler handles role management HTTP requests.
type RoleHandler struct {
	registry roleUsecase.Registry
	logger   *slog.Logger
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(registry roleUsecase.Registry, logger *slog.Logger) *RoleHandler {
	return &RoleHandler{
		registry: registry,
		logger:   logger,
	}
}

// AddRoleRequest contains the parameters for creating or merging a role.
type AddRoleRequest struct {
	Name        string     `json:"name"`
	Permissions []string   `json:"permissions"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}

// Validate checks if the add role request is valid.
func (r *AddRoleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			appValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Permissions,
			validation.Required,
			validation.Length(1, 0),
		),
	)
}

// PermissionsRequest carries a set of permission strings for mutation.
type PermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// Validate checks if the permissions request is valid.
func (r *PermissionsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Permissions, validation.Required, validation.Length(1, 0)),
	)
}

// RoleResponse represents a role in API responses.
type RoleResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Permissions []string   `json:"permissions"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	IsSystem    bool       `json:"is_system"`
	CreatedAt   time.Time  `json:"created_at"`
}

// mapRoleToResponse converts a domain role to an API response.
func mapRoleToResponse(role *roleDomain.Role) RoleResponse {
	return RoleResponse{
		ID:          role.ID.String(),
		Name:        role.Name,
		Permissions: role.Permissions,
		ExpiryDate:  role.ExpiryDate,
		IsSystem:    role.IsSystem,
		CreatedAt:   role.CreatedAt,
	}
}

// AddHandler creates a role or merges permissions into an existing one.
// POST /v1/roles - Requires role.write.
func (h *RoleHandler) AddHandler(c *gin.Context) {
	var req AddRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	role, err := h.registry.Add(c.Request.Context(), &roleDomain.AddRoleInput{
		Name:        req.Name,
		Permissions: req.Permissions,
		ExpiryDate:  req.ExpiryDate,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, mapRoleToResponse(role))
}

// GetHandler retrieves a role by name.
// GET /v1/roles/:name - Requires role.read.
func (h *RoleHandler) GetHandler(c *gin.Context) {
	role, err := h.registry.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapRoleToResponse(role))
}

// ListHandler lists all roles.
// GET /v1/roles - Requires role.read.
func (h *RoleHandler) ListHandler(c *gin.Context) {
	roles, err := h.registry.List(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		responses = append(responses, mapRoleToResponse(role))
	}

	c.JSON(http.StatusOK, gin.H{"roles": responses})
}

// RemoveHandler deletes a non-system role.
// DELETE /v1/roles/:name - Requires role.write.
// System roles fail with 403 Forbidden.
func (h *RoleHandler) RemoveHandler(c *gin.Context) {
	if err := h.registry.Remove(c.Request.Context(), c.Param("name")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddPermissionsHandler unions permissions into a role's set.
// POST /v1/roles/:name/permissions - Requires role.write.
func (h *RoleHandler) AddPermissionsHandler(c *gin.Context) {
	var req PermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	role, err := h.registry.AddPermission(c.Request.Context(), c.Param("name"), req.Permissions)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapRoleToResponse(role))
}

// RemovePermissionsHandler subtracts permissions from a role's set.
// DELETE /v1/roles/:name/permissions - Requires role.write.
func (h *RoleHandler) RemovePermissionsHandler(c *gin.Context) {
	var req PermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	role, err := h.registry.RemovePermission(c.Request.Context(), c.Param("name"), req.Permissions)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapRoleToResponse(role))
}

// ValidRolesHandler returns the names of all currently valid roles.
// GET /v1/roles/valid - Requires role.read.
func (h *RoleHandler) ValidRolesHandler(c *gin.Context) {
	names, err := h.registry.GetValidRoles(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{"roles": names})
}
