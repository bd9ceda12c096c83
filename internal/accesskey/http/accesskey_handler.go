// Package http provides HTTP handlers for access key management and the
// key/secret token exchange.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	accessKeyDomain "github.com/allisson/identity/internal/accesskey/domain"
	accessKeyUsecase "github.com/allisson/identity/internal/accesskey/usecase"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/httputil"
	userHTTP "github.com/allisson/identity/internal/user/http"
	appValidation "github.com/allisson/identity/internal/validation"
)

// AccessKeyHandler handles access key HTTP requests. Management endpoints
// operate on the authenticated user's own keys.
type AccessKeyHandler struct {
	accessKeyManager accessKeyUsecase.Manager
	logger           *slog.Logger
}

// NewAccessKeyHandler creates a new AccessKeyHandler.
func NewAccessKeyHandler(
	accessKeyManager accessKeyUsecase.Manager,
	logger *slog.Logger,
) *AccessKeyHandler {
	return &AccessKeyHandler{
		accessKeyManager: accessKeyManager,
		logger:           logger,
	}
}

// CreateAccessKeyRequest contains the parameters for issuing an access key.
type CreateAccessKeyRequest struct {
	Name       string     `json:"name"`
	Scopes     []string   `json:"scopes"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// Validate checks if the create access key request is valid.
func (r *CreateAccessKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			appValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
}

// TokenExchangeRequest contains an access key credential pair to exchange
// for a session token.
type TokenExchangeRequest struct {
	Key    string         `json:"key"`
	Secret string         `json:"secret"`
	Data   map[string]any `json:"data"`
}

// Validate checks if the token exchange request is valid.
func (r *TokenExchangeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Key, validation.Required, appValidation.NotBlank),
		validation.Field(&r.Secret, validation.Required, appValidation.NotBlank),
	)
}

// CreateAccessKeyResponse contains the issuance result.
// SECURITY: the secret appears here exactly once and is never retrievable
// again.
type CreateAccessKeyResponse struct {
	AccessKeyResponse
	Secret string `json:"secret"`
}

// AccessKeyResponse represents an access key in API responses, without
// secret material.
type AccessKeyResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	Scopes     []string   `json:"scopes"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// mapAccessKeyToResponse converts a domain access key to an API response.
func mapAccessKeyToResponse(accessKey *accessKeyDomain.AccessKey) AccessKeyResponse {
	return AccessKeyResponse{
		ID:         accessKey.ID.String(),
		Name:       accessKey.Name,
		Key:        accessKey.Key,
		Scopes:     accessKey.Scopes,
		ExpiryDate: accessKey.ExpiryDate,
		CreatedAt:  accessKey.CreatedAt,
	}
}

// CreateHandler issues a new access key for the authenticated user.
// POST /v1/access-keys - Requires a valid session.
// Returns 201 Created with the plaintext secret, shown exactly once.
func (h *AccessKeyHandler) CreateHandler(c *gin.Context) {
	info, ok := userHTTP.GetAuthInfo(c.Request.Context())
	if !ok || info == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req CreateAccessKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.accessKeyManager.Create(c.Request.Context(), accessKeyUsecase.CreateAccessKeyInput{
		UserID:     info.User.ID,
		Name:       req.Name,
		Scopes:     req.Scopes,
		ExpiryDate: req.ExpiryDate,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, CreateAccessKeyResponse{
		AccessKeyResponse: mapAccessKeyToResponse(output.AccessKey),
		Secret:            output.Secret,
	})
}

// ListHandler lists the authenticated user's access keys.
// GET /v1/access-keys - Requires a valid session.
func (h *AccessKeyHandler) ListHandler(c *gin.Context) {
	info, ok := userHTTP.GetAuthInfo(c.Request.Context())
	if !ok || info == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	accessKeys, err := h.accessKeyManager.List(c.Request.Context(), info.User.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]AccessKeyResponse, 0, len(accessKeys))
	for _, accessKey := range accessKeys {
		responses = append(responses, mapAccessKeyToResponse(accessKey))
	}

	c.JSON(http.StatusOK, gin.H{"access_keys": responses})
}

// RemoveHandler deletes one of the authenticated user's access keys.
// DELETE /v1/access-keys/:key - Requires a valid session.
// Deleting a key the user does not own is indistinguishable from deleting an
// unknown key.
func (h *AccessKeyHandler) RemoveHandler(c *gin.Context) {
	info, ok := userHTTP.GetAuthInfo(c.Request.Context())
	if !ok || info == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	key := c.Param("key")

	// Only the owner's keys are deletable through this endpoint.
	accessKeys, err := h.accessKeyManager.List(c.Request.Context(), info.User.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	owned := false
	for _, accessKey := range accessKeys {
		if accessKey.Key == key {
			owned = true
			break
		}
	}
	if !owned {
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.accessKeyManager.Remove(c.Request.Context(), key); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// TokenHandler exchanges an access key credential pair for a short-lived
// session token.
// POST /v1/access-keys/token - Unauthenticated, rate limited per source IP.
// Any credential failure is 401 with a uniform body.
func (h *AccessKeyHandler) TokenHandler(c *gin.Context) {
	var req TokenExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	token, err := h.accessKeyManager.GetToken(c.Request.Context(), req.Key, req.Secret, req.Data)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
