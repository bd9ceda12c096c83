package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	"github.com/allisson/identity/internal/httputil"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
	appValidation "github.com/allisson/identity/internal/validation"
)

// AuthHandler handles login and session introspection.
type AuthHandler struct {
	userManager userUsecase.Manager
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userManager userUsecase.Manager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userManager: userManager,
		logger:      logger,
	}
}

// LoginRequest contains the credentials presented at login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, appValidation.NotBlank),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse contains the session token minted on successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// SessionResponse describes the authenticated session: the account and its
// aggregated permission set.
type SessionResponse struct {
	User        UserResponse `json:"user"`
	Permissions []string     `json:"permissions"`
}

// LoginHandler authenticates a username/password pair and mints a session
// token.
// POST /v1/login - Unauthenticated, rate limited per source IP.
// Returns 200 OK with token, 401 on any credential failure.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	user, token, err := h.userManager.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  mapUserToResponse(user),
	})
}

// SessionHandler returns the authenticated session.
// GET /v1/session - Requires a valid Bearer token.
func (h *AuthHandler) SessionHandler(c *gin.Context) {
	info, ok := GetAuthInfo(c.Request.Context())
	if !ok || info == nil {
		// AuthenticationMiddleware must run first.
		httputil.HandleErrorGin(c, errUnauthenticated(), h.logger)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		User:        mapUserToResponse(info.User),
		Permissions: info.Permissions,
	})
}
