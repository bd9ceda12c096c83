package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/httputil"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
)

// AuthenticationMiddleware authenticates requests via a Bearer session token
// in the Authorization header. The validated session (account plus aggregated
// permissions) is stored in the request context for downstream handlers.
//
// Error handling:
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Invalid or expired token, suspended or removed account → 401 Unauthorized
func AuthenticationMiddleware(
	userManager userUsecase.Manager,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		token := authHeader[len(bearerPrefix):]
		if token == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		info, err := userManager.ValidateToken(c.Request.Context(), token)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithAuthInfo(c.Request.Context(), info)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequirePermission authorizes the authenticated session against one
// permission. It must run after AuthenticationMiddleware.
//
//   - No session in context → 401 Unauthorized
//   - Permission not in the session's aggregated set → 403 Forbidden
func RequirePermission(permission string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, ok := GetAuthInfo(c.Request.Context())
		if !ok || info == nil {
			logger.Error("authorization middleware: no authenticated session in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !info.HasPermission(permission) {
			logger.Debug("authorization failed",
				slog.String("username", info.User.Username),
				slog.String("permission", permission),
			)
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
