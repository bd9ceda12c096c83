package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	accessKeyHTTP "github.com/allisson/identity/internal/accesskey/http"
	credentialHTTP "github.com/allisson/identity/internal/credential/http"
	"github.com/allisson/identity/internal/metrics"
	roleHTTP "github.com/allisson/identity/internal/role/http"
	userHTTP "github.com/allisson/identity/internal/user/http"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
)

// ServerConfig carries the settings for the API server.
type ServerConfig struct {
	Host              string
	Port              int
	CORSEnabled       bool
	CORSAllowOrigins  string
	LoginRateLimitRPS float64
	LoginRateBurst    int
}

// Handlers groups the request handlers registered on the API server.
type Handlers struct {
	Auth      *userHTTP.AuthHandler
	User      *userHTTP.UserHandler
	Role      *roleHTTP.RoleHandler
	AccessKey *accessKeyHTTP.AccessKeyHandler
	Password  *credentialHTTP.PasswordHandler
}

// Server is the API HTTP server.
type Server struct {
	server *http.Server
	ready  chan struct{}
	logger *slog.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(
	cfg ServerConfig,
	handlers Handlers,
	userManager userUsecase.Manager,
	metricsProvider *metrics.Provider,
	logger *slog.Logger,
) *Server {
	ready := make(chan struct{})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(LoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), "identity"))
	}

	router.GET("/health", HealthHandler)
	router.GET("/ready", ReadinessHandler(ready))

	registerRoutes(router, cfg, handlers, userManager, logger)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ready:  ready,
		logger: logger,
	}
}

func registerRoutes(
	router *gin.Engine,
	cfg ServerConfig,
	handlers Handlers,
	userManager userUsecase.Manager,
	logger *slog.Logger,
) {
	rateLimit := userHTTP.LoginRateLimitMiddleware(cfg.LoginRateLimitRPS, cfg.LoginRateBurst, logger)
	authenticate := userHTTP.AuthenticationMiddleware(userManager, logger)

	v1 := router.Group("/v1")

	// Credential exchange endpoints are unauthenticated and rate limited per
	// source IP.
	v1.POST("/login", rateLimit, handlers.Auth.LoginHandler)
	v1.POST("/access-keys/token", rateLimit, handlers.AccessKey.TokenHandler)
	v1.POST("/password/forgot", rateLimit, handlers.Password.ForgotHandler)
	v1.POST("/password/reset", rateLimit, handlers.Password.ResetByTokenHandler)
	v1.GET("/password/reset/:token", rateLimit, handlers.Password.ValidateTokenHandler)

	session := v1.Group("", authenticate)
	session.GET("/session", handlers.Auth.SessionHandler)
	session.POST("/password/change", handlers.Password.ChangeHandler)
	session.POST("/password/reset-user",
		userHTTP.RequirePermission(userHTTP.PermissionUserWrite, logger),
		handlers.Password.ResetUserHandler)

	users := session.Group("/users")
	userRead := userHTTP.RequirePermission(userHTTP.PermissionUserRead, logger)
	userWrite := userHTTP.RequirePermission(userHTTP.PermissionUserWrite, logger)
	users.GET("", userRead, handlers.User.ListHandler)
	users.GET("/:username", userRead, handlers.User.GetHandler)
	users.POST("", userWrite, handlers.User.CreateHandler)
	users.POST("/:username/roles", userWrite, handlers.User.AddRolesHandler)
	users.DELETE("/:username/roles/:role", userWrite, handlers.User.RemoveRoleHandler)
	users.POST("/:username/suspend", userWrite, handlers.User.SuspendHandler)
	users.POST("/:username/restore", userWrite, handlers.User.RestoreHandler)
	users.POST("/:username/approve", userWrite, handlers.User.ApproveHandler)

	roles := session.Group("/roles")
	roleRead := userHTTP.RequirePermission(roleHTTP.PermissionRoleRead, logger)
	roleWrite := userHTTP.RequirePermission(roleHTTP.PermissionRoleWrite, logger)
	roles.GET("", roleRead, handlers.Role.ListHandler)
	roles.GET("/valid", roleRead, handlers.Role.ValidRolesHandler)
	roles.GET("/:name", roleRead, handlers.Role.GetHandler)
	roles.POST("", roleWrite, handlers.Role.AddHandler)
	roles.DELETE("/:name", roleWrite, handlers.Role.RemoveHandler)
	roles.POST("/:name/permissions", roleWrite, handlers.Role.AddPermissionsHandler)
	roles.DELETE("/:name/permissions", roleWrite, handlers.Role.RemovePermissionsHandler)

	// Access keys are scoped to the authenticated owner, no extra permission
	// beyond a valid session.
	accessKeys := session.Group("/access-keys")
	accessKeys.POST("", handlers.AccessKey.CreateHandler)
	accessKeys.GET("", handlers.AccessKey.ListHandler)
	accessKeys.DELETE("/:key", handlers.AccessKey.RemoveHandler)
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")

	select {
	case <-s.ready:
	default:
		close(s.ready)
	}

	return s.server.Shutdown(ctx)
}
