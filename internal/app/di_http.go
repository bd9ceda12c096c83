package app

import (
	"fmt"

	accessKeyHTTP "github.com/allisson/identity/internal/accesskey/http"
	credentialHTTP "github.com/allisson/identity/internal/credential/http"
	appHTTP "github.com/allisson/identity/internal/http"
	roleHTTP "github.com/allisson/identity/internal/role/http"
	userHTTP "github.com/allisson/identity/internal/user/http"
)

// HTTPServer returns the API HTTP server instance.
func (c *Container) HTTPServer() (*appHTTP.Server, error) {
	c.httpServerInit.Do(func() {
		logger := c.Logger()

		userManager, err := c.UserManager()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get user manager for http server: %w", err)
			return
		}

		roleRegistry, err := c.RoleRegistry()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get role registry for http server: %w", err)
			return
		}

		accessKeyManager, err := c.AccessKeyManager()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get access key manager for http server: %w", err)
			return
		}

		credentialLifecycle, err := c.CredentialLifecycle()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get credential lifecycle for http server: %w", err)
			return
		}

		metricsProvider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get metrics provider for http server: %w", err)
			return
		}

		handlers := appHTTP.Handlers{
			Auth:      userHTTP.NewAuthHandler(userManager, logger),
			User:      userHTTP.NewUserHandler(userManager, logger),
			Role:      roleHTTP.NewRoleHandler(roleRegistry, logger),
			AccessKey: accessKeyHTTP.NewAccessKeyHandler(accessKeyManager, logger),
			Password:  credentialHTTP.NewPasswordHandler(credentialLifecycle, logger),
		}

		cfg := appHTTP.ServerConfig{
			Host:              c.config.ServerHost,
			Port:              c.config.ServerPort,
			CORSEnabled:       c.config.CORSEnabled,
			CORSAllowOrigins:  c.config.CORSAllowOrigins,
			LoginRateLimitRPS: c.config.LoginRateLimitRequestsPerSec,
			LoginRateBurst:    c.config.LoginRateLimitBurst,
		}

		c.httpServer = appHTTP.NewServer(cfg, handlers, userManager, metricsProvider, logger)
	})
	if err, exists := c.initErrors["httpServer"]; exists {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*appHTTP.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		metricsProvider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
			return
		}
		if metricsProvider == nil {
			return
		}

		c.metricsServer = appHTTP.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			metricsProvider,
		)
	})
	if err, exists := c.initErrors["metricsServer"]; exists {
		return nil, err
	}
	return c.metricsServer, nil
}
