// Package app provides the dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	accessKeyUsecase "github.com/allisson/identity/internal/accesskey/usecase"
	"github.com/allisson/identity/internal/config"
	credentialUsecase "github.com/allisson/identity/internal/credential/usecase"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	"github.com/allisson/identity/internal/database"
	appHTTP "github.com/allisson/identity/internal/http"
	"github.com/allisson/identity/internal/metrics"
	"github.com/allisson/identity/internal/notification"
	roleUsecase "github.com/allisson/identity/internal/role/usecase"
	tokenService "github.com/allisson/identity/internal/token/service"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	config *config.Config

	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	hasher          cryptoService.Hasher
	tokenManager    tokenService.Manager
	messenger       notification.Messenger
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	userRepo      userUsecase.UserRepository
	roleRepo      roleUsecase.RoleRepository
	accessKeyRepo accessKeyUsecase.AccessKeyRepository

	userManager         userUsecase.Manager
	roleRegistry        roleUsecase.Registry
	accessKeyManager    accessKeyUsecase.Manager
	credentialLifecycle credentialUsecase.Lifecycle

	httpServer    *appHTTP.Server
	metricsServer *appHTTP.MetricsServer

	mu                      sync.Mutex
	loggerInit              sync.Once
	dbInit                  sync.Once
	txManagerInit           sync.Once
	hasherInit              sync.Once
	tokenManagerInit        sync.Once
	messengerInit           sync.Once
	metricsProviderInit     sync.Once
	businessMetricsInit     sync.Once
	userRepoInit            sync.Once
	roleRepoInit            sync.Once
	accessKeyRepoInit       sync.Once
	userManagerInit         sync.Once
	roleRegistryInit        sync.Once
	accessKeyManagerInit    sync.Once
	credentialLifecycleInit sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if err, exists := c.initErrors["db"]; exists {
		return nil, err
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err, exists := c.initErrors["txManager"]; exists {
		return nil, err
	}
	return c.txManager, nil
}

// Hasher returns the password hasher.
func (c *Container) Hasher() cryptoService.Hasher {
	c.hasherInit.Do(func() {
		c.hasher = cryptoService.NewHasher()
	})
	return c.hasher
}

// TokenManager returns the session token manager.
// The process secret is resolved on first access, either directly from
// configuration or decrypted through the configured KMS keeper.
func (c *Container) TokenManager() (tokenService.Manager, error) {
	c.tokenManagerInit.Do(func() {
		secret, err := tokenService.LoadSecret(context.Background(), tokenService.SecretSource{
			Secret:        c.config.AppSecret,
			KMSKeyURI:     c.config.KMSKeyURI,
			KMSCiphertext: c.config.KMSEncryptedSecret,
		})
		if err != nil {
			c.initErrors["tokenManager"] = fmt.Errorf("failed to load app secret: %w", err)
			return
		}

		manager, err := tokenService.NewManager(secret)
		if err != nil {
			c.initErrors["tokenManager"] = fmt.Errorf("failed to create token manager: %w", err)
			return
		}
		c.tokenManager = manager
	})
	if err, exists := c.initErrors["tokenManager"]; exists {
		return nil, err
	}
	return c.tokenManager, nil
}

// Messenger returns the notification messenger.
func (c *Container) Messenger() notification.Messenger {
	c.messengerInit.Do(func() {
		c.messenger = notification.NewLogMessenger(c.Logger())
	})
	return c.messenger
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if err, exists := c.initErrors["metricsProvider"]; exists {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
// A no-op recorder is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}

		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if err, exists := c.initErrors["businessMetrics"]; exists {
		return nil, err
	}
	return c.businessMetrics, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
