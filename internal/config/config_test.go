package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "postgres", cfg.DBDriver)
				assert.Equal(t, 25, cfg.DBMaxOpenConnections)
				assert.Equal(t, 5, cfg.DBMaxIdleConnections)
				assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, 14400*time.Second, cfg.SessionTokenExpiration)
				assert.Equal(t, 12, cfg.PasswordMinLength)
				assert.True(t, cfg.PasswordRequireUpper)
				assert.False(t, cfg.PasswordRequireSpecial)
				assert.Equal(t, 5.0, cfg.LoginRateLimitRequestsPerSec)
				assert.Equal(t, 10, cfg.LoginRateLimitBurst)
				assert.False(t, cfg.CORSEnabled)
				assert.True(t, cfg.MetricsEnabled)
				assert.Equal(t, "identity", cfg.MetricsNamespace)
				assert.Equal(t, 8081, cfg.MetricsPort)
			},
		},
		{
			name: "load custom server configuration",
			envVars: map[string]string{
				"SERVER_HOST": "localhost",
				"SERVER_PORT": "9090",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.ServerHost)
				assert.Equal(t, 9090, cfg.ServerPort)
			},
		},
		{
			name: "load custom database configuration",
			envVars: map[string]string{
				"DB_DRIVER":               "mysql",
				"DB_CONNECTION_STRING":    "user:password@tcp(localhost:3306)/testdb",
				"DB_MAX_OPEN_CONNECTIONS": "50",
				"DB_MAX_IDLE_CONNECTIONS": "10",
				"DB_CONN_MAX_LIFETIME":    "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mysql", cfg.DBDriver)
				assert.Equal(t, "user:password@tcp(localhost:3306)/testdb", cfg.DBConnectionString)
				assert.Equal(t, 50, cfg.DBMaxOpenConnections)
				assert.Equal(t, 10, cfg.DBMaxIdleConnections)
				assert.Equal(t, 10*time.Minute, cfg.DBConnMaxLifetime)
			},
		},
		{
			name: "load custom session configuration",
			envVars: map[string]string{
				"SESSION_TOKEN_EXPIRATION_SECONDS": "600",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 600*time.Second, cfg.SessionTokenExpiration)
			},
		},
		{
			name: "load custom password policy",
			envVars: map[string]string{
				"PASSWORD_MIN_LENGTH":      "8",
				"PASSWORD_REQUIRE_UPPER":   "false",
				"PASSWORD_REQUIRE_SPECIAL": "true",
			},
			validate: func(t *testing.T, cfg *Config) {
				policy := cfg.PasswordPolicy()
				assert.Equal(t, 8, policy.MinLength)
				assert.False(t, policy.RequireUpper)
				assert.True(t, policy.RequireSpecial)
			},
		},
		{
			name: "load secret configuration",
			envVars: map[string]string{
				"APP_SECRET":           "0123456789abcdef0123456789abcdef",
				"KMS_KEY_URI":          "base64key://",
				"KMS_ENCRYPTED_SECRET": "cGF5bG9hZA==",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.AppSecret)
				assert.Equal(t, "base64key://", cfg.KMSKeyURI)
				assert.Equal(t, "cGF5bG9hZA==", cfg.KMSEncryptedSecret)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			cfg := Load()

			tt.validate(t, cfg)
		})
	}
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		want     string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"error", "release"},
		{"unknown", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, cfg.GetGinMode())
		})
	}
}
