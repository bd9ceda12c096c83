// Package http provides the HTTP servers and shared gin middleware.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// LoggerMiddleware logs each request through slog after the handler chain
// completes.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", requestid.Get(c)),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("http request", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("http request", attrs...)
		default:
			logger.Info("http request", attrs...)
		}
	}
}

// HealthHandler reports liveness.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ReadinessHandler reports readiness, turning unavailable once the server
// context is cancelled during shutdown.
func ReadinessHandler(done <-chan struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		select {
		case <-done:
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		default:
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
		}
	}
}
