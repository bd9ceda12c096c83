// Package notification defines the outbound message collaborator.
//
// The core never renders templates: it selects a template by name and
// supplies structured data, and the messenger implementation decides how the
// message is delivered.
package notification

import (
	"context"
	"log/slog"
)

// Message is one outbound notification request.
type Message struct {
	// To is the destination address: an email address or a phone number,
	// depending on the channel the template targets.
	To string

	// Template selects a named message on the delivery side.
	Template string

	// Data carries the template variables. Must never contain credential
	// material beyond single-use tokens explicitly meant for delivery.
	Data map[string]any
}

// Messenger delivers notifications.
type Messenger interface {
	Send(ctx context.Context, msg Message) error
}

// LogMessenger is a Messenger that records deliveries on the structured log.
// Used in development and as the default when no delivery provider is
// configured.
type LogMessenger struct {
	logger *slog.Logger
}

// NewLogMessenger creates a messenger that logs instead of delivering.
func NewLogMessenger(logger *slog.Logger) *LogMessenger {
	return &LogMessenger{logger: logger}
}

// Send logs the notification. The data payload is logged as-is, so callers
// must only place deliverable values in it.
func (l *LogMessenger) Send(ctx context.Context, msg Message) error {
	l.logger.InfoContext(ctx, "notification sent",
		slog.String("to", msg.To),
		slog.String("template", msg.Template),
		slog.Any("data", msg.Data),
	)
	return nil
}
