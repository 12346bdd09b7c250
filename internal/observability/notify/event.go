// Package notify delivers user-facing session notices: session expiry,
// login redirects and skipped demo-mode mutations.
package notify

import (
	"context"
	"time"
)

// Kind identifies a notice.
type Kind string

const (
	KindSessionExpired  Kind = "session_expired"
	KindRedirectToLogin Kind = "redirect_to_login"
	KindDemoIntercepted Kind = "demo_intercepted"
)

// Notice is the canonical payload handed to sinks.
type Notice struct {
	Kind Kind
	// Message is the user-visible text.
	Message string
	// ReturnURL is set for login redirects.
	ReturnURL string
	// Operation is set for demo interceptions, e.g. "DELETE services/2".
	Operation  string
	OccurredAt time.Time
}

// Sink describes a destination capable of showing notices.
type Sink interface {
	Notify(ctx context.Context, n Notice) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, n Notice) error

// Notify implements the Sink interface.
func (f SinkFunc) Notify(ctx context.Context, n Notice) error {
	if f == nil {
		return nil
	}
	return f(ctx, n)
}
