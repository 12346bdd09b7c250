// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
)

// IdentityProvider is the identity service boundary: interactive
// authentication, session retrieval and refresh, registration, and password
// reset. Adapters keep their own credential cache (the refresh token) in
// State.Identity.
type IdentityProvider interface {
	// CurrentUser returns the locally cached user handle without network access.
	CurrentUser(ctx context.Context) (*domainauth.User, bool)

	// Session validates the cached session, refreshing it when expired.
	// It returns domainauth.ErrNoUserFound when no user handle exists.
	Session(ctx context.Context) (domainauth.Tokens, error)

	// Authenticate starts interactive sign-in.
	Authenticate(ctx context.Context, email, password string) (domainauth.SignInResult, error)

	// CompleteNewPassword answers a temporary-password challenge. It does not
	// yield tokens; the caller signs in again with the new password.
	CompleteNewPassword(ctx context.Context, ch domainauth.NewPasswordChallenge, newPassword string) error

	SignUp(ctx context.Context, req domainauth.SignUpRequest) (domainauth.SignUpResult, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error

	// SignOut invalidates the cached user handle.
	SignOut(ctx context.Context) error
}

// StateStore persists the client session record.
type StateStore interface {
	Get(ctx context.Context) (domainauth.State, error)
	Set(ctx context.Context, st domainauth.State) error
	// Update applies fn to the current record and writes the result as one
	// step. When fn returns an error nothing is written.
	Update(ctx context.Context, fn func(*domainauth.State) error) error
	Clear(ctx context.Context) error
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// SessionNotifier performs the user-facing side effects of session expiry.
type SessionNotifier interface {
	// SessionExpired shows a user-visible notice.
	SessionExpired(ctx context.Context, notice string)
	// RedirectToLogin forces navigation to the login screen.
	RedirectToLogin(ctx context.Context, returnURL string)
}

// DemoSignal tells the UI to explain that a mutating action was skipped.
type DemoSignal interface {
	OpenDemoModal(ctx context.Context, operation string)
}
