// Package auth contains domain-level types for authentication and the
// client-side session record. It is pure and free of framework/adapter concerns.
package auth

import (
	"strings"
	"time"
)

// Role represents the advisory application role derived from identity token
// groups. It only decides what the client renders; the backend re-verifies
// the token and its claims on every API call.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
	// RoleNone means no recognised group was present. Route guards treat it as
	// "deny and redirect to login", never as baseline access.
	RoleNone Role = ""
)

// Login and landing routes, kept as the web client defines them so return
// URLs recorded by either client stay meaningful.
const (
	LoginRoute          = "/accesso/login"
	AdminLandingRoute   = "/admin"
	DefaultLandingRoute = "/dashboard"
)

// DefaultRoute returns the landing route for a role.
func DefaultRoute(r Role) string {
	switch r {
	case RoleAdmin:
		return AdminLandingRoute
	case RoleUser:
		return DefaultLandingRoute
	default:
		return LoginRoute
	}
}

// ParseRole converts a persisted role string. Unknown values yield RoleNone.
func ParseRole(s string) Role {
	switch strings.TrimSpace(s) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleUser):
		return RoleUser
	default:
		return RoleNone
	}
}

// User is the locally cached handle of the current identity.
type User struct {
	Username string
	Email    string
}

// Tokens is the token pair (plus the SDK-held refresh token) minted by the
// identity provider.
type Tokens struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the tokens are present and unexpired at now.
func (t Tokens) Valid(now time.Time) bool {
	if t.IDToken == "" && t.AccessToken == "" {
		return false
	}
	return t.ExpiresAt.IsZero() || now.Before(t.ExpiresAt)
}

// NewPasswordChallenge is returned by sign-in when the account was provisioned
// with a temporary password. No session exists until it is completed.
type NewPasswordChallenge struct {
	Username           string
	Session            string
	RequiredAttributes []string
}

// SignInResult is the provider outcome of an interactive authentication.
// Exactly one of Tokens (non-zero) or Challenge (non-nil) is set.
type SignInResult struct {
	Tokens    Tokens
	Challenge *NewPasswordChallenge
}

// SignUpRequest registers a new, unconfirmed account.
type SignUpRequest struct {
	Email    string
	Password string
	FullName string
	// Phone in E.164 format, e.g. +393331234567.
	Phone string
}

// SignUpResult reports how the confirmation code was delivered.
type SignUpResult struct {
	UserSub             string
	Confirmed           bool
	CodeDeliveryMedium  string
	CodeDeliveryAddress string
}

// Decision is the outcome of an advisory route guard.
type Decision struct {
	Allowed  bool
	Redirect string
}

// AuthorizeRoute mirrors the client route guard: a matching role is allowed,
// any other known role is sent to its own landing page, and no role is sent
// to the login screen.
func AuthorizeRoute(required, current Role) Decision {
	if current != RoleNone && current == required {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: DefaultRoute(current)}
}
