package auth

import (
	"errors"
	"fmt"
)

// Identity provider exception names. Callers map these to user-facing text,
// so adapters must preserve them instead of collapsing failures.
const (
	ExcNotAuthorized     = "NotAuthorizedException"
	ExcUserNotConfirmed  = "UserNotConfirmedException"
	ExcUserNotFound      = "UserNotFoundException"
	ExcLimitExceeded     = "LimitExceededException"
	ExcCodeMismatch      = "CodeMismatchException"
	ExcExpiredCode       = "ExpiredCodeException"
	ExcUsernameExists    = "UsernameExistsException"
	ExcInvalidPassword   = "InvalidPasswordException"
	ExcInvalidParameter  = "InvalidParameterException"
	ExcTooManyRequests   = "TooManyRequestsException"
	ExcPasswordResetReqd = "PasswordResetRequiredException"
)

var (
	ErrNotAuthorized     = errors.New("not authorized")
	ErrUserNotConfirmed  = errors.New("user not confirmed")
	ErrUserNotFound      = errors.New("user not found")
	ErrLimitExceeded     = errors.New("attempt limit exceeded")
	ErrCodeMismatch      = errors.New("code mismatch")
	ErrExpiredCode       = errors.New("code expired")
	ErrUsernameExists    = errors.New("username exists")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrPasswordResetReqd = errors.New("password reset required")

	// ErrNoUserFound is returned when no cached user handle exists.
	ErrNoUserFound = errors.New("no user found")
	// ErrAuthTimeout is the AUTH_TIMEOUT condition: the provider did not answer
	// within the client-side sign-in deadline.
	ErrAuthTimeout = errors.New("AUTH_TIMEOUT")
	// ErrNewPasswordRequired signals an outstanding temporary-password challenge.
	ErrNewPasswordRequired = errors.New("new password required")
	// ErrNoRole is returned when the identity token carries no recognised group
	// under the strict role policy.
	ErrNoRole = errors.New("no recognised role")
	// ErrSessionInvalid is returned when the provider reports an unusable session.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrSessionEnded is returned by a refresh that lost a race with sign-out
	// or session expiry. Nothing was written.
	ErrSessionEnded = errors.New("session ended during refresh")
)

var sentinelByName = map[string]error{
	ExcNotAuthorized:     ErrNotAuthorized,
	ExcUserNotConfirmed:  ErrUserNotConfirmed,
	ExcUserNotFound:      ErrUserNotFound,
	ExcLimitExceeded:     ErrLimitExceeded,
	ExcTooManyRequests:   ErrLimitExceeded,
	ExcCodeMismatch:      ErrCodeMismatch,
	ExcExpiredCode:       ErrExpiredCode,
	ExcUsernameExists:    ErrUsernameExists,
	ExcInvalidPassword:   ErrInvalidPassword,
	ExcInvalidParameter:  ErrInvalidParameter,
	ExcPasswordResetReqd: ErrPasswordResetReqd,
}

// ProviderError is a named identity provider failure.
type ProviderError struct {
	// Name is the provider exception name, e.g. "CodeMismatchException".
	Name    string
	Message string
	Cause   error
}

// NewProviderError builds a ProviderError for name.
func NewProviderError(name, message string, cause error) *ProviderError {
	return &ProviderError{Name: name, Message: message, Cause: cause}
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Message)
	}
	return e.Name
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Is matches the sentinel registered for the exception name.
func (e *ProviderError) Is(target error) bool {
	s, ok := sentinelByName[e.Name]
	return ok && s == target
}

// ErrorName returns the provider exception name carried by err, if any.
func ErrorName(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Name
	}
	return ""
}
