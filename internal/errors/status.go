package errors

import (
	"context"
	"errors"
	"net/http"
)

// FromStatus maps a backend HTTP status to an AppError. Success statuses
// yield nil.
func FromStatus(status int, message string) *AppError {
	if status >= 200 && status < 300 {
		return nil
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &AppError{Code: codeForStatus(status), Message: message}
}

func codeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return ErrCodeNotFound
	case status == http.StatusConflict:
		return ErrCodeConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrCodeValidation
	case status == http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case status == http.StatusForbidden:
		return ErrCodeForbidden
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusTooManyRequests:
		return ErrCodeUnavailable
	default:
		return ErrCodeInternal
	}
}

// FromContext maps context errors to Timeout or Canceled. Other errors are
// returned unchanged.
func FromContext(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	}
	return err
}
