package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

var (
	// ErrSessionExpired is returned after session-expired handling already
	// ran for the call: the notice was shown, state cleared and the login
	// redirect issued. Callers must not report it again.
	ErrSessionExpired = errors.New("session expired")
	// ErrNetwork wraps transport failures where no response was received.
	ErrNetwork = errors.New("network error")
	// ErrInvalidTransition reports an illegal call state change.
	ErrInvalidTransition = errors.New("invalid call state transition")
)

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Unwrap exposes the matching application error so apperrors predicates
// such as IsNotFound apply to backend responses.
func (e *APIError) Unwrap() error {
	return apperrors.FromStatus(e.StatusCode, e.Message)
}

// ErrorClass tags metrics with the response status.
func (e *APIError) ErrorClass() string {
	return "http_" + strconv.Itoa(e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == status
}

func newAPIError(status int, body []byte, requestID string) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    errorMessage(status, body),
		Body:       body,
		RequestID:  requestID,
	}
}

// errorMessage reads {"error":{"message":...}} or {"message":...}, falling
// back to the status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		if len(payload.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if json.Unmarshal(payload.Error, &flat) == nil && flat != "" {
				return flat
			}
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(http.StatusText(status)); text != "" {
		return text
	}
	return "unexpected status"
}
