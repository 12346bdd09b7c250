// Package errors derives low-cardinality tag values from errors.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

// Classifier is implemented by errors that name their own class.
type Classifier interface {
	ErrorClass() string
}

// Classify returns a normalized error class suitable for tagging metrics and
// logs. Self-classifying errors, identity provider exceptions and application
// error codes are preferred; otherwise the innermost concrete type is used.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var c Classifier
	if goerrors.As(err, &c) {
		if class := c.ErrorClass(); class != "" {
			return normalize(class)
		}
	}
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}
	if name := domainauth.ErrorName(err); name != "" {
		return normalize(strings.TrimSuffix(name, "Exception"))
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := normalize(t.String())
	if name == "" {
		return "unknown"
	}
	return name
}

// normalize lower-cases s, turning CamelCase boundaries and dots into underscores.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	var sb strings.Builder
	for i, r := range s {
		switch {
		case r == '.' || r == '-' || r == ' ':
			sb.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
				sb.WriteByte('_')
			}
			sb.WriteRune(r + ('a' - 'A'))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
