package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultGroupsClaim is the Cognito group-membership claim.
const DefaultGroupsClaim = "cognito:groups"

// Claims is the subset of identity token claims the client reads.
type Claims struct {
	Subject   string
	Email     string
	Username  string
	Groups    []string
	ExpiresAt time.Time
}

// DisplayEmail returns the email claim, falling back to the username claim.
func (c Claims) DisplayEmail() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Username
}

var errEmptyToken = errors.New("empty token")

// DecodeClaims decodes the payload segment of a JWT without verifying its
// signature. The result is advisory: it drives what the client shows, while
// the backend independently verifies signature and claims on each request.
func DecodeClaims(token, groupsClaim string) (Claims, error) {
	if token == "" {
		return Claims{}, errEmptyToken
	}
	if groupsClaim == "" {
		groupsClaim = DefaultGroupsClaim
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("decode token claims: %w", err)
	}

	c := Claims{
		Subject:  stringClaim(mc, "sub"),
		Email:    stringClaim(mc, "email"),
		Username: firstNonEmpty(stringClaim(mc, "cognito:username"), stringClaim(mc, "username"), stringClaim(mc, "preferred_username")),
		Groups:   stringsClaim(mc, groupsClaim),
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	if v, ok := mc[key].(string); ok {
		return v
	}
	return ""
}

// stringsClaim reads a claim holding an array of strings. A single string is
// accepted as a one-element list; any other shape yields nil.
func stringsClaim(mc jwt.MapClaims, key string) []string {
	switch v := mc[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
