package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRoute(t *testing.T) {
	assert.Equal(t, "/admin", DefaultRoute(RoleAdmin))
	assert.Equal(t, "/dashboard", DefaultRoute(RoleUser))
	assert.Equal(t, "/accesso/login", DefaultRoute(RoleNone))
}

func TestAuthorizeRoute(t *testing.T) {
	tests := []struct {
		name     string
		required Role
		current  Role
		want     Decision
	}{
		{"matching role", RoleAdmin, RoleAdmin, Decision{Allowed: true}},
		{"user on admin route", RoleAdmin, RoleUser, Decision{Redirect: "/dashboard"}},
		{"admin on user route", RoleUser, RoleAdmin, Decision{Redirect: "/admin"}},
		{"no role is denied", RoleUser, RoleNone, Decision{Redirect: "/accesso/login"}},
		{"no role on no-role route", RoleNone, RoleNone, Decision{Redirect: "/accesso/login"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AuthorizeRoute(tt.required, tt.current))
		})
	}
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("Admin"))
	assert.Equal(t, RoleUser, ParseRole(" User "))
	assert.Equal(t, RoleNone, ParseRole("Editor"))
}

func TestState_BearerToken(t *testing.T) {
	assert.Equal(t, "id", State{IDToken: "id", AccessToken: "acc"}.BearerToken())
	assert.Equal(t, "acc", State{AccessToken: "acc"}.BearerToken())
	assert.Empty(t, State{}.BearerToken())
}

func TestState_ClearSessionKeepsPreferences(t *testing.T) {
	s := State{
		IDToken: "id", AccessToken: "acc", LegacyToken: "id",
		Role: RoleAdmin, Email: "a@b.c", ReturnURL: "/admin/orders",
		SidebarExpanded: true, DemoMode: true,
	}
	s.ClearSession()

	assert.Empty(t, s.BearerToken())
	assert.Empty(t, s.LegacyToken)
	assert.Equal(t, RoleNone, s.Role)
	assert.Empty(t, s.Email)
	assert.Empty(t, s.ReturnURL)
	assert.True(t, s.SidebarExpanded)
	assert.True(t, s.DemoMode)
}

func TestState_JSONKeepsOriginalKeys(t *testing.T) {
	s := State{IDToken: "i", AccessToken: "a", LegacyToken: "i", Role: RoleUser, Email: "e", DemoMode: true, ReturnURL: "/x"}
	b, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	for _, key := range []string{"idToken", "accessToken", "jwtToken", "userRole", "userEmail", "demoMode", "returnUrl"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "identity")
}

func TestIdentityCache_RememberKeepsRefreshToken(t *testing.T) {
	var c IdentityCache
	c.Remember("ada", Tokens{IDToken: "i1", AccessToken: "a1", RefreshToken: "r1"})
	c.Remember("", Tokens{IDToken: "i2", AccessToken: "a2"})

	assert.Equal(t, "ada", c.Username)
	assert.Equal(t, "i2", c.IDToken)
	assert.Equal(t, "r1", c.RefreshToken)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestDecodeClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signedToken(t, jwt.MapClaims{
		"sub":              "abc",
		"email":            "ada@example.com",
		"cognito:username": "ada",
		"cognito:groups":   []string{"Admin", "User"},
		"exp":              exp.Unix(),
	})

	c, err := DecodeClaims(tok, "")
	require.NoError(t, err)
	assert.Equal(t, "abc", c.Subject)
	assert.Equal(t, "ada@example.com", c.DisplayEmail())
	assert.Equal(t, []string{"Admin", "User"}, c.Groups)
	assert.True(t, exp.Equal(c.ExpiresAt))
}

func TestDecodeClaims_IgnoresSignature(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"cognito:groups":["User"],"cognito:username":"bob"}`))
	tok := fmt.Sprintf("%s.%s.not-a-signature", header, payload)

	c, err := DecodeClaims(tok, DefaultGroupsClaim)
	require.NoError(t, err)
	assert.Equal(t, []string{"User"}, c.Groups)
	assert.Equal(t, "bob", c.DisplayEmail())
}

func TestDecodeClaims_CustomGroupsClaimAndMissingGroups(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"groups": "Admin"})

	c, err := DecodeClaims(tok, "groups")
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin"}, c.Groups)

	c, err = DecodeClaims(tok, DefaultGroupsClaim)
	require.NoError(t, err)
	assert.Empty(t, c.Groups)
}

func TestDecodeClaims_Malformed(t *testing.T) {
	_, err := DecodeClaims("", "")
	require.Error(t, err)

	_, err = DecodeClaims("only-one-segment", "")
	require.Error(t, err)
}

func TestProviderError_IsSentinel(t *testing.T) {
	err := fmt.Errorf("confirm: %w", NewProviderError(ExcCodeMismatch, "Invalid verification code provided", nil))

	assert.ErrorIs(t, err, ErrCodeMismatch)
	assert.NotErrorIs(t, err, ErrExpiredCode)
	assert.Equal(t, ExcCodeMismatch, ErrorName(err))
	assert.Empty(t, ErrorName(errors.New("plain")))
}
