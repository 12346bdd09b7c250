package auth

import "time"

// State is the client's persisted session record. It replaces the flat
// browser-local keys with a typed schema; JSON names match the web client keys
// so a store it wrote can be read without migration.
type State struct {
	IDToken     string `json:"idToken,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	// LegacyToken mirrors IDToken for consumers still reading "jwtToken".
	LegacyToken     string `json:"jwtToken,omitempty"`
	Role            Role   `json:"userRole,omitempty"`
	Email           string `json:"userEmail,omitempty"`
	SidebarExpanded bool   `json:"sidebarExpanded,omitempty"`
	DemoMode        bool   `json:"demoMode,omitempty"`
	ReturnURL       string `json:"returnUrl,omitempty"`

	// Identity is owned by the identity provider adapter (the SDK's own cache).
	// Application code reads tokens from the fields above, never from here.
	Identity IdentityCache `json:"identity,omitzero"`
}

// IdentityCache is the provider-side credential cache.
type IdentityCache struct {
	Username     string    `json:"lastAuthUser,omitempty"`
	IDToken      string    `json:"idToken,omitempty"`
	AccessToken  string    `json:"accessToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitzero"`
}

// Tokens returns the cached provider tokens.
func (c IdentityCache) Tokens() Tokens {
	return Tokens{
		IDToken:      c.IDToken,
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt,
	}
}

// Remember stores tokens for username. An empty refresh token keeps the
// previous one, since refresh responses usually omit it.
func (c *IdentityCache) Remember(username string, t Tokens) {
	if username != "" {
		c.Username = username
	}
	c.IDToken = t.IDToken
	c.AccessToken = t.AccessToken
	if t.RefreshToken != "" {
		c.RefreshToken = t.RefreshToken
	}
	c.ExpiresAt = t.ExpiresAt
}

// BearerToken returns the token to attach to API calls: the identity token
// when present, the access token otherwise.
func (s State) BearerToken() string {
	if s.IDToken != "" {
		return s.IDToken
	}
	return s.AccessToken
}

// ApplyTokens writes the token keys together with the resolved role and email.
func (s *State) ApplyTokens(t Tokens, role Role, email string) {
	s.IDToken = t.IDToken
	s.AccessToken = t.AccessToken
	s.LegacyToken = t.IDToken
	s.Role = role
	if email != "" {
		s.Email = email
	}
}

// ClearSession removes tokens, role, email and return URL while keeping
// UI preferences (sidebar, demo mode) and the provider cache untouched.
func (s *State) ClearSession() {
	s.IDToken = ""
	s.AccessToken = ""
	s.LegacyToken = ""
	s.Role = RoleNone
	s.Email = ""
	s.ReturnURL = ""
}

// ClearTokens removes only the token keys.
func (s *State) ClearTokens() {
	s.IDToken = ""
	s.AccessToken = ""
	s.LegacyToken = ""
}
