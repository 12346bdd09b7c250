package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the identity provider used for sign-in.
type AuthMode string

const (
	// AuthModeCognito uses a Cognito user pool.
	AuthModeCognito AuthMode = "cognito"
	// AuthModeOIDC uses a generic OIDC provider with the password grant.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock uses the in-memory dev pool (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "cognito", "oidc", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: cognito, oidc, mock)", v)
	}
}

// RolePolicy selects how identity groups become roles.
type RolePolicy string

const (
	// RolePolicyStrict denies tokens without a recognised group.
	RolePolicyStrict RolePolicy = "strict"
	// RolePolicyLenient maps every non-admin token to the user role.
	RolePolicyLenient RolePolicy = "lenient"
)

// UnmarshalText implements encoding.TextUnmarshaler for RolePolicy.
func (p *RolePolicy) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "strict", "lenient":
		*p = RolePolicy(v)
		return nil
	default:
		return fmt.Errorf("invalid RolePolicy: %q (valid options: strict, lenient)", v)
	}
}

// CognitoConfig contains user pool settings.
type CognitoConfig struct {
	Region       string `env:"REGION"        envDefault:"eu-west-1"`
	UserPoolID   string `env:"USER_POOL_ID"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	// Endpoint overrides the service endpoint, e.g. a local emulator.
	Endpoint string `env:"ENDPOINT"`
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups offline_access"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig seeds the in-memory pool used when AUTH_MODE=mock.
type DevAuthConfig struct {
	Email      string        `env:"EMAIL"       envDefault:"dev@example.com"`
	Password   string        `env:"PASSWORD"    envDefault:"dev-password"`
	Name       string        `env:"NAME"        envDefault:"Dev User"`
	Groups     []string      `env:"GROUPS"      envDefault:"Admin"                   envSeparator:";"`
	SigningKey string        `env:"SIGNING_KEY" envDefault:"cutdesk-dev-signing-key"`
	TokenTTL   time.Duration `env:"TOKEN_TTL"   envDefault:"1h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"cognito"`

	// SignInTimeout bounds a sign-in or session restore round trip.
	SignInTimeout time.Duration `env:"AUTH_SIGNIN_TIMEOUT" envDefault:"2500ms"`

	RolePolicy  RolePolicy `env:"AUTH_ROLE_POLICY"  envDefault:"strict"`
	AdminGroup  string     `env:"AUTH_ADMIN_GROUP"  envDefault:"Admin"`
	UserGroup   string     `env:"AUTH_USER_GROUP"   envDefault:"User"`
	GroupsClaim string     `env:"AUTH_GROUPS_CLAIM" envDefault:"cognito:groups"`

	Cognito CognitoConfig `envPrefix:"COGNITO_"`
	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// Sanitize trims values and restores defaults for blank ones.
func (c *AuthConfig) Sanitize() {
	if c.SignInTimeout <= 0 {
		c.SignInTimeout = 2500 * time.Millisecond
	}
	if c.RolePolicy == "" {
		c.RolePolicy = RolePolicyStrict
	}
	c.AdminGroup = strings.TrimSpace(c.AdminGroup)
	c.UserGroup = strings.TrimSpace(c.UserGroup)
	if c.GroupsClaim = strings.TrimSpace(c.GroupsClaim); c.GroupsClaim == "" {
		c.GroupsClaim = "cognito:groups"
	}
	c.Cognito.Region = strings.TrimSpace(c.Cognito.Region)
	c.Cognito.UserPoolID = strings.TrimSpace(c.Cognito.UserPoolID)
	c.Cognito.ClientID = strings.TrimSpace(c.Cognito.ClientID)
	c.Cognito.Endpoint = strings.TrimSpace(c.Cognito.Endpoint)
	c.OAuth.DiscoveryURL = strings.TrimSpace(c.OAuth.DiscoveryURL)
	c.OAuth.ClientID = strings.TrimSpace(c.OAuth.ClientID)
	if c.DevAuth.TokenTTL <= 0 {
		c.DevAuth.TokenTTL = time.Hour
	}
}

// Validate checks the settings required by the selected mode. Mock mode is
// refused outside development.
func (c *AuthConfig) Validate(isDev bool) error {
	switch c.Mode {
	case AuthModeCognito:
		if c.Cognito.ClientID == "" || c.Cognito.Region == "" {
			return errors.New("COGNITO_CLIENT_ID and COGNITO_REGION are required for AUTH_MODE=cognito")
		}
	case AuthModeOIDC:
		if c.OAuth.ClientID == "" || c.OAuth.DiscoveryURL == "" {
			return errors.New("OAUTH_CLIENT_ID and OAUTH_DISCOVERY_URL are required for AUTH_MODE=oidc")
		}
	case AuthModeMock:
		if !isDev {
			return errors.New("AUTH_MODE=mock requires DEV=true")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Mode)
	}
	if c.RolePolicy == RolePolicyStrict && c.AdminGroup == "" && c.UserGroup == "" {
		return errors.New("strict role policy needs AUTH_ADMIN_GROUP or AUTH_USER_GROUP")
	}
	return nil
}
