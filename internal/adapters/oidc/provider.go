// Package oidc provides a generic OpenID Connect identity provider adapter.
// Interactive sign-in uses the resource-owner password grant; sessions are
// renewed with the refresh-token grant and every ID token is verified against
// the issuer's published keys.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/cutdesk/cutdesk/internal/adapters/identitycache"
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/ports"
)

// Provider implements ports.IdentityProvider using OIDC/OAuth2.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client
	verifier   *gooidc.IDTokenVerifier
	cache      identitycache.Cache
	now        func() time.Time
}

var _ ports.IdentityProvider = (*Provider)(nil)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID string
	// ClientSecret is empty for public clients.
	ClientSecret string
	Scope        string
	DiscoveryURL string
	GroupsClaim  string
	Store        ports.StateStore
	HTTPClient   *http.Client // Optional, defaults to a 30s client
	Now          func() time.Time
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider creates a new OIDC provider, fetching the discovery document once.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}
	if config.Store == nil {
		return nil, errors.New("state store is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	scope := config.Scope
	if scope == "" {
		scope = "openid email profile"
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
		httpClient: httpClient,
		verifier:   op.Verifier(&gooidc.Config{ClientID: config.ClientID, Now: now}),
		cache:      identitycache.Cache{Store: config.Store, GroupsClaim: config.GroupsClaim},
		now:        now,
	}, nil
}

func (p *Provider) CurrentUser(ctx context.Context) (*domainauth.User, bool) {
	return p.cache.CurrentUser(ctx)
}

func (p *Provider) Session(ctx context.Context) (domainauth.Tokens, error) {
	id, err := p.cache.Load(ctx)
	if err != nil {
		return domainauth.Tokens{}, err
	}
	if id.Username == "" {
		return domainauth.Tokens{}, domainauth.ErrNoUserFound
	}
	if tok := id.Tokens(); tok.Valid(p.now()) {
		return tok, nil
	}
	if id.RefreshToken == "" {
		return domainauth.Tokens{}, domainauth.NewProviderError(domainauth.ExcNotAuthorized, "no refresh token", nil)
	}

	src := p.config.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: id.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return domainauth.Tokens{}, mapTokenError("refresh token", err)
	}
	out, _, err := p.tokens(ctx, tok)
	if err != nil {
		return domainauth.Tokens{}, err
	}
	if out.RefreshToken == "" {
		out.RefreshToken = id.RefreshToken
	}
	if err = p.cache.Renew(ctx, id, out); err != nil {
		return domainauth.Tokens{}, err
	}
	return out, nil
}

func (p *Provider) Authenticate(ctx context.Context, email, password string) (domainauth.SignInResult, error) {
	tok, err := p.config.PasswordCredentialsToken(p.clientContext(ctx), email, password)
	if err != nil {
		return domainauth.SignInResult{}, mapTokenError("password grant", err)
	}
	out, username, err := p.tokens(ctx, tok)
	if err != nil {
		return domainauth.SignInResult{}, err
	}
	if username == "" {
		username = email
	}
	if err = p.cache.Remember(ctx, username, out); err != nil {
		return domainauth.SignInResult{}, err
	}
	return domainauth.SignInResult{Tokens: out}, nil
}

func (p *Provider) CompleteNewPassword(context.Context, domainauth.NewPasswordChallenge, string) error {
	return fmt.Errorf("oidc: new password challenge: %w", errors.ErrUnsupported)
}

func (p *Provider) SignUp(context.Context, domainauth.SignUpRequest) (domainauth.SignUpResult, error) {
	return domainauth.SignUpResult{}, fmt.Errorf("oidc: sign up: %w", errors.ErrUnsupported)
}

func (p *Provider) ConfirmSignUp(context.Context, string, string) error {
	return fmt.Errorf("oidc: confirm sign up: %w", errors.ErrUnsupported)
}

func (p *Provider) ForgotPassword(context.Context, string) error {
	return fmt.Errorf("oidc: forgot password: %w", errors.ErrUnsupported)
}

func (p *Provider) ConfirmForgotPassword(context.Context, string, string, string) error {
	return fmt.Errorf("oidc: confirm forgot password: %w", errors.ErrUnsupported)
}

// SignOut forgets the cached credentials. The IdP session itself is left to
// expire.
func (p *Provider) SignOut(ctx context.Context) error {
	return p.cache.Forget(ctx)
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// idTokenClaims is the subset of verified claims used to name the user.
type idTokenClaims struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	CognitoUsername   string `json:"cognito:username"`
}

// tokens converts a token response, verifying the ID token when present.
func (p *Provider) tokens(ctx context.Context, tok *oauth2.Token) (domainauth.Tokens, string, error) {
	out := domainauth.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	rawID, ok := tok.Extra("id_token").(string)
	if !ok || rawID == "" {
		return out, "", nil
	}
	idTok, err := p.verifier.Verify(p.clientContext(ctx), rawID)
	if err != nil {
		return domainauth.Tokens{}, "", fmt.Errorf("verify id_token: %w", err)
	}
	var claims idTokenClaims
	if err = idTok.Claims(&claims); err != nil {
		return domainauth.Tokens{}, "", fmt.Errorf("parse id_token claims: %w", err)
	}
	out.IDToken = rawID
	if out.ExpiresAt.IsZero() || idTok.Expiry.Before(out.ExpiresAt) {
		out.ExpiresAt = idTok.Expiry
	}
	return out, firstNonEmpty(claims.CognitoUsername, claims.PreferredUsername, claims.Email, claims.Sub), nil
}

// mapTokenError keeps invalid_grant distinguishable as a named auth failure.
func mapTokenError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
		msg := re.ErrorDescription
		if msg == "" {
			msg = "invalid grant"
		}
		return domainauth.NewProviderError(domainauth.ExcNotAuthorized, msg, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
