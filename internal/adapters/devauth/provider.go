// Package devauth provides an in-memory identity provider for local
// development and tests. It implements every flow of the hosted user pool:
// registration with confirmation codes, temporary passwords, password reset
// and refresh tokens.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cutdesk/cutdesk/internal/adapters/identitycache"
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/ports"
)

const (
	defaultTokenTTL    = time.Hour
	defaultCodeTTL     = time.Hour
	minPasswordLength  = 8
	maxFailedAttempts  = 5
	confirmationDigits = 6
)

// UserConfig seeds one pool account.
type UserConfig struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Groups   []string
	// Temporary accounts must answer a new-password challenge on first sign-in.
	Temporary bool
}

// Config controls the dev identity provider.
type Config struct {
	Store      ports.StateStore
	SigningKey []byte
	Users      []UserConfig
	// GroupsClaim defaults to "cognito:groups".
	GroupsClaim string
	// DefaultGroups are assigned to self-registered accounts.
	DefaultGroups []string
	TokenTTL      time.Duration // default 1h when zero
	CodeTTL       time.Duration // default 1h when zero
	Now           func() time.Time
}

type poolUser struct {
	email        string
	password     string
	name         string
	phone        string
	groups       []string
	confirmed    bool
	temporary    bool
	signupCode   string
	resetCode    string
	resetExpires time.Time
	failed       int
}

// Provider implements ports.IdentityProvider backed by an in-memory pool.
type Provider struct {
	cache identitycache.Cache
	key   []byte
	claim string
	defGr []string
	ttl   time.Duration
	code  time.Duration
	now   func() time.Time

	mu       sync.Mutex
	users    map[string]*poolUser
	refresh  map[string]string // refresh token -> email
	sessions map[string]string // challenge session -> email
}

var _ ports.IdentityProvider = (*Provider)(nil)

// NewProvider constructs a dev identity provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Store == nil {
		return nil, errors.New("dev auth: Store is required")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("dev auth: SigningKey is required")
	}
	p := &Provider{
		cache:    identitycache.Cache{Store: cfg.Store, GroupsClaim: cfg.GroupsClaim},
		key:      append([]byte(nil), cfg.SigningKey...),
		claim:    cfg.GroupsClaim,
		defGr:    append([]string(nil), cfg.DefaultGroups...),
		ttl:      cfg.TokenTTL,
		code:     cfg.CodeTTL,
		now:      cfg.Now,
		users:    make(map[string]*poolUser),
		refresh:  make(map[string]string),
		sessions: make(map[string]string),
	}
	if p.claim == "" {
		p.claim = domainauth.DefaultGroupsClaim
	}
	if p.ttl == 0 {
		p.ttl = defaultTokenTTL
	}
	if p.code == 0 {
		p.code = defaultCodeTTL
	}
	if p.now == nil {
		p.now = time.Now
	}
	for _, u := range cfg.Users {
		if u.Email == "" {
			return nil, errors.New("dev auth: user Email is required")
		}
		p.users[normalize(u.Email)] = &poolUser{
			email:     u.Email,
			password:  u.Password,
			name:      u.Name,
			phone:     u.Phone,
			groups:    append([]string(nil), u.Groups...),
			confirmed: true,
			temporary: u.Temporary,
		}
	}
	return p, nil
}

func (p *Provider) CurrentUser(ctx context.Context) (*domainauth.User, bool) {
	return p.cache.CurrentUser(ctx)
}

// Session returns the cached tokens, minting new ones from the refresh token
// once they expire.
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

	p.mu.Lock()
	email, ok := p.refresh[id.RefreshToken]
	var u *poolUser
	if ok {
		u = p.users[normalize(email)]
	}
	p.mu.Unlock()
	if u == nil {
		return domainauth.Tokens{}, domainauth.NewProviderError(domainauth.ExcNotAuthorized, "Refresh Token has been revoked", nil)
	}

	tok, err := p.mint(u)
	if err != nil {
		return domainauth.Tokens{}, err
	}
	tok.RefreshToken = id.RefreshToken
	if err = p.cache.Renew(ctx, id, tok); err != nil {
		return domainauth.Tokens{}, err
	}
	return tok, nil
}

func (p *Provider) Authenticate(ctx context.Context, email, password string) (domainauth.SignInResult, error) {
	p.mu.Lock()
	u, ok := p.users[normalize(email)]
	if !ok {
		p.mu.Unlock()
		return domainauth.SignInResult{}, domainauth.NewProviderError(domainauth.ExcUserNotFound, "User does not exist.", nil)
	}
	if u.failed >= maxFailedAttempts {
		p.mu.Unlock()
		return domainauth.SignInResult{}, domainauth.NewProviderError(domainauth.ExcNotAuthorized, "Password attempts exceeded", nil)
	}
	if u.password != password {
		u.failed++
		p.mu.Unlock()
		return domainauth.SignInResult{}, domainauth.NewProviderError(domainauth.ExcNotAuthorized, "Incorrect username or password.", nil)
	}
	u.failed = 0
	if !u.confirmed {
		p.mu.Unlock()
		return domainauth.SignInResult{}, domainauth.NewProviderError(domainauth.ExcUserNotConfirmed, "User is not confirmed.", nil)
	}
	if u.temporary {
		session, err := randomString(32)
		if err != nil {
			p.mu.Unlock()
			return domainauth.SignInResult{}, fmt.Errorf("generate challenge session: %w", err)
		}
		p.sessions[session] = u.email
		p.mu.Unlock()
		return domainauth.SignInResult{Challenge: &domainauth.NewPasswordChallenge{Username: u.email, Session: session}}, nil
	}
	p.mu.Unlock()

	tok, err := p.mint(u)
	if err != nil {
		return domainauth.SignInResult{}, err
	}
	refresh, err := randomString(48)
	if err != nil {
		return domainauth.SignInResult{}, fmt.Errorf("generate refresh token: %w", err)
	}
	tok.RefreshToken = refresh

	p.mu.Lock()
	p.refresh[refresh] = u.email
	p.mu.Unlock()

	if err = p.cache.Remember(ctx, u.email, tok); err != nil {
		return domainauth.SignInResult{}, err
	}
	return domainauth.SignInResult{Tokens: tok}, nil
}

func (p *Provider) CompleteNewPassword(_ context.Context, ch domainauth.NewPasswordChallenge, newPassword string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	email, ok := p.sessions[ch.Session]
	if !ok || normalize(email) != normalize(ch.Username) {
		return domainauth.NewProviderError(domainauth.ExcNotAuthorized, "Invalid session for the user.", nil)
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	u := p.users[normalize(email)]
	u.password = newPassword
	u.temporary = false
	delete(p.sessions, ch.Session)
	return nil
}

func (p *Provider) SignUp(_ context.Context, req domainauth.SignUpRequest) (domainauth.SignUpResult, error) {
	if req.Email == "" {
		return domainauth.SignUpResult{}, domainauth.NewProviderError(domainauth.ExcInvalidParameter, "Username cannot be empty", nil)
	}
	if err := checkPassword(req.Password); err != nil {
		return domainauth.SignUpResult{}, err
	}
	code, err := numericCode(confirmationDigits)
	if err != nil {
		return domainauth.SignUpResult{}, fmt.Errorf("generate confirmation code: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	key := normalize(req.Email)
	if _, exists := p.users[key]; exists {
		return domainauth.SignUpResult{}, domainauth.NewProviderError(domainauth.ExcUsernameExists, "An account with the given email already exists.", nil)
	}
	p.users[key] = &poolUser{
		email:      req.Email,
		password:   req.Password,
		name:       req.FullName,
		phone:      req.Phone,
		groups:     append([]string(nil), p.defGr...),
		signupCode: code,
	}
	return domainauth.SignUpResult{
		UserSub:             "dev-" + key,
		CodeDeliveryMedium:  "EMAIL",
		CodeDeliveryAddress: req.Email,
	}, nil
}

func (p *Provider) ConfirmSignUp(_ context.Context, email, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[normalize(email)]
	if !ok {
		return domainauth.NewProviderError(domainauth.ExcUserNotFound, "Username/client id combination not found.", nil)
	}
	if u.confirmed {
		return domainauth.NewProviderError(domainauth.ExcNotAuthorized, "User cannot be confirmed. Current status is CONFIRMED", nil)
	}
	if u.signupCode != code {
		return domainauth.NewProviderError(domainauth.ExcCodeMismatch, "Invalid verification code provided, please try again.", nil)
	}
	u.confirmed = true
	u.signupCode = ""
	return nil
}

func (p *Provider) ForgotPassword(_ context.Context, email string) error {
	code, err := numericCode(confirmationDigits)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[normalize(email)]
	if !ok {
		return domainauth.NewProviderError(domainauth.ExcUserNotFound, "Username/client id combination not found.", nil)
	}
	u.resetCode = code
	u.resetExpires = p.now().Add(p.code)
	return nil
}

func (p *Provider) ConfirmForgotPassword(_ context.Context, email, code, newPassword string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[normalize(email)]
	if !ok {
		return domainauth.NewProviderError(domainauth.ExcUserNotFound, "Username/client id combination not found.", nil)
	}
	if u.failed >= maxFailedAttempts {
		return domainauth.NewProviderError(domainauth.ExcLimitExceeded, "Attempt limit exceeded, please try after some time.", nil)
	}
	if u.resetCode == "" || u.resetCode != code {
		u.failed++
		return domainauth.NewProviderError(domainauth.ExcCodeMismatch, "Invalid verification code provided, please try again.", nil)
	}
	if !p.now().Before(u.resetExpires) {
		return domainauth.NewProviderError(domainauth.ExcExpiredCode, "Invalid code provided, please request a code again.", nil)
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	u.password = newPassword
	u.resetCode = ""
	u.failed = 0
	u.temporary = false
	return nil
}

// SignOut revokes the cached refresh token and forgets the user.
func (p *Provider) SignOut(ctx context.Context) error {
	id, err := p.cache.Load(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.refresh, id.RefreshToken)
	p.mu.Unlock()
	return p.cache.Forget(ctx)
}

// PendingCode returns the outstanding sign-up or reset code for email. It
// stands in for the delivery channel.
func (p *Provider) PendingCode(email string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[normalize(email)]
	if !ok {
		return "", false
	}
	if u.signupCode != "" {
		return u.signupCode, true
	}
	if u.resetCode != "" {
		return u.resetCode, true
	}
	return "", false
}

// RevokeAll invalidates every issued refresh token.
func (p *Provider) RevokeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refresh = make(map[string]string)
}

func (p *Provider) mint(u *poolUser) (domainauth.Tokens, error) {
	now := p.now()
	exp := now.Add(p.ttl)
	base := jwt.MapClaims{
		"sub":              "dev-" + normalize(u.email),
		"email":            u.email,
		"cognito:username": u.email,
		"iat":              now.Unix(),
		"exp":              exp.Unix(),
	}
	if len(u.groups) > 0 {
		base[p.claim] = append([]string(nil), u.groups...)
	}
	if u.name != "" {
		base["name"] = u.name
	}

	idClaims := jwt.MapClaims{"token_use": "id"}
	accClaims := jwt.MapClaims{"token_use": "access"}
	for k, v := range base {
		idClaims[k] = v
		accClaims[k] = v
	}

	idTok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, idClaims).SignedString(p.key)
	if err != nil {
		return domainauth.Tokens{}, fmt.Errorf("sign id token: %w", err)
	}
	accTok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accClaims).SignedString(p.key)
	if err != nil {
		return domainauth.Tokens{}, fmt.Errorf("sign access token: %w", err)
	}
	return domainauth.Tokens{IDToken: idTok, AccessToken: accTok, ExpiresAt: exp}, nil
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLength {
		return domainauth.NewProviderError(domainauth.ExcInvalidPassword,
			fmt.Sprintf("Password did not conform with policy: Password not long enough (min %d)", minPasswordLength), nil)
	}
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func numericCode(n int) (string, error) {
	var sb strings.Builder
	for range n {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}

func randomString(n int) (string, error) {
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		return s, nil
	}
	return s[:n], nil
}
