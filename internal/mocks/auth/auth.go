// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"sync"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*FakeIdentityProvider)(nil)
	_ ports.RoleMapper       = (*StaticRoleMapper)(nil)
	_ ports.SessionNotifier  = (*RecordingNotifier)(nil)
	_ ports.DemoSignal       = (*RecordingDemoSignal)(nil)
)

// FakeIdentityProvider simulates an identity service. Each method defers to
// its Func field when set; otherwise it serves User and Tokens. Calls are
// counted per method name.
type FakeIdentityProvider struct {
	CurrentUserFunc           func(ctx context.Context) (*domainauth.User, bool)
	SessionFunc               func(ctx context.Context) (domainauth.Tokens, error)
	AuthenticateFunc          func(ctx context.Context, email, password string) (domainauth.SignInResult, error)
	CompleteNewPasswordFunc   func(ctx context.Context, ch domainauth.NewPasswordChallenge, newPassword string) error
	SignUpFunc                func(ctx context.Context, req domainauth.SignUpRequest) (domainauth.SignUpResult, error)
	ConfirmSignUpFunc         func(ctx context.Context, email, code string) error
	ForgotPasswordFunc        func(ctx context.Context, email string) error
	ConfirmForgotPasswordFunc func(ctx context.Context, email, code, newPassword string) error
	SignOutFunc               func(ctx context.Context) error

	// User is the cached handle; nil means nobody is signed in.
	User   *domainauth.User
	Tokens domainauth.Tokens

	mu    sync.Mutex
	calls map[string]int
}

// NewFakeIdentityProvider returns a provider with a signed-in user.
func NewFakeIdentityProvider(user domainauth.User, tokens domainauth.Tokens) *FakeIdentityProvider {
	return &FakeIdentityProvider{User: &user, Tokens: tokens}
}

// Calls returns how many times method was invoked.
func (f *FakeIdentityProvider) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeIdentityProvider) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
}

func (f *FakeIdentityProvider) CurrentUser(ctx context.Context) (*domainauth.User, bool) {
	f.record("CurrentUser")
	if f.CurrentUserFunc != nil {
		return f.CurrentUserFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.User == nil {
		return nil, false
	}
	u := *f.User
	return &u, true
}

func (f *FakeIdentityProvider) Session(ctx context.Context) (domainauth.Tokens, error) {
	f.record("Session")
	if f.SessionFunc != nil {
		return f.SessionFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.User == nil {
		return domainauth.Tokens{}, domainauth.ErrNoUserFound
	}
	return f.Tokens, nil
}

func (f *FakeIdentityProvider) Authenticate(ctx context.Context, email, password string) (domainauth.SignInResult, error) {
	f.record("Authenticate")
	if f.AuthenticateFunc != nil {
		return f.AuthenticateFunc(ctx, email, password)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.User = &domainauth.User{Username: email, Email: email}
	return domainauth.SignInResult{Tokens: f.Tokens}, nil
}

func (f *FakeIdentityProvider) CompleteNewPassword(ctx context.Context, ch domainauth.NewPasswordChallenge, newPassword string) error {
	f.record("CompleteNewPassword")
	if f.CompleteNewPasswordFunc != nil {
		return f.CompleteNewPasswordFunc(ctx, ch, newPassword)
	}
	return nil
}

func (f *FakeIdentityProvider) SignUp(ctx context.Context, req domainauth.SignUpRequest) (domainauth.SignUpResult, error) {
	f.record("SignUp")
	if f.SignUpFunc != nil {
		return f.SignUpFunc(ctx, req)
	}
	return domainauth.SignUpResult{UserSub: "sub-" + req.Email, CodeDeliveryMedium: "EMAIL", CodeDeliveryAddress: req.Email}, nil
}

func (f *FakeIdentityProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	f.record("ConfirmSignUp")
	if f.ConfirmSignUpFunc != nil {
		return f.ConfirmSignUpFunc(ctx, email, code)
	}
	return nil
}

func (f *FakeIdentityProvider) ForgotPassword(ctx context.Context, email string) error {
	f.record("ForgotPassword")
	if f.ForgotPasswordFunc != nil {
		return f.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (f *FakeIdentityProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	f.record("ConfirmForgotPassword")
	if f.ConfirmForgotPasswordFunc != nil {
		return f.ConfirmForgotPasswordFunc(ctx, email, code, newPassword)
	}
	return nil
}

func (f *FakeIdentityProvider) SignOut(ctx context.Context) error {
	f.record("SignOut")
	if f.SignOutFunc != nil {
		return f.SignOutFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.User = nil
	return nil
}

// StaticRoleMapper maps groups by simple string membership rules. Groups
// matching neither name yield RoleNone.
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if m.UserGroup != "" && g == m.UserGroup {
			return domainauth.RoleUser
		}
	}
	return domainauth.RoleNone
}

// RecordingNotifier captures session expiry side effects.
type RecordingNotifier struct {
	mu        sync.Mutex
	notices   []string
	redirects []string
}

func (n *RecordingNotifier) SessionExpired(_ context.Context, notice string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *RecordingNotifier) RedirectToLogin(_ context.Context, returnURL string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, returnURL)
}

// Notices returns a copy of the recorded notices.
func (n *RecordingNotifier) Notices() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

// Redirects returns a copy of the recorded return URLs.
func (n *RecordingNotifier) Redirects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.redirects...)
}

// RecordingDemoSignal captures demo-mode interceptions.
type RecordingDemoSignal struct {
	mu  sync.Mutex
	ops []string
}

func (d *RecordingDemoSignal) OpenDemoModal(_ context.Context, operation string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, operation)
}

// Operations returns the intercepted operations in order.
func (d *RecordingDemoSignal) Operations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ops...)
}
