package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	apperrors "github.com/cutdesk/cutdesk/internal/errors"
	"github.com/cutdesk/cutdesk/internal/observability/metrics"
	"github.com/cutdesk/cutdesk/internal/ports"
)

const (
	// DefaultSignInTimeout bounds interactive sign-in and session restore.
	DefaultSignInTimeout = 2500 * time.Millisecond
	// DefaultRefreshTimeout bounds one shared token refresh.
	DefaultRefreshTimeout = 30 * time.Second
)

// ErrSessionSuperseded is returned by Refresh when the session was ended
// while the refresh was in flight. Nothing is written in that case.
var ErrSessionSuperseded = domainauth.ErrSessionEnded

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Provider ports.IdentityProvider
	Store    ports.StateStore
	Roles    ports.RoleMapper
	// GroupsClaim names the identity token claim carrying group membership.
	GroupsClaim   string
	SignInTimeout time.Duration
	// RefreshTimeout bounds a shared refresh, which runs detached from the
	// context of the caller that started it.
	RefreshTimeout time.Duration
	Metrics        *metrics.ClientMetrics
	Logger         *slog.Logger
}

// SessionService owns the client session lifecycle: sign-in, restore,
// refresh, registration, password reset and sign-out. It is the only writer
// of the token, role and email fields of the persisted record.
type SessionService struct {
	provider       ports.IdentityProvider
	store          ports.StateStore
	roles          ports.RoleMapper
	claim          string
	timeout        time.Duration
	refreshTimeout time.Duration
	metrics        *metrics.ClientMetrics
	logger         *slog.Logger
	validate       *validator.Validate

	refreshes singleflight.Group
	// epoch increments whenever the session is ended; a refresh started in an
	// older epoch must not write.
	epoch atomic.Uint64
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if opts.Store == nil {
		return nil, errors.New("state store is required")
	}
	if opts.Roles == nil {
		return nil, errors.New("role mapper is required")
	}
	timeout := opts.SignInTimeout
	if timeout <= 0 {
		timeout = DefaultSignInTimeout
	}
	refreshTimeout := opts.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = DefaultRefreshTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	claim := opts.GroupsClaim
	if claim == "" {
		claim = domainauth.DefaultGroupsClaim
	}
	return &SessionService{
		provider:       opts.Provider,
		store:          opts.Store,
		roles:          opts.Roles,
		claim:          claim,
		timeout:        timeout,
		refreshTimeout: refreshTimeout,
		metrics:        opts.Metrics,
		logger:         logger.With("component", "session"),
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// CurrentUser returns the cached user handle without network access.
func (s *SessionService) CurrentUser(ctx context.Context) (*domainauth.User, bool) {
	return s.provider.CurrentUser(ctx)
}

// GetSession validates the provider session, refreshing it when expired.
func (s *SessionService) GetSession(ctx context.Context) (domainauth.Tokens, error) {
	t, err := s.provider.Session(ctx)
	if err != nil {
		return domainauth.Tokens{}, fmt.Errorf("get session: %w", err)
	}
	return t, nil
}

// State returns the persisted session record.
func (s *SessionService) State(ctx context.Context) (domainauth.State, error) {
	return s.store.Get(ctx)
}

// Refresh obtains fresh tokens and persists them together with the role and
// email derived from the new identity token. Concurrent callers share one
// in-flight refresh and receive the same result, including the same error
// value. The refresh is not tied to any caller's context: a caller that gives
// up gets its context error while the others keep waiting.
func (s *SessionService) Refresh(ctx context.Context) (domainauth.Tokens, error) {
	ch := s.refreshes.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		return s.refresh(rctx)
	})
	select {
	case r := <-ch:
		s.metrics.Refresh(r.Shared, r.Err)
		if r.Err != nil {
			return domainauth.Tokens{}, r.Err
		}
		return r.Val.(domainauth.Tokens), nil
	case <-ctx.Done():
		return domainauth.Tokens{}, fmt.Errorf("wait for refresh: %w", ctx.Err())
	}
}

func (s *SessionService) refresh(ctx context.Context) (domainauth.Tokens, error) {
	started := s.epoch.Load()

	t, err := s.GetSession(ctx)
	if err != nil {
		return domainauth.Tokens{}, err
	}

	err = s.store.Update(ctx, func(st *domainauth.State) error {
		if s.epoch.Load() != started {
			return ErrSessionSuperseded
		}
		role, email := st.Role, st.Email
		if c, cerr := domainauth.DecodeClaims(t.IDToken, s.claim); cerr == nil {
			role = s.roles.Map(c.Groups)
			if e := c.DisplayEmail(); e != "" {
				email = e
			}
		}
		st.ApplyTokens(t, role, email)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionSuperseded) {
			return domainauth.Tokens{}, err
		}
		return domainauth.Tokens{}, fmt.Errorf("persist refreshed tokens: %w", err)
	}
	s.logger.DebugContext(ctx, "session refreshed")
	return t, nil
}

// SignInOutcome is the result of an interactive sign-in. Either Challenge is
// set and nothing was persisted, or the session is established and Redirect
// names where to go next.
type SignInOutcome struct {
	Role      domainauth.Role
	Email     string
	Redirect  string
	Challenge *domainauth.NewPasswordChallenge
}

// SignIn authenticates with email and password. The provider call is bounded
// by the sign-in timeout; exceeding it yields domainauth.ErrAuthTimeout.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*SignInOutcome, error) {
	start := time.Now()
	out, err := s.signIn(ctx, strings.TrimSpace(email), password)
	s.metrics.SignIn(time.Since(start), err)
	return out, err
}

func (s *SessionService) signIn(ctx context.Context, email, password string) (*SignInOutcome, error) {
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	res, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (domainauth.SignInResult, error) {
		return s.provider.Authenticate(ctx, email, password)
	})
	if err != nil {
		return nil, err
	}
	if res.Challenge != nil {
		return &SignInOutcome{Challenge: res.Challenge}, nil
	}

	role, claimEmail := s.resolve(res.Tokens)
	if role == domainauth.RoleNone {
		if serr := s.provider.SignOut(ctx); serr != nil {
			s.logger.WarnContext(ctx, "sign out after role rejection failed", "error", serr)
		}
		return nil, domainauth.ErrNoRole
	}
	if claimEmail == "" {
		claimEmail = email
	}

	out := &SignInOutcome{Role: role, Email: claimEmail}
	err = s.store.Update(ctx, func(st *domainauth.State) error {
		st.ApplyTokens(res.Tokens, role, claimEmail)
		out.Redirect = st.ReturnURL
		if out.Redirect == "" {
			out.Redirect = domainauth.DefaultRoute(role)
		}
		st.ReturnURL = ""
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s.logger.InfoContext(ctx, "signed in", "role", role)
	return out, nil
}

// RestoreOutcome reports the result of the start-up session check.
type RestoreOutcome struct {
	Authenticated bool
	Role          domainauth.Role
	Redirect      string
}

// RestoreSession checks for a usable session at start-up. On success the
// tokens and role are persisted again. Otherwise the tokens are cleared and
// currentPath is remembered as the return URL for the next sign-in.
func (s *SessionService) RestoreSession(ctx context.Context, currentPath string) (RestoreOutcome, error) {
	t, err := withTimeout(ctx, s.timeout, s.GetSession)
	if err == nil {
		role, email := s.resolve(t)
		if role != domainauth.RoleNone {
			uerr := s.store.Update(ctx, func(st *domainauth.State) error {
				st.ApplyTokens(t, role, email)
				return nil
			})
			if uerr != nil {
				return RestoreOutcome{}, fmt.Errorf("persist session: %w", uerr)
			}
			return RestoreOutcome{Authenticated: true, Role: role, Redirect: domainauth.DefaultRoute(role)}, nil
		}
		err = domainauth.ErrNoRole
	}
	s.logger.DebugContext(ctx, "no usable session", "error", err)

	uerr := s.store.Update(ctx, func(st *domainauth.State) error {
		st.ClearTokens()
		if p := strings.TrimSpace(currentPath); p != "" && p != domainauth.LoginRoute {
			st.ReturnURL = p
		}
		return nil
	})
	if uerr != nil {
		return RestoreOutcome{}, fmt.Errorf("clear session: %w", uerr)
	}
	return RestoreOutcome{Redirect: domainauth.LoginRoute}, nil
}

// CompleteNewPasswordChallenge answers a temporary-password challenge and
// signs in with the new password.
func (s *SessionService) CompleteNewPasswordChallenge(ctx context.Context, ch domainauth.NewPasswordChallenge, newPassword string) (*SignInOutcome, error) {
	if ch.Session == "" || ch.Username == "" {
		return nil, apperrors.Validation("challenge is incomplete")
	}
	if newPassword == "" {
		return nil, apperrors.ValidationField("password", "new password is required")
	}
	if err := s.provider.CompleteNewPassword(ctx, ch, newPassword); err != nil {
		return nil, fmt.Errorf("complete new password: %w", err)
	}
	return s.SignIn(ctx, ch.Username, newPassword)
}

// SignUpInput registers a new account.
type SignUpInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	FullName string `validate:"required"`
	Phone    string `validate:"required,e164"`
}

// SignUp validates the input and registers an unconfirmed account.
func (s *SessionService) SignUp(ctx context.Context, in SignUpInput) (domainauth.SignUpResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := s.validateInput(in); err != nil {
		return domainauth.SignUpResult{}, err
	}

	res, err := s.provider.SignUp(ctx, domainauth.SignUpRequest{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
		Phone:    in.Phone,
	})
	if err != nil {
		return domainauth.SignUpResult{}, fmt.Errorf("sign up: %w", err)
	}
	return res, nil
}

// ConfirmSignUp confirms a registration with the emailed code.
func (s *SessionService) ConfirmSignUp(ctx context.Context, email, code string) error {
	email, code = strings.TrimSpace(email), strings.TrimSpace(code)
	if email == "" || code == "" {
		return apperrors.Validation("email and code are required")
	}
	if err := s.provider.ConfirmSignUp(ctx, email, code); err != nil {
		return fmt.Errorf("confirm sign up: %w", err)
	}
	return nil
}

// ForgotPassword sends a password reset code.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.ValidationField("email", "email is required")
	}
	if err := s.provider.ForgotPassword(ctx, email); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ConfirmForgotPassword sets a new password using a reset code.
func (s *SessionService) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	email, code = strings.TrimSpace(email), strings.TrimSpace(code)
	if email == "" || code == "" || newPassword == "" {
		return apperrors.Validation("email, code and new password are required")
	}
	if err := s.provider.ConfirmForgotPassword(ctx, email, code, newPassword); err != nil {
		return fmt.Errorf("confirm forgot password: %w", err)
	}
	return nil
}

// SignOut ends the provider session and clears tokens, role, email and the
// return URL. UI preferences are kept. Local state is cleared even when the
// provider call fails.
func (s *SessionService) SignOut(ctx context.Context) error {
	s.epoch.Add(1)
	perr := s.provider.SignOut(ctx)

	if err := s.store.Update(ctx, func(st *domainauth.State) error {
		st.ClearSession()
		return nil
	}); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if perr != nil {
		return fmt.Errorf("provider sign out: %w", perr)
	}
	return nil
}

// Expire terminates an expired session, clearing every persisted key.
func (s *SessionService) Expire(ctx context.Context) error {
	s.epoch.Add(1)
	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.WarnContext(ctx, "provider sign out on expiry failed", "error", err)
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	s.metrics.SessionExpired()
	s.logger.InfoContext(ctx, "session expired")
	return nil
}

// Role returns the persisted advisory role.
func (s *SessionService) Role(ctx context.Context) (domainauth.Role, error) {
	st, err := s.store.Get(ctx)
	if err != nil {
		return domainauth.RoleNone, err
	}
	return st.Role, nil
}

// Authorize applies the route guard for a view requiring role required.
func (s *SessionService) Authorize(ctx context.Context, required domainauth.Role) (domainauth.Decision, error) {
	st, err := s.store.Get(ctx)
	if err != nil {
		return domainauth.Decision{}, err
	}
	if st.BearerToken() == "" {
		return domainauth.Decision{Redirect: domainauth.LoginRoute}, nil
	}
	return domainauth.AuthorizeRoute(required, st.Role), nil
}

// SetDemoMode persists the demo-mode preference.
func (s *SessionService) SetDemoMode(ctx context.Context, on bool) error {
	return s.store.Update(ctx, func(st *domainauth.State) error {
		st.DemoMode = on
		return nil
	})
}

// SetSidebarExpanded persists the sidebar preference.
func (s *SessionService) SetSidebarExpanded(ctx context.Context, expanded bool) error {
	return s.store.Update(ctx, func(st *domainauth.State) error {
		st.SidebarExpanded = expanded
		return nil
	})
}

// resolve maps the identity token to a role and display email. An
// undecodable token yields RoleNone.
func (s *SessionService) resolve(t domainauth.Tokens) (domainauth.Role, string) {
	c, err := domainauth.DecodeClaims(t.IDToken, s.claim)
	if err != nil {
		return domainauth.RoleNone, ""
	}
	return s.roles.Map(c.Groups), c.DisplayEmail()
}

func (s *SessionService) validateInput(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid input")
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperrors.ValidationField(field, field+" is required")
	case "email":
		return apperrors.ValidationField(field, "invalid email address")
	case "e164":
		return apperrors.ValidationField(field, "phone must be in E.164 format, e.g. +393331234567")
	default:
		return apperrors.ValidationField(field, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
}

// withTimeout runs fn and gives up after d, returning domainauth.ErrAuthTimeout.
// fn keeps running in the background if it ignores ctx; its late result is
// discarded.
func withTimeout[T any](parent context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	var zero T
	select {
	case r := <-ch:
		if errors.Is(r.err, context.DeadlineExceeded) {
			return zero, timeoutErr(parent)
		}
		return r.v, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, timeoutErr(parent)
		}
		return zero, ctx.Err()
	}
}

// timeoutErr reports ErrAuthTimeout only when the sign-in deadline fired; a
// parent that expired or was canceled first keeps its own error.
func timeoutErr(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return domainauth.ErrAuthTimeout
}
