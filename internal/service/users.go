package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cutdesk/cutdesk/internal/apiclient"
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/domain/model"
	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

// stateReader exposes the persisted session record.
type stateReader interface {
	State(ctx context.Context) (domainauth.State, error)
}

// UserAdminServiceOptions groups dependencies for UserAdminService.
type UserAdminServiceOptions struct {
	Client *apiclient.Client
	// Session identifies the signed-in admin so they cannot disable
	// themselves.
	Session stateReader
	Logger  *slog.Logger // optional
}

// UserAdminService lists and toggles identity-pool accounts.
type UserAdminService struct {
	api     *apiclient.Client
	session stateReader
	logger  *slog.Logger
}

// NewUserAdminService constructs a UserAdminService.
func NewUserAdminService(opts UserAdminServiceOptions) (*UserAdminService, error) {
	if opts.Client == nil {
		return nil, errClientRequired
	}
	if opts.Session == nil {
		return nil, errors.New("session is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserAdminService{api: opts.Client, session: opts.Session, logger: logger.With("component", "users")}, nil
}

// List returns pool users, optionally filtered by email.
func (s *UserAdminService) List(ctx context.Context, q model.UserQuery) ([]model.PoolUser, error) {
	users, err := apiclient.GetByQuery[[]model.PoolUser](ctx, s.api, "admin/users", q.Params())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetEnabled enables or disables an account by username.
func (s *UserAdminService) SetEnabled(ctx context.Context, username string, enabled bool) error {
	if strings.TrimSpace(username) == "" {
		return apperrors.ValidationField("username", "username is required")
	}
	action := "disable"
	if enabled {
		action = "enable"
	}
	path := itemPath("admin/users", username) + "/" + action
	if _, err := apiclient.GenericPost[json.RawMessage](ctx, s.api, path, nil); err != nil {
		return fmt.Errorf("%s user %s: %w", action, username, err)
	}
	s.logger.InfoContext(ctx, "user toggled", "username", username, "enabled", enabled)
	return nil
}

// Toggle flips the enabled flag of u and returns the updated record. Admin
// accounts and the caller's own account are refused.
func (s *UserAdminService) Toggle(ctx context.Context, u model.PoolUser) (model.PoolUser, error) {
	st, err := s.session.State(ctx)
	if err != nil {
		return u, fmt.Errorf("load session state: %w", err)
	}
	if !u.Toggleable(st.Email) {
		return u, apperrors.Forbidden("admins and your own account cannot be toggled")
	}
	if err = s.SetEnabled(ctx, u.Username, !u.Enabled); err != nil {
		return u, err
	}
	u.Enabled = !u.Enabled
	return u, nil
}
