package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cutdesk/cutdesk/config"
	"github.com/cutdesk/cutdesk/internal/adapters/authroles"
	"github.com/cutdesk/cutdesk/internal/adapters/cognito"
	"github.com/cutdesk/cutdesk/internal/adapters/devauth"
	"github.com/cutdesk/cutdesk/internal/adapters/oidc"
	"github.com/cutdesk/cutdesk/internal/ports"
)

// BuildRoleMapper returns the strict or lenient group policy.
//
//nolint:ireturn // the policy is chosen at runtime.
func BuildRoleMapper(cfg config.AuthConfig) ports.RoleMapper {
	if cfg.RolePolicy == config.RolePolicyLenient {
		return authroles.StaticRoleMapper{AdminGroup: cfg.AdminGroup}
	}
	return authroles.NewOrderedRoleMapper(cfg.AdminGroup, cfg.UserGroup)
}

// BuildIdentityProvider creates the provider selected by AUTH_MODE. The
// store is shared with the session service so providers can cache their
// opaque identity handle in the same record.
//
//nolint:ireturn // the provider is chosen at runtime.
func BuildIdentityProvider(
	ctx context.Context,
	cfg config.AuthConfig,
	store ports.StateStore,
	logger *slog.Logger,
) (ports.IdentityProvider, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}

	switch cfg.Mode {
	case config.AuthModeCognito:
		return buildCognitoProvider(ctx, cfg, store)
	case config.AuthModeOIDC:
		return buildOIDCProvider(ctx, cfg, store)
	case config.AuthModeMock:
		if logger != nil {
			logger.WarnContext(ctx, "using in-memory dev identity provider", "email", cfg.DevAuth.Email)
		}
		return buildDevProvider(cfg, store)
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

func buildCognitoProvider(ctx context.Context, cfg config.AuthConfig, store ports.StateStore) (*cognito.Provider, error) {
	cc := cognito.Config{
		Region:       cfg.Cognito.Region,
		UserPoolID:   cfg.Cognito.UserPoolID,
		ClientID:     cfg.Cognito.ClientID,
		ClientSecret: cfg.Cognito.ClientSecret,
		Endpoint:     cfg.Cognito.Endpoint,
		GroupsClaim:  cfg.GroupsClaim,
		Store:        store,
	}
	api, err := cognito.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create cognito client: %w", err)
	}
	prov, err := cognito.NewProvider(api, cc)
	if err != nil {
		return nil, fmt.Errorf("create cognito provider: %w", err)
	}
	return prov, nil
}

func buildOIDCProvider(ctx context.Context, cfg config.AuthConfig, store ports.StateStore) (*oidc.Provider, error) {
	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		Scope:        cfg.OAuth.Scope,
		DiscoveryURL: cfg.OAuth.DiscoveryURL,
		GroupsClaim:  cfg.GroupsClaim,
		Store:        store,
	})
	if err != nil {
		return nil, fmt.Errorf("create oidc provider: %w", err)
	}
	return prov, nil
}

func buildDevProvider(cfg config.AuthConfig, store ports.StateStore) (*devauth.Provider, error) {
	dev := cfg.DevAuth
	var defaults []string
	if cfg.UserGroup != "" {
		defaults = []string{cfg.UserGroup}
	}
	prov, err := devauth.NewProvider(devauth.Config{
		Store:      store,
		SigningKey: []byte(dev.SigningKey),
		Users: []devauth.UserConfig{{
			Email:    dev.Email,
			Password: dev.Password,
			Name:     dev.Name,
			Groups:   dev.Groups,
		}},
		GroupsClaim:   cfg.GroupsClaim,
		DefaultGroups: defaults,
		TokenTTL:      dev.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev identity provider: %w", err)
	}
	return prov, nil
}
