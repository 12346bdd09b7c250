// Package identitycache stores an identity provider's own credentials (the
// last user and its refresh token) inside the persisted session record.
package identitycache

import (
	"context"
	"fmt"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/ports"
)

// Cache reads and writes State.Identity.
type Cache struct {
	Store       ports.StateStore
	GroupsClaim string
}

// Load returns the cached credentials.
func (c Cache) Load(ctx context.Context) (domainauth.IdentityCache, error) {
	st, err := c.Store.Get(ctx)
	if err != nil {
		return domainauth.IdentityCache{}, fmt.Errorf("load identity cache: %w", err)
	}
	return st.Identity, nil
}

// Remember records tokens for username.
func (c Cache) Remember(ctx context.Context, username string, t domainauth.Tokens) error {
	err := c.Store.Update(ctx, func(st *domainauth.State) error {
		st.Identity.Remember(username, t)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store identity cache: %w", err)
	}
	return nil
}

// Renew stores refreshed tokens for the cached identity from. When
// the cached identity changed meanwhile (sign-out, or another user signed in)
// nothing is written and domainauth.ErrSessionEnded is returned.
func (c Cache) Renew(ctx context.Context, from domainauth.IdentityCache, t domainauth.Tokens) error {
	err := c.Store.Update(ctx, func(st *domainauth.State) error {
		cur := st.Identity
		if cur.Username == "" || cur.Username != from.Username || cur.RefreshToken != from.RefreshToken {
			return domainauth.ErrSessionEnded
		}
		st.Identity.Remember("", t)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store renewed identity: %w", err)
	}
	return nil
}

// Forget drops the cached user and credentials.
func (c Cache) Forget(ctx context.Context) error {
	err := c.Store.Update(ctx, func(st *domainauth.State) error {
		st.Identity = domainauth.IdentityCache{}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear identity cache: %w", err)
	}
	return nil
}

// CurrentUser returns the cached user handle without network access.
func (c Cache) CurrentUser(ctx context.Context) (*domainauth.User, bool) {
	id, err := c.Load(ctx)
	if err != nil || id.Username == "" {
		return nil, false
	}
	u := &domainauth.User{Username: id.Username, Email: id.Username}
	if claims, cerr := domainauth.DecodeClaims(id.IDToken, c.GroupsClaim); cerr == nil && claims.Email != "" {
		u.Email = claims.Email
	}
	return u, true
}
