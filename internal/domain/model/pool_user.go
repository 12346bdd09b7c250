package model

import (
	"strings"
	"time"
)

// User pool account statuses.
const (
	UserConfirmed           = "CONFIRMED"
	UserUnconfirmed         = "UNCONFIRMED"
	UserForceChangePassword = "FORCE_CHANGE_PASSWORD"
	UserResetRequired       = "RESET_REQUIRED"
)

var userStatusLabels = map[string]string{
	UserConfirmed:           "confirmed",
	UserUnconfirmed:         "unconfirmed",
	UserForceChangePassword: "password change required",
	UserResetRequired:       "reset required",
}

// PoolUser is an identity-pool account as listed by the admin endpoint.
type PoolUser struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Enabled   bool      `json:"enabled"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	IsAdmin   bool      `json:"isAdmin"`
}

// StatusLabel returns a readable status, or the raw one when unknown.
func (u PoolUser) StatusLabel() string {
	if l, ok := userStatusLabels[u.Status]; ok {
		return l
	}
	return u.Status
}

// Toggleable reports whether the account may be enabled or disabled by the
// admin signed in as selfEmail. Admins and the caller's own account are not.
func (u PoolUser) Toggleable(selfEmail string) bool {
	return !u.IsAdmin && !strings.EqualFold(u.Email, strings.TrimSpace(selfEmail))
}

// UserQuery filters the admin user list.
type UserQuery struct {
	Email string
}

// Params returns the query parameters; unset fields are omitted.
func (q UserQuery) Params() map[string]any {
	p := map[string]any{}
	if s := strings.TrimSpace(q.Email); s != "" {
		p["email"] = s
	}
	return p
}
