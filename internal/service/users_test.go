package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutdesk/cutdesk/internal/domain/model"
	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

func newUsers(t *testing.T, api *testAPI) *UserAdminService {
	t.Helper()
	svc, err := NewUserAdminService(UserAdminServiceOptions{Client: api.client, Session: api.session})
	require.NoError(t, err)
	return svc
}

func TestUserAdminService_List(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("GET /admin/users", respond(http.StatusOK, []map[string]any{
		{"username": "u1", "email": "anna@x.it", "enabled": true, "status": "CONFIRMED"},
	}))
	svc := newUsers(t, api)

	users, err := svc.List(context.Background(), model.UserQuery{Email: " anna "})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "confirmed", users[0].StatusLabel())
	assert.Equal(t, "email=anna", api.backend.Calls()[0].Query)
}

func TestUserAdminService_Toggle(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("POST /admin/users/{username}/{action}", respond(http.StatusOK, map[string]any{"ok": true}))
	svc := newUsers(t, api)
	ctx := context.Background()

	got, err := svc.Toggle(ctx, model.PoolUser{Username: "u 1", Email: "anna@x.it", Enabled: true})
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	_, err = svc.Toggle(ctx, model.PoolUser{Username: "me", Email: "Admin@cutdesk.it"})
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.Toggle(ctx, model.PoolUser{Username: "boss", Email: "boss@x.it", IsAdmin: true})
	assert.True(t, apperrors.IsForbidden(err))

	require.NoError(t, svc.SetEnabled(ctx, "u2", true))
	assert.True(t, apperrors.IsValidation(svc.SetEnabled(ctx, "", true)))

	calls := api.backend.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/admin/users/u 1/disable", calls[0].Path)
	assert.Empty(t, calls[0].Body)
	assert.Equal(t, "/admin/users/u2/enable", calls[1].Path)
}

func TestUserAdminService_ToggleBackendError(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("POST /admin/users/{username}/{action}", respond(http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "User is admin"}}))
	svc := newUsers(t, api)

	u := model.PoolUser{Username: "u1", Email: "u1@x.it"}
	got, err := svc.Toggle(context.Background(), u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User is admin")
	assert.Equal(t, u, got)
}
