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

func newConversations(t *testing.T, api *testAPI) *ConversationService {
	t.Helper()
	svc, err := NewConversationService(ConversationServiceOptions{Client: api.client})
	require.NoError(t, err)
	return svc
}

func TestConversationService_List(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("GET /user/conversations", respond(http.StatusOK, []map[string]any{{"publicId": "c1", "status": "open", "unreadCount": 2}}))
	api.backend.Handle("GET /admin/conversations", respond(http.StatusOK, []map[string]any{{"publicId": "c2", "status": "closed"}}))
	svc := newConversations(t, api)
	ctx := context.Background()

	user, err := svc.List(ctx, ScopeUser, model.ConversationQuery{Status: model.ConversationClosed})
	require.NoError(t, err)
	require.Len(t, user, 1)
	assert.Equal(t, 2, user[0].UnreadCount)

	admin, err := svc.List(ctx, ScopeAdmin, model.ConversationQuery{Status: model.ConversationClosed, UserEmail: "u@x.it"})
	require.NoError(t, err)
	assert.Equal(t, model.ConversationClosed, admin[0].Status)

	_, err = svc.List(ctx, "guest", model.ConversationQuery{})
	assert.True(t, apperrors.IsValidation(err))

	calls := api.backend.Calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].Query, "user scope ignores filters")
	assert.Equal(t, "status=closed&userEmail=u%40x.it", calls[1].Query)
}

func TestConversationService_Get(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("GET /user/conversations", respond(http.StatusOK, []map[string]any{{"publicId": "c1"}, {"publicId": "c2", "subject": "Consegna"}}))
	svc := newConversations(t, api)

	c, err := svc.Get(context.Background(), ScopeUser, "c2")
	require.NoError(t, err)
	assert.Equal(t, "Consegna", c.Subject)

	_, err = svc.Get(context.Background(), ScopeUser, "c404")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestConversationService_Messages(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("GET /admin/conversations/{id}/messages", respond(http.StatusOK, []map[string]any{
		{"publicId": "m1", "senderRole": "user", "content": "ciao"},
		{"publicId": "m2", "senderRole": "admin", "content": "salve"},
	}))
	api.backend.Handle("POST /admin/conversations/{id}/messages", respond(http.StatusOK, map[string]any{"publicId": "m3", "senderRole": "admin", "content": "ok"}))
	svc := newConversations(t, api)
	ctx := context.Background()

	msgs, err := svc.Messages(ctx, ScopeAdmin, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderAdmin, msgs[1].SenderRole)

	_, err = svc.Send(ctx, ScopeAdmin, "c1", "   ")
	assert.True(t, apperrors.IsValidation(err))

	msg, err := svc.Send(ctx, ScopeAdmin, "c1", " ok ")
	require.NoError(t, err)
	assert.Equal(t, "m3", msg.PublicID)

	calls := api.backend.Calls()
	require.Len(t, calls, 2)
	assert.JSONEq(t, `{"content":"ok"}`, calls[1].Body)
}

func TestConversationService_OpenAndStatus(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("POST /user/conversations", respond(http.StatusOK, map[string]any{"publicId": "c7", "subject": "Musica"}))
	api.backend.Handle("PATCH /admin/conversations/{id}", respond(http.StatusOK, map[string]any{}))
	svc := newConversations(t, api)
	ctx := context.Background()

	_, err := svc.Open(ctx, model.OpenConversationRequest{})
	assert.True(t, apperrors.IsValidation(err))

	c, err := svc.Open(ctx, model.OpenConversationRequest{Subject: " Musica ", OrderID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, "c7", c.PublicID)

	require.NoError(t, svc.SetStatus(ctx, "c7", model.ConversationClosed))
	assert.Error(t, svc.SetStatus(ctx, "c7", "archived"))

	calls := api.backend.Calls()
	require.Len(t, calls, 2)
	assert.JSONEq(t, `{"subject":"Musica","orderId":"o1"}`, calls[0].Body)
	assert.Equal(t, "/admin/conversations/c7", calls[1].Path)
	assert.JSONEq(t, `{"status":"closed"}`, calls[1].Body)
}
