package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutdesk/cutdesk/internal/apiclient"
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/domain/model"
	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

func newOrders(t *testing.T, api *testAPI) *OrderService {
	t.Helper()
	svc, err := NewOrderService(OrderServiceOptions{Client: api.client})
	require.NoError(t, err)
	return svc
}

func TestNewOrderService_RequiresClient(t *testing.T) {
	_, err := NewOrderService(OrderServiceOptions{})
	require.Error(t, err)
}

func TestOrderService_UserReads(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("GET /user/orders", respond(http.StatusOK, []map[string]any{
		{"publicId": "o1", "status": "pending"},
		{"publicId": "o2", "status": "completed"},
	}))
	api.backend.Handle("GET /user/orders/{id}", respond(http.StatusOK, map[string]any{"publicId": "o1", "coupleName": "Emma e Pietro"}))
	svc := newOrders(t, api)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.OrderCompleted, list[1].Status)

	o, err := svc.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "Emma e Pietro", o.CoupleName)

	_, err = svc.Get(ctx, " ")
	assert.True(t, apperrors.IsValidation(err))
	assert.Len(t, api.backend.Calls(), 2)
}

func TestOrderService_GetNotFound(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("GET /user/orders/{id}", respond(http.StatusNotFound, map[string]any{"error": map[string]any{"message": "Order not found"}}))

	_, err := newOrders(t, api).Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "get order missing")
}

func TestOrderService_Create(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("POST /user/orders", respond(http.StatusOK, map[string]any{"publicId": "new", "status": "pending"}))
	svc := newOrders(t, api)

	_, err := svc.Create(context.Background(), model.CreateOrderRequest{CoupleName: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, api.backend.Calls())

	o, err := svc.Create(context.Background(), model.CreateOrderRequest{
		CoupleName:       " Emma e Pietro ",
		WeddingDate:      "2027-02-11",
		CameraCount:      2,
		SelectedServices: []model.SelectedService{{PublicID: "svc-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", o.PublicID)

	calls := api.backend.Calls()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"coupleName":"Emma e Pietro","weddingDate":"2027-02-11","materialSizeGb":0,"cameraCount":2,"selectedServices":[{"publicId":"svc-1"}]}`, calls[0].Body)
}

func TestOrderService_CreateInDemoMode(t *testing.T) {
	st := signedIn
	st.DemoMode = true
	api := newTestAPI(t, st)
	svc := newOrders(t, api)

	o, err := svc.Create(context.Background(), model.CreateOrderRequest{
		CoupleName:       "Demo",
		WeddingDate:      "2027-02-11",
		CameraCount:      1,
		SelectedServices: []model.SelectedService{{PublicID: "svc-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Demo", o.CoupleName)
	assert.Empty(t, api.backend.Calls())
	assert.Equal(t, []string{"POST user/orders"}, api.demo.Operations())
}

func TestOrderService_AdminFlow(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("GET /admin/orders", respond(http.StatusOK, []map[string]any{{"publicId": "o9"}}))
	api.backend.Handle("PATCH /admin/orders/{id}", respond(http.StatusOK, map[string]any{"ok": true}))
	api.backend.Handle("DELETE /admin/orders/{id}", respond(http.StatusNoContent, nil))
	svc := newOrders(t, api)
	ctx := context.Background()

	list, err := svc.AdminList(ctx, model.OrderQuery{Status: model.OrderPending, UserEmail: "a@b.it"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.AdminList(ctx, model.OrderQuery{Status: "lost"})
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, svc.AdminUpdate(ctx, "o9", model.NewAdminOrderUpdate(model.OrderCompleted, "", "https://drive/x")))
	require.Error(t, svc.AdminUpdate(ctx, "o9", model.AdminOrderUpdate{Status: "shipped"}))
	require.NoError(t, svc.AdminDelete(ctx, "o9"))

	calls := api.backend.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "status=pending&userEmail=a%40b.it", calls[0].Query)
	assert.Equal(t, http.MethodPatch, calls[1].Method)
	assert.Equal(t, "/admin/orders/o9", calls[1].Path)
	assert.JSONEq(t, `{"status":"completed","adminNotes":null,"deliveryLink":"https://drive/x"}`, calls[1].Body)
	assert.Equal(t, http.MethodDelete, calls[2].Method)
}

func TestOrderService_MaterialTransferURL(t *testing.T) {
	api := newTestAPI(t, signedIn)
	api.backend.Handle("POST /user/orders/{id}/presigned-url-upload", respond(http.StatusOK, map[string]any{"presignedUrl": "https://s3/put", "s3Path": "raw/o1.zip"}))

	u, err := newOrders(t, api).MaterialTransferURL(context.Background(), "o1", apiclient.Upload, " o1.zip ")
	require.NoError(t, err)
	assert.Equal(t, "https://s3/put", u.URL)
	assert.JSONEq(t, `{"fileName":"o1.zip"}`, api.backend.Calls()[0].Body)
}

func TestOrderService_SessionExpiredPropagates(t *testing.T) {
	api := newTestAPI(t, domainauth.State{IDToken: "stale"})
	api.backend.Handle("GET /user/orders", respond(http.StatusUnauthorized, nil))

	_, err := newOrders(t, api).List(context.Background())
	require.ErrorIs(t, err, apiclient.ErrSessionExpired)

	st, err := api.session.State(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.IDToken)
}
