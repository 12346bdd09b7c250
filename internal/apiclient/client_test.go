package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"

	"github.com/cutdesk/cutdesk/internal/adapters/statestore"
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	apperrors "github.com/cutdesk/cutdesk/internal/errors"
	mockauth "github.com/cutdesk/cutdesk/internal/mocks/auth"
	"github.com/cutdesk/cutdesk/internal/observability/metrics"
	"github.com/cutdesk/cutdesk/internal/observability/statsd"
)

// fakeSession shares one in-flight refresh between callers the way
// service.SessionService does, including the detached refresh context.
type fakeSession struct {
	store     *statestore.MemoryStore
	refreshFn func(ctx context.Context) (domainauth.Tokens, error)

	group     singleflight.Group
	refreshes atomic.Int32
	expires   atomic.Int32
}

func newFakeSession(st domainauth.State) *fakeSession {
	return &fakeSession{store: statestore.NewMemoryStore(st)}
}

func (f *fakeSession) State(ctx context.Context) (domainauth.State, error) {
	return f.store.Get(ctx)
}

func (f *fakeSession) Refresh(ctx context.Context) (domainauth.Tokens, error) {
	ch := f.group.DoChan("refresh", func() (any, error) {
		return f.refresh(context.WithoutCancel(ctx))
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return domainauth.Tokens{}, r.Err
		}
		return r.Val.(domainauth.Tokens), nil
	case <-ctx.Done():
		return domainauth.Tokens{}, ctx.Err()
	}
}

func (f *fakeSession) refresh(ctx context.Context) (domainauth.Tokens, error) {
	f.refreshes.Add(1)
	if f.refreshFn == nil {
		return domainauth.Tokens{}, fmt.Errorf("get session: %w", domainauth.ErrNoUserFound)
	}
	t, err := f.refreshFn(ctx)
	if err != nil {
		return t, fmt.Errorf("get session: %w", err)
	}
	return t, f.store.Update(ctx, func(st *domainauth.State) error {
		st.ApplyTokens(t, st.Role, st.Email)
		return nil
	})
}

func (f *fakeSession) Expire(ctx context.Context) error {
	f.expires.Add(1)
	return f.store.Clear(ctx)
}

type harness struct {
	client   *Client
	session  *fakeSession
	notifier *mockauth.RecordingNotifier
	demo     *mockauth.RecordingDemoSignal
	metrics  *statsd.Recorder

	mu          sync.Mutex
	transitions []string
}

func newHarness(t *testing.T, srv *httptest.Server, st domainauth.State) *harness {
	t.Helper()
	h := &harness{
		session:  newFakeSession(st),
		notifier: &mockauth.RecordingNotifier{},
		demo:     &mockauth.RecordingDemoSignal{},
		metrics:  &statsd.Recorder{},
	}
	c, err := New(Options{
		BaseURL:  srv.URL + "/api/",
		Session:  h.session,
		Notifier: h.notifier,
		Demo:     h.demo,
		Metrics:  metrics.New(h.metrics),
		Observer: func(_ string, from, to CallState) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.transitions = append(h.transitions, from.String()+">"+to.String())
		},
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	h.client = c
	return h
}

func (h *harness) Transitions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.transitions...)
}

type recorded struct {
	Method    string
	Path      string
	Auth      []string
	RequestID string
	Body      string
	Query     string
}

type backend struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, r *http.Request, n int)
}

func newBackend(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, n int)) (*httptest.Server, *backend) {
	t.Helper()
	b := &backend{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.requests = append(b.requests, recorded{
			Method:    r.Method,
			Path:      r.URL.Path,
			Auth:      r.Header.Values("Authorization"),
			RequestID: r.Header.Get("X-Request-ID"),
			Body:      string(body),
			Query:     r.URL.RawQuery,
		})
		n := len(b.requests)
		b.mu.Unlock()
		b.handler(w, r, n)
	}))
	t.Cleanup(srv.Close)
	return srv, b
}

func (b *backend) Requests() []recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recorded(nil), b.requests...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// tokenAware answers 401 unless the request carries "Bearer <valid>".
func tokenAware(valid string, payload any) func(http.ResponseWriter, *http.Request, int) {
	return func(w http.ResponseWriter, r *http.Request, _ int) {
		if r.Header.Get("Authorization") != "Bearer "+valid {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid token"}})
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Session: newFakeSession(domainauth.State{})})
	require.Error(t, err)

	_, err = New(Options{BaseURL: "ftp://example.com", Session: newFakeSession(domainauth.State{})})
	require.Error(t, err)

	_, err = New(Options{BaseURL: "https://api.example.com"})
	require.Error(t, err)
}

func TestClient_AttachesBearerOnce(t *testing.T) {
	srv, b := newBackend(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		writeJSON(w, http.StatusOK, map[string]any{"publicId": "o1"})
	})
	h := newHarness(t, srv, domainauth.State{IDToken: "id-1", AccessToken: "acc-1"})

	out, err := GenericGet[map[string]any](context.Background(), h.client, "user/orders/o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", out["publicId"])

	reqs := b.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"Bearer id-1"}, reqs[0].Auth)
	assert.Equal(t, "/api/user/orders/o1", reqs[0].Path)
	assert.NotEmpty(t, reqs[0].RequestID)
	assert.Equal(t, []string{"sent>done"}, h.Transitions())
}

func TestClient_FallsBackToAccessToken(t *testing.T) {
	srv, b := newBackend(t, tokenAware("acc-1", []any{}))
	h := newHarness(t, srv, domainauth.State{AccessToken: "acc-1"})

	_, err := GenericGet[[]any](context.Background(), h.client, "services")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer acc-1"}, b.Requests()[0].Auth)
}

func TestClient_PingIsUnauthenticated(t *testing.T) {
	srv, b := newBackend(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		writeJSON(w, http.StatusOK, map[string]any{"greeting": "pong"})
	})
	h := newHarness(t, srv, domainauth.State{IDToken: "id-1"})

	require.NoError(t, h.client.Ping(context.Background()))
	reqs := b.Requests()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Auth)
	assert.Equal(t, "/api/ping", reqs[0].Path)
}

func TestClient_RefreshAndReplayOnce(t *testing.T) {
	srv, b := newBackend(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"publicId": "c1", "subject": "hi"})
	})
	h := newHarness(t, srv, domainauth.State{IDToken: "stale"})
	h.session.refreshFn = func(context.Context) (domainauth.Tokens, error) {
		return domainauth.Tokens{IDToken: "fresh", AccessToken: "acc"}, nil
	}

	out, err := GenericPost[map[string]any](context.Background(), h.client, "user/conversations", map[string]string{"subject": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "c1", out["publicId"])

	reqs := b.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, []string{"Bearer stale"}, reqs[0].Auth)
	assert.Equal(t, []string{"Bearer fresh"}, reqs[1].Auth)
	assert.Equal(t, reqs[0].RequestID, reqs[1].RequestID)
	assert.Equal(t, reqs[0].Body, reqs[1].Body)
	assert.JSONEq(t, `{"subject":"hi"}`, reqs[1].Body)

	assert.Equal(t, int32(1), h.session.refreshes.Load())
	assert.Empty(t, h.notifier.Notices())
	assert.Equal(t, []string{"sent>unauthorized", "unauthorized>refreshing", "refreshing>retried", "retried>done"}, h.Transitions())

	st, err := h.session.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", st.IDToken)
	assert.Equal(t, "fresh", st.LegacyToken)
}

func TestClient_RefreshFailureExpiresSession(t *testing.T) {
	srv, b := newBackend(t, tokenAware("never", nil))
	h := newHarness(t, srv, domainauth.State{IDToken: "stale", Role: domainauth.RoleUser, DemoMode: false, SidebarExpanded: true, ReturnURL: "/x"})

	_, err := GenericGet[[]any](context.Background(), h.client, "user/orders")
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.Len(t, b.Requests(), 1)
	assert.Equal(t, []string{SessionExpiredNotice}, h.notifier.Notices())
	assert.Len(t, h.notifier.Redirects(), 1)
	assert.Equal(t, int32(1), h.session.expires.Load())
	assert.Equal(t, []string{"sent>unauthorized", "unauthorized>refreshing", "refreshing>expired"}, h.Transitions())

	st, err := h.session.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domainauth.State{}, st)
}

func TestClient_UnauthorizedAfterReplayExpires(t *testing.T) {
	srv, b := newBackend(t, tokenAware("never", nil))
	h := newHarness(t, srv, domainauth.State{IDToken: "stale"})
	h.session.refreshFn = func(context.Context) (domainauth.Tokens, error) {
		return domainauth.Tokens{IDToken: "fresh"}, nil
	}

	_, err := GenericGet[[]any](context.Background(), h.client, "user/orders")
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.Len(t, b.Requests(), 2)
	assert.Equal(t, int32(1), h.session.refreshes.Load())
	assert.Len(t, h.notifier.Notices(), 1)
	assert.Equal(t, []string{"sent>unauthorized", "unauthorized>refreshing", "refreshing>retried", "retried>expired"}, h.Transitions())
}

func TestClient_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	srv, b := newBackend(t, tokenAware("fresh", map[string]any{"ok": true}))
	h := newHarness(t, srv, domainauth.State{IDToken: "stale"})
	release := make(chan struct{})
	h.session.refreshFn = func(context.Context) (domainauth.Tokens, error) {
		<-release
		return domainauth.Tokens{IDToken: "fresh"}, nil
	}

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = GenericGet[map[string]any](context.Background(), h.client, "dashboard")
		}()
	}
	require.Eventually(t, func() bool {
		return len(b.Requests()) == n && h.session.refreshes.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), h.session.refreshes.Load())
	assert.Len(t, b.Requests(), 2*n)
}

func TestClient_ConcurrentFailedRefreshNotifiesOnce(t *testing.T) {
	srv, b := newBackend(t, tokenAware("never", nil))
	h := newHarness(t, srv, domainauth.State{IDToken: "stale"})
	release := make(chan struct{})
	h.session.refreshFn = func(context.Context) (domainauth.Tokens, error) {
		<-release
		return domainauth.Tokens{}, domainauth.NewProviderError(domainauth.ExcNotAuthorized, "Refresh Token has expired", nil)
	}

	const n = 5
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := GenericGet[[]any](context.Background(), h.client, "user/orders")
			assert.ErrorIs(t, err, ErrSessionExpired)
		}()
	}
	require.Eventually(t, func() bool {
		return len(b.Requests()) == n && h.session.refreshes.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Len(t, h.notifier.Notices(), 1)
	assert.Len(t, h.notifier.Redirects(), 1)
	assert.Equal(t, int32(1), h.session.expires.Load())
}

func TestClient_CanceledCallerDoesNotExpireSession(t *testing.T) {
	srv, b := newBackend(t, tokenAware("fresh", map[string]any{"ok": true}))
	seeded := domainauth.State{IDToken: "stale", Role: domainauth.RoleUser, DemoMode: true}
	h := newHarness(t, srv, seeded)
	release := make(chan struct{})
	h.session.refreshFn = func(context.Context) (domainauth.Tokens, error) {
		<-release
		return domainauth.Tokens{IDToken: "fresh"}, nil
	}

	impatient, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	patientErr := make(chan error, 1)
	go func() {
		assert.Eventually(t, func() bool { return h.session.refreshes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
		_, err := GenericGet[map[string]any](context.Background(), h.client, "dashboard")
		patientErr <- err
	}()

	_, err := GenericGet[map[string]any](impatient, h.client, "dashboard")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrSessionExpired)

	require.Eventually(t, func() bool { return len(b.Requests()) == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	close(release)
	require.NoError(t, <-patientErr)

	assert.Empty(t, h.notifier.Notices())
	assert.Empty(t, h.notifier.Redirects())
	assert.Equal(t, int32(0), h.session.expires.Load())
	assert.Equal(t, int32(1), h.session.refreshes.Load())

	st, err := h.session.State(context.Background())
	require.NoError(t, err)
	assert.True(t, st.DemoMode)
	assert.Equal(t, "fresh", st.IDToken)
}

func TestClient_RefreshLostToSignOutSkipsNotice(t *testing.T) {
	srv, _ := newBackend(t, tokenAware("never", nil))
	h := newHarness(t, srv, domainauth.State{IDToken: "stale"})
	h.session.refreshFn = func(context.Context) (domainauth.Tokens, error) {
		return domainauth.Tokens{}, domainauth.ErrSessionEnded
	}

	_, err := GenericGet[[]any](context.Background(), h.client, "user/orders")
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, h.notifier.Notices())
	assert.Equal(t, int32(0), h.session.expires.Load())
}

func TestClient_SequentialFailedRefreshesNotifyEachTime(t *testing.T) {
	srv, _ := newBackend(t, tokenAware("never", nil))
	h := newHarness(t, srv, domainauth.State{IDToken: "stale"})

	for range 2 {
		_, err := GenericGet[[]any](context.Background(), h.client, "user/orders")
		require.ErrorIs(t, err, ErrSessionExpired)
	}
	assert.Len(t, h.notifier.Notices(), 2)
	assert.Equal(t, int32(2), h.session.expires.Load())
}

func TestClient_ErrorResponsesPropagate(t *testing.T) {
	srv, _ := newBackend(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"statusCode": 404, "message": "Order not found"}})
	})
	h := newHarness(t, srv, domainauth.State{IDToken: "id"})

	_, err := GenericGet[map[string]any](context.Background(), h.client, "user/orders/missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Order not found", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, "http_404", apiErr.ErrorClass())
	assert.Empty(t, h.notifier.Notices())
	assert.Contains(t, h.metrics.Lines(), "api.request:1|c|#error_class:http_404,method:GET,status:404")
}

func TestClient_ServerErrorMessageFallback(t *testing.T) {
	srv, _ := newBackend(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	h := newHarness(t, srv, domainauth.State{IDToken: "id"})

	_, err := GenericGet[map[string]any](context.Background(), h.client, "dashboard")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Service Unavailable", apiErr.Message)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestClient_NetworkErrorSkipsSessionHandling(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	h := newHarness(t, srv, domainauth.State{IDToken: "id"})
	srv.Close()

	_, err := GenericGet[[]any](context.Background(), h.client, "user/orders")
	require.ErrorIs(t, err, ErrNetwork)
	assert.Empty(t, h.notifier.Notices())
	assert.Equal(t, int32(0), h.session.refreshes.Load())
}

func TestClient_DemoModeInterceptsMutations(t *testing.T) {
	srv, b := newBackend(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	// No tokens at all: the gate must not depend on a session.
	h := newHarness(t, srv, domainauth.State{DemoMode: true})
	ctx := context.Background()

	type service struct {
		Name string `json:"name"`
	}
	in := service{Name: "Highlights"}

	created, err := CreateItem(ctx, h.client, "services", in)
	require.NoError(t, err)
	assert.Equal(t, in, created)

	updated, err := UpdateItem(ctx, h.client, "services", "7", in)
	require.NoError(t, err)
	assert.Equal(t, in, updated)

	require.NoError(t, DeleteItem(ctx, h.client, "services", "7"))
	require.NoError(t, GenericDelete(ctx, h.client, "admin/orders/o1"))

	posted, err := GenericPost[map[string]any](ctx, h.client, "user/conversations", map[string]any{"subject": "hi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"subject": "hi"}, posted)

	patched, err := GenericPatch[service](ctx, h.client, "admin/orders/o1", map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, service{Name: "x"}, patched)

	assert.Empty(t, b.Requests())
	assert.Equal(t, []string{
		"POST services",
		"PUT services/7",
		"DELETE services/7",
		"DELETE admin/orders/o1",
		"POST user/conversations",
		"PATCH admin/orders/o1",
	}, h.demo.Operations())
	assert.Contains(t, h.metrics.Lines(), "demo.intercepted:1|c|#method:DELETE")
}

func TestClient_DemoModeFromConfig(t *testing.T) {
	srv, b := newBackend(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	demo := &mockauth.RecordingDemoSignal{}
	c, err := New(Options{BaseURL: srv.URL, Session: newFakeSession(domainauth.State{IDToken: "id"}), Demo: demo, DemoMode: true})
	require.NoError(t, err)

	active, err := c.DemoActive(context.Background())
	require.NoError(t, err)
	assert.True(t, active)

	_, err = GetPresignedURL(context.Background(), c, "orders", "o1", Upload, nil)
	require.NoError(t, err)
	assert.Empty(t, b.Requests())
	assert.Equal(t, []string{"POST orders/o1/presigned-url-upload"}, demo.Operations())
}

func TestClient_DemoModeAnonymizesReads(t *testing.T) {
	srv, b := newBackend(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		writeJSON(w, http.StatusOK, []map[string]any{{"publicId": "o1", "userEmail": "anna@real.it", "coupleName": "Anna e Marco", "status": "pending"}})
	})
	h := newHarness(t, srv, domainauth.State{IDToken: "id", DemoMode: true})

	orders, err := GenericGet[[]map[string]any](context.Background(), h.client, "admin/orders")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, b.Requests(), 1)
	assert.Equal(t, "o1", orders[0]["publicId"])
	assert.Equal(t, "pending", orders[0]["status"])
	assert.NotEqual(t, "anna@real.it", orders[0]["userEmail"])
	assert.Contains(t, orders[0]["userEmail"], "@example.com")
	assert.NotEqual(t, "Anna e Marco", orders[0]["coupleName"])
}

func TestGetList_SendsSingleFilterParam(t *testing.T) {
	srv, b := newBackend(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Trailer"}})
	})
	h := newHarness(t, srv, domainauth.State{IDToken: "id"})

	type service struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	out, err := GetList[service](context.Background(), h.client, "services",
		Filters{"name": "trail", "totalPowerFilter": "bogus"}, Page{Limit: 10, Skip: 20}, "name ASC")
	require.NoError(t, err)
	assert.Equal(t, []service{{ID: 1, Name: "Trailer"}}, out)

	reqs := b.Requests()
	require.Len(t, reqs, 1)
	q, err := url.ParseQuery(reqs[0].Query)
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.JSONEq(t, `{"where":{"name":{"like":"%trail%","options":"i"}},"limit":10,"skip":20,"order":"name ASC"}`, q.Get("filter"))
}

func TestGetCountWhereAndQuery(t *testing.T) {
	srv, b := newBackend(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		writeJSON(w, http.StatusOK, map[string]any{"count": 3})
	})
	h := newHarness(t, srv, domainauth.State{IDToken: "id"})
	ctx := context.Background()

	n, err := GetCount(ctx, h.client, "services")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = GetCountWhere(ctx, h.client, "services", map[string]any{"orientation": "both"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = GetByQuery[map[string]any](ctx, h.client, "admin/orders", map[string]any{"status": " pending ", "skip": nil})
	require.NoError(t, err)

	reqs := b.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "/api/services/count", reqs[0].Path)
	assert.Empty(t, reqs[0].Query)
	q, err := url.ParseQuery(reqs[1].Query)
	require.NoError(t, err)
	assert.JSONEq(t, `{"orientation":"both"}`, q.Get("where"))
	assert.Equal(t, "status=pending", reqs[2].Query)
}

func TestGetPresignedURL(t *testing.T) {
	srv, b := newBackend(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		writeJSON(w, http.StatusOK, map[string]any{"presignedUrl": "https://s3/put", "s3Path": "orders/o1/raw.zip"})
	})
	h := newHarness(t, srv, domainauth.State{IDToken: "id"})

	u, err := GetPresignedURL(context.Background(), h.client, "user/orders", "o 1", Download, map[string]any{"file": "raw.zip"})
	require.NoError(t, err)
	assert.Equal(t, "https://s3/put", u.URL)
	assert.Equal(t, "orders/o1/raw.zip", u.S3Path)

	reqs := b.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/user/orders/o 1/presigned-url-download", reqs[0].Path)

	_, err = GetPresignedURL(context.Background(), h.client, "user/orders", "o1", "sideways", nil)
	require.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "nested", errorMessage(400, []byte(`{"error":{"message":"nested"}}`)))
	assert.Equal(t, "flat", errorMessage(400, []byte(`{"error":"flat"}`)))
	assert.Equal(t, "top", errorMessage(400, []byte(`{"message":"top"}`)))
	assert.Equal(t, "Bad Request", errorMessage(400, []byte(`not json`)))
	assert.Equal(t, "unexpected status", errorMessage(599, nil))
}

func TestAPIError_IsNotMatchedBySentinel(t *testing.T) {
	err := &APIError{StatusCode: 500, Message: "boom"}
	assert.False(t, errors.Is(err, ErrSessionExpired))
	assert.True(t, apperrors.IsInternal(err))
}
