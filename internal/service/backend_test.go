package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cutdesk/cutdesk/internal/adapters/statestore"
	"github.com/cutdesk/cutdesk/internal/apiclient"
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	mockauth "github.com/cutdesk/cutdesk/internal/mocks/auth"
)

// storeSession serves tokens from a MemoryStore and never refreshes.
type storeSession struct {
	store *statestore.MemoryStore
}

func (s storeSession) State(ctx context.Context) (domainauth.State, error) { return s.store.Get(ctx) }

func (s storeSession) Refresh(context.Context) (domainauth.Tokens, error) {
	return domainauth.Tokens{}, domainauth.ErrNoUserFound
}

func (s storeSession) Expire(ctx context.Context) error { return s.store.Clear(ctx) }

type call struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// fakeBackend records calls and dispatches them through a ServeMux.
type fakeBackend struct {
	*http.ServeMux

	mu    sync.Mutex
	calls []call
}

func (b *fakeBackend) Calls() []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]call(nil), b.calls...)
}

type testAPI struct {
	client  *apiclient.Client
	backend *fakeBackend
	session storeSession
	demo    *mockauth.RecordingDemoSignal
}

func newTestAPI(t *testing.T, st domainauth.State) *testAPI {
	t.Helper()
	b := &fakeBackend{ServeMux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.calls = append(b.calls, call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
		b.mu.Unlock()
		b.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	sess := storeSession{store: statestore.NewMemoryStore(st)}
	demo := &mockauth.RecordingDemoSignal{}
	c, err := apiclient.New(apiclient.Options{
		BaseURL:  srv.URL,
		Session:  sess,
		Notifier: &mockauth.RecordingNotifier{},
		Demo:     demo,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return &testAPI{client: c, backend: b, session: sess, demo: demo}
}

func respond(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if v != nil {
			_ = json.NewEncoder(w).Encode(v)
		}
	}
}

var signedIn = domainauth.State{IDToken: "id-token", Role: domainauth.RoleAdmin, Email: "admin@cutdesk.it"}
