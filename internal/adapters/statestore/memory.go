// Package statestore provides process-local and file-backed implementations
// of ports.StateStore.
package statestore

import (
	"context"
	"sync"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
)

// MemoryStore keeps the session record in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	state domainauth.State
}

// NewMemoryStore returns an empty store, optionally seeded with st.
func NewMemoryStore(seed ...domainauth.State) *MemoryStore {
	m := &MemoryStore{}
	if len(seed) > 0 {
		m.state = seed[0]
	}
	return m
}

func (m *MemoryStore) Get(_ context.Context) (domainauth.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *MemoryStore) Set(_ context.Context, st domainauth.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st
	return nil
}

func (m *MemoryStore) Update(_ context.Context, fn func(*domainauth.State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.state
	if err := fn(&next); err != nil {
		return err
	}
	m.state = next
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = domainauth.State{}
	return nil
}
