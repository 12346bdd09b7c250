// Package mocks provides mock implementations for testing the cutdesk client.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockStateStore(ctrl)
//	store.EXPECT().Get(gomock.Any()).Return(auth.State{}, nil)
package mocks

// Generate mock for StateStore interface from internal/ports package.
// This creates MockStateStore with methods: Get, Set, Update, Clear
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=state_store_mock.go github.com/cutdesk/cutdesk/internal/ports StateStore

// Generate mock for IdentityProvider interface from internal/ports package.
// This creates MockIdentityProvider with methods for sign-in, session refresh, registration and password reset.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_provider_mock.go github.com/cutdesk/cutdesk/internal/ports IdentityProvider
