// Package redis provides a Redis-backed session record store, shared by
// clients running on several hosts under one profile.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
)

const (
	defaultKeyPrefix = "cutdesk:state:"
	maxUpdateRetries = 5
)

// ErrConflict is returned when Update keeps losing optimistic races.
var ErrConflict = errors.New("state update conflict")

// StateStore keeps the session record of one profile in a single Redis key.
// Update runs inside WATCH/MULTI so the token keys are written together.
type StateStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// StateStoreOptions configures a StateStore.
type StateStoreOptions struct {
	// Prefix defaults to "cutdesk:state:".
	Prefix string
	// Profile selects the record; defaults to "default".
	Profile string
	// TTL of the record; zero keeps it forever.
	TTL time.Duration
}

// NewStateStore creates a Redis-based state store.
func NewStateStore(client redis.UniversalClient, opts StateStoreOptions) *StateStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	profile := opts.Profile
	if profile == "" {
		profile = "default"
	}
	return &StateStore{client: client, key: prefix + profile, ttl: opts.TTL}
}

// Key returns the Redis key holding the record.
func (s *StateStore) Key() string { return s.key }

func (s *StateStore) Get(ctx context.Context) (domainauth.State, error) {
	return s.load(ctx, s.client)
}

func (s *StateStore) Set(ctx context.Context, st domainauth.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err = s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *StateStore) Update(ctx context.Context, fn func(*domainauth.State) error) error {
	for range maxUpdateRetries {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			st, err := s.load(ctx, tx)
			if err != nil {
				return err
			}
			if err = fn(&st); err != nil {
				return err
			}
			data, err := json.Marshal(st)
			if err != nil {
				return fmt.Errorf("marshal state: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, s.key, data, s.ttl)
				return nil
			})
			return err
		}, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func (s *StateStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *StateStore) load(ctx context.Context, c redis.Cmdable) (domainauth.State, error) {
	data, err := c.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.State{}, nil
		}
		return domainauth.State{}, fmt.Errorf("redis get: %w", err)
	}
	var st domainauth.State
	if err = json.Unmarshal(data, &st); err != nil {
		return domainauth.State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return st, nil
}
