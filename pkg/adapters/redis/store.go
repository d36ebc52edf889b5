// Package redis provides a Redis-backed FlowStore and a distributed
// locker, for deployments where multiple editor/server replicas share the
// same flow library.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/canopyhq/canopy/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.FlowStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for saved flows. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for flows.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "canopy:flow:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Save persists the flow as a JSON value.
func (s *Store) Save(ctx context.Context, flow domain.Flow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	if err := s.client.Set(ctx, s.key(flow.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis error saving flow: %w", err)
	}
	return nil
}

// Load retrieves a flow.
func (s *Store) Load(ctx context.Context, id string) (domain.Flow, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Flow{}, domain.ErrFlowNotFound
		}
		return domain.Flow{}, fmt.Errorf("redis error loading flow: %w", err)
	}

	var flow domain.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return domain.Flow{}, fmt.Errorf("failed to unmarshal flow %s: %w", id, err)
	}
	return flow, nil
}

// Delete removes a flow. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis error deleting flow: %w", err)
	}
	return nil
}

// List returns the IDs of all saved flows by scanning the key prefix.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis error listing flows: %w", err)
	}
	return ids, nil
}

func (s *Store) key(id string) string {
	return s.prefix + id
}
