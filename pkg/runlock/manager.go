// Package runlock serializes run requests per flow.
//
// The execution dispatcher deliberately carries no concurrency guard of
// its own: preventing a second run request while one is in flight is the
// caller's job. Server-side callers use this manager as that guard, with
// optional distributed locking when multiple replicas share a flow
// library.
package runlock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/canopyhq/canopy/internal/logging"
	"github.com/canopyhq/canopy/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager coordinates run access per flow ID.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL (default 30s). A run that
// outlives the TTL loses its cross-replica exclusivity; the local lock is
// unaffected.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a run-lock manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry when it
// reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// With executes fn while holding the lock for the given flow.
// Concurrent callers for the same flow block until the current one
// finishes; callers for different flows proceed independently.
func (m *Manager) With(ctx context.Context, flowID string, fn func(context.Context) error) error {
	entry := m.acquire(flowID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(flowID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, flowID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"flow_id", flowID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// TryWith is like With but refuses instead of blocking when a run for the
// flow is already in flight. It returns false without invoking fn in that
// case.
func (m *Manager) TryWith(ctx context.Context, flowID string, fn func(context.Context) error) (bool, error) {
	entry := m.acquire(flowID)
	if !entry.mu.TryLock() {
		m.release(flowID)
		return false, nil
	}
	defer func() {
		entry.mu.Unlock()
		m.release(flowID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, flowID, m.lockTTL)
		if err != nil {
			return false, fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"flow_id", flowID,
					"err", err,
				)
			}
		}()
	}

	return true, fn(ctx)
}
