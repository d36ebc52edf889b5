// Package memory provides an in-memory FlowStore, the default for tests
// and ephemeral editor sessions.
package memory

import (
	"context"
	"sync"

	"github.com/canopyhq/canopy/pkg/domain"
)

// Store implements ports.FlowStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Flow
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Flow),
	}
}

// Save persists the flow in memory.
func (s *Store) Save(ctx context.Context, flow domain.Flow) error {
	// Deep copy so later edits to the caller's graph don't mutate the
	// saved version, mirroring what serialization would do.
	copied := copyFlow(flow)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[flow.ID] = copied
	return nil
}

// Load retrieves a flow from memory.
func (s *Store) Load(ctx context.Context, id string) (domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flow, ok := s.data[id]
	if !ok {
		return domain.Flow{}, domain.ErrFlowNotFound
	}

	// Copy on read so the caller can't reach into stored state.
	return copyFlow(flow), nil
}

// Delete removes a flow.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the IDs of saved flows.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func copyFlow(flow domain.Flow) domain.Flow {
	copied := flow
	copied.Nodes = make([]domain.Node, len(flow.Nodes))
	copy(copied.Nodes, flow.Nodes)
	copied.Edges = make([]domain.Edge, len(flow.Edges))
	copy(copied.Edges, flow.Edges)
	return copied
}
