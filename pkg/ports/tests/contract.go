// Package tests provides reusable contract suites for ports interfaces.
// Adapter packages run these against their implementations to prove
// interchangeability.
package tests

import (
	"context"
	"testing"

	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunFlowStoreContract verifies that a store complies with ports.FlowStore.
func RunFlowStoreContract(t *testing.T, store ports.FlowStore) {
	t.Helper()
	ctx := context.Background()

	flow := domain.Flow{
		ID:          "contract-flow",
		Name:        "Checkout",
		Description: "Happy path",
		Nodes: []domain.Node{
			{ID: "n1", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionStart}},
			{ID: "n2", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionClick, Selector: "#buy"}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "n1", Target: "n2"}},
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, flow))

		loaded, err := store.Load(ctx, flow.ID)
		require.NoError(t, err)
		assert.Equal(t, flow.ID, loaded.ID)
		assert.Equal(t, flow.Name, loaded.Name)
		assert.Equal(t, flow.Nodes, loaded.Nodes)
		assert.Equal(t, flow.Edges, loaded.Edges)
	})

	t.Run("LoadIsolation", func(t *testing.T) {
		loaded, err := store.Load(ctx, flow.ID)
		require.NoError(t, err)

		// Mutating the loaded copy must not leak back into the store.
		loaded.Nodes[0].Data.Selector = "tampered"
		reloaded, err := store.Load(ctx, flow.ID)
		require.NoError(t, err)
		assert.Empty(t, reloaded.Nodes[0].Data.Selector)
	})

	t.Run("Overwrite", func(t *testing.T) {
		updated := flow
		updated.Name = "Checkout v2"
		require.NoError(t, store.Save(ctx, updated))

		loaded, err := store.Load(ctx, flow.ID)
		require.NoError(t, err)
		assert.Equal(t, "Checkout v2", loaded.Name)
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, flow.ID)
	})

	t.Run("LoadMissing", func(t *testing.T) {
		_, err := store.Load(ctx, "does-not-exist")
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, flow.ID))
		_, err := store.Load(ctx, flow.ID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)

		// Deleting a missing flow is not an error.
		assert.NoError(t, store.Delete(ctx, flow.ID))
	})
}
