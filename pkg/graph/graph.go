// Package graph implements the flow graph model: the node and edge
// collections behind the visual editor and the change-set operations that
// mutate them.
//
// Every entry point is a pure transform of (old state, changes) -> new
// state. The caller replaces its held collections with the returned ones;
// nothing in this package keeps shared mutable state. Entries referencing
// unknown IDs are skipped silently rather than failing the batch, which
// keeps interactive editing resilient to stale change-sets.
//
// The model is deliberately permissive: duplicate edges, self-loops, and
// dangling edge endpoints are all allowed here. The validator, not the
// model, is the gate before execution.
package graph

import (
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/selector"
	"github.com/google/uuid"
)

// DefaultNodePosition is where nodes created from a selection land on the
// canvas. The user drags them into place afterwards.
var DefaultNodePosition = domain.Position{X: 250, Y: 150}

// ApplyNodeChanges applies a batch of node changes in order and returns the
// new authoritative node set. The input slice is not mutated.
func ApplyNodeChanges(nodes []domain.Node, changes []NodeChange) []domain.Node {
	out := make([]domain.Node, len(nodes))
	copy(out, nodes)

	for _, change := range changes {
		out = applyNodeChange(out, change)
	}
	return out
}

// applyNodeChange is the per-entry reducer. Invalid references no-op.
func applyNodeChange(nodes []domain.Node, change NodeChange) []domain.Node {
	switch change.Type {
	case ChangeAdd:
		node := change.Node
		if node.ID == "" {
			node.ID = uuid.NewString()
		}
		return append(nodes, node)

	case ChangeUpdate:
		id := change.ID
		if id == "" {
			id = change.Node.ID
		}
		for i, n := range nodes {
			if n.ID == id {
				updated := change.Node
				updated.ID = n.ID // identity is immutable
				nodes[i] = updated
				break
			}
		}
		return nodes

	case ChangeRemove:
		filtered := nodes[:0]
		for _, n := range nodes {
			if n.ID != change.ID {
				filtered = append(filtered, n)
			}
		}
		return filtered

	case ChangePosition:
		for i, n := range nodes {
			if n.ID == change.ID {
				nodes[i].Position = change.Position
				break
			}
		}
		return nodes
	}
	return nodes
}

// ApplyEdgeChanges applies a batch of edge changes in order and returns the
// new authoritative edge set. The input slice is not mutated.
func ApplyEdgeChanges(edges []domain.Edge, changes []EdgeChange) []domain.Edge {
	out := make([]domain.Edge, len(edges))
	copy(out, edges)

	for _, change := range changes {
		out = applyEdgeChange(out, change)
	}
	return out
}

func applyEdgeChange(edges []domain.Edge, change EdgeChange) []domain.Edge {
	switch change.Type {
	case ChangeAdd:
		edge := change.Edge
		if edge.ID == "" {
			edge.ID = uuid.NewString()
		}
		return append(edges, edge)

	case ChangeUpdate:
		id := change.ID
		if id == "" {
			id = change.Edge.ID
		}
		for i, e := range edges {
			if e.ID == id {
				updated := change.Edge
				updated.ID = e.ID
				edges[i] = updated
				break
			}
		}
		return edges

	case ChangeRemove:
		filtered := edges[:0]
		for _, e := range edges {
			if e.ID != change.ID {
				filtered = append(filtered, e)
			}
		}
		return filtered
	}
	return edges
}

// Connect materializes a prospective connection into an edge with a fresh
// identifier and returns the new edge set. Duplicate edges and self-loops
// are permitted by the model.
func Connect(edges []domain.Edge, conn domain.Connection) []domain.Edge {
	out := make([]domain.Edge, len(edges), len(edges)+1)
	copy(out, edges)

	return append(out, domain.Edge{
		ID:     uuid.NewString(),
		Source: conn.Source,
		Target: conn.Target,
	})
}

// AddNodeFromSelection inserts a click action node targeting the selector
// derived from ref. When ok is false (no current selection) the node set is
// returned unchanged.
func AddNodeFromSelection(nodes []domain.Node, ref domain.ElementRef, ok bool) []domain.Node {
	if !ok {
		return nodes
	}

	return ApplyNodeChanges(nodes, []NodeChange{{
		Type: ChangeAdd,
		Node: domain.Node{
			Kind:     domain.NodeKindAction,
			Position: DefaultNodePosition,
			Data: domain.NodeData{
				ActionType: domain.ActionClick,
				Selector:   selector.Generate(ref),
			},
		},
	}})
}
