package graph

import "github.com/canopyhq/canopy/pkg/domain"

// ChangeType classifies a single change-set entry.
type ChangeType string

const (
	// ChangeAdd inserts a new node or edge.
	ChangeAdd ChangeType = "add"
	// ChangeUpdate replaces the payload of an existing node or edge.
	ChangeUpdate ChangeType = "update"
	// ChangeRemove deletes a node or edge by ID.
	ChangeRemove ChangeType = "remove"
	// ChangePosition moves a node on the canvas.
	ChangePosition ChangeType = "position"
)

// NodeChange is one entry of a node change-set. Which fields are read
// depends on Type: add and update read Node, remove and position read ID,
// position reads Position.
type NodeChange struct {
	Type     ChangeType      `json:"type"`
	ID       string          `json:"id,omitempty"`
	Node     domain.Node     `json:"node,omitempty"`
	Position domain.Position `json:"position,omitempty"`
}

// EdgeChange is one entry of an edge change-set.
type EdgeChange struct {
	Type ChangeType  `json:"type"`
	ID   string      `json:"id,omitempty"`
	Edge domain.Edge `json:"edge,omitempty"`
}
