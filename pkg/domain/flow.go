package domain

// Flow is the aggregate of a saved test: identity, display metadata, and
// the directed graph of steps. It is constructed transiently at save or run
// time from the live editable state; node insertion order is retained for
// display only and carries no execution meaning.
type Flow struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []Node `json:"nodes" yaml:"nodes"`
	Edges       []Edge `json:"edges" yaml:"edges"`
}

// Node returns the node with the given ID, if present.
func (f Flow) Node(id string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// StartNodes returns the nodes marking flow entry points.
// A valid flow has at least one.
func (f Flow) StartNodes() []Node {
	var starts []Node
	for _, n := range f.Nodes {
		if n.IsStart() {
			starts = append(starts, n)
		}
	}
	return starts
}
