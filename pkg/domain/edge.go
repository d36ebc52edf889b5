package domain

// Edge is a directed connection between two nodes in a flow graph.
// Source and Target reference node IDs in the same graph. Dangling
// references are permitted during interactive editing; whether the graph
// is sound is a validation concern, not a structural one.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Connection is a prospective source/target pair, produced by the editor
// when the user draws a new edge. It has no identity until the graph model
// materializes it into an Edge.
type Connection struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}
