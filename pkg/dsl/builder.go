package dsl

import (
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/google/uuid"
)

// Builder accumulates flow steps and the edges between them.
type Builder struct {
	flow    domain.Flow
	lastID  string
	chained bool
}

// New creates a flow builder. The name doubles as the flow ID.
func New(name string) *Builder {
	return &Builder{
		flow: domain.Flow{
			ID:   name,
			Name: name,
		},
	}
}

// Describe sets the flow description.
func (b *Builder) Describe(desc string) *Builder {
	b.flow.Description = desc
	return b
}

// Start adds the entry node. Every runnable flow needs exactly one.
func (b *Builder) Start() *Builder {
	return b.add(domain.Node{
		ID:   "start",
		Kind: domain.NodeKindAction,
		Data: domain.NodeData{ActionType: domain.ActionStart},
	})
}

// Navigate adds a navigation step loading the given URL.
func (b *Builder) Navigate(id, url string) *Builder {
	return b.add(domain.Node{
		ID:   id,
		Kind: domain.NodeKindAction,
		Data: domain.NodeData{ActionType: domain.ActionNavigate, Value: url},
	})
}

// Click adds a click step on the given selector.
func (b *Builder) Click(id, selector string) *Builder {
	return b.add(domain.Node{
		ID:   id,
		Kind: domain.NodeKindAction,
		Data: domain.NodeData{ActionType: domain.ActionClick, Selector: selector},
	})
}

// Hover adds a hover step on the given selector.
func (b *Builder) Hover(id, selector string) *Builder {
	return b.add(domain.Node{
		ID:   id,
		Kind: domain.NodeKindAction,
		Data: domain.NodeData{ActionType: domain.ActionHover, Selector: selector},
	})
}

// Type adds an input step typing value into the selector's element.
func (b *Builder) Type(id, selector, value string) *Builder {
	return b.add(domain.Node{
		ID:   id,
		Kind: domain.NodeKindInput,
		Data: domain.NodeData{Selector: selector, Value: value},
	})
}

// Assert adds an assertion step checking the selector's element.
func (b *Builder) Assert(id, selector string) *Builder {
	return b.add(domain.Node{
		ID:   id,
		Kind: domain.NodeKindAssertion,
		Data: domain.NodeData{Selector: selector},
	})
}

// When adds a condition step evaluating the given expression.
func (b *Builder) When(id, expression string) *Builder {
	return b.add(domain.Node{
		ID:   id,
		Kind: domain.NodeKindCondition,
		Data: domain.NodeData{Expression: expression},
	})
}

// Wait adds a wait step pausing for the given timeout.
func (b *Builder) Wait(id string, timeoutMs int) *Builder {
	return b.add(domain.Node{
		ID:   id,
		Kind: domain.NodeKindWait,
		Data: domain.NodeData{TimeoutMs: timeoutMs},
	})
}

// Branch adds an extra edge from one existing node to another, on top of
// the implicit linear chain. Use it after When to wire the alternate path.
func (b *Builder) Branch(from, to string) *Builder {
	b.flow.Edges = append(b.flow.Edges, domain.Edge{
		ID:     uuid.NewString(),
		Source: from,
		Target: to,
	})
	return b
}

// Detach breaks the implicit chain: the next added step gets no edge from
// the previous one. Combine with Branch to wire it explicitly.
func (b *Builder) Detach() *Builder {
	b.chained = false
	return b
}

// Build returns the assembled flow definition.
func (b *Builder) Build() domain.Flow {
	return b.flow
}

func (b *Builder) add(node domain.Node) *Builder {
	b.flow.Nodes = append(b.flow.Nodes, node)
	if b.chained && b.lastID != "" {
		b.flow.Edges = append(b.flow.Edges, domain.Edge{
			ID:     uuid.NewString(),
			Source: b.lastID,
			Target: node.ID,
		})
	}
	b.lastID = node.ID
	b.chained = true
	return b
}
