package domain

// ElementRefKind tags the two variants of an element reference.
type ElementRefKind string

const (
	// ElementLive references an element observed on a rendered page. It may
	// carry positional context (its index among the parent's element
	// children) for disambiguation.
	ElementLive ElementRefKind = "live"
	// ElementDescriptor is a lightweight structural description of an
	// element, detached from any page. It is treated as context-free:
	// positional disambiguation is never applied to it.
	ElementDescriptor ElementRefKind = "descriptor"
)

// ElementRef identifies a page element for selector generation.
// It is a read-only input to the core; selection is produced by an external
// collaborator (the DOM exploration UI).
type ElementRef struct {
	Kind ElementRefKind `json:"kind" yaml:"kind"`

	// Tag is the element tag name, in whatever case the source reported it.
	Tag string `json:"tag" yaml:"tag"`

	// ID is the element id attribute, empty when absent. A non-empty ID is
	// assumed page-unique.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Class is the raw class attribute string, empty when absent.
	Class string `json:"class,omitempty" yaml:"class,omitempty"`

	// NthOfParent is the 1-based position of the element among its parent's
	// element children. Zero means no parent context is available. Only
	// honored for ElementLive references.
	NthOfParent int `json:"nth_of_parent,omitempty" yaml:"nth_of_parent,omitempty"`
}
