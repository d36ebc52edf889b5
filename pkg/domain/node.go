package domain

// NodeKind constants define the step semantics of a node.
const (
	// NodeKindAction performs a browser interaction (click, navigate, start).
	NodeKindAction = "action"
	// NodeKindCondition branches the flow on a predicate.
	NodeKindCondition = "condition"
	// NodeKindAssertion checks an expectation against the page.
	NodeKindAssertion = "assertion"
	// NodeKindInput types a value into a target element.
	NodeKindInput = "input"
	// NodeKindWait pauses until a timeout or element state.
	NodeKindWait = "wait"
)

// Action type constants for NodeKindAction nodes.
const (
	// ActionStart marks the entry point of a flow. Exactly this value is
	// what the validator looks for; a flow without it never runs.
	ActionStart = "start"
	// ActionClick clicks the node's target selector.
	ActionClick = "click"
	// ActionNavigate loads a URL (stored in Value).
	ActionNavigate = "navigate"
	// ActionHover moves the pointer over the target selector.
	ActionHover = "hover"
)

// Position is the display coordinate of a node on the editor canvas.
// It is presentation data only and carries no execution semantics.
type Position struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// NodeData holds the kind-specific payload of a node.
// Fields are optional depending on the kind: action nodes use ActionType and
// Selector, input nodes use Selector and Value, condition nodes use
// Expression, wait nodes use Timeout.
type NodeData struct {
	ActionType string `json:"action_type,omitempty" yaml:"action,omitempty" mapstructure:"action"`
	Selector   string `json:"selector,omitempty" yaml:"selector,omitempty" mapstructure:"selector"`
	Value      string `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty" mapstructure:"expression"`
	TimeoutMs  int    `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty" mapstructure:"timeout_ms"`
}

// Node represents a single step in the flow graph.
// The ID is assigned at creation and immutable thereafter.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     string   `json:"kind" yaml:"kind"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`
}

// IsStart reports whether this node is the flow entry point.
func (n Node) IsStart() bool {
	return n.Kind == NodeKindAction && n.Data.ActionType == ActionStart
}
