// Package validator decides whether a flow is well-formed enough to
// execute. It is the single gate between the permissive graph model and
// the execution dispatcher.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/canopyhq/canopy/pkg/domain"
)

// ErrNoStartNode is reported when no action node with type "start" exists.
var ErrNoStartNode = errors.New("flow has no start node")

// DisconnectedError reports nodes that participate in no edge.
type DisconnectedError struct {
	NodeIDs []string
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("nodes not connected to any edge: %s", strings.Join(e.NodeIDs, ", "))
}

// Validate reports whether the flow may be executed. It is pure, total,
// and never fails: any flow maps to true or false.
//
// Two rules must both hold:
//
//  1. At least one node is an action of type "start".
//  2. Every node appears as the source or target of at least one edge.
//
// Rule 2 means a single-node flow with no edges always fails: every node
// must participate in at least one connection, even if it is the only one.
// There is no cycle detection, no kind-compatibility check between
// connected nodes, and no reachability check beyond the coverage rule.
// Those are documented limitations, not oversights.
func Validate(flow domain.Flow) bool {
	if !hasStartNode(flow) {
		// Rule 2 would be wasted work; short-circuiting here is a
		// performance choice with no observable difference.
		return false
	}
	return len(disconnectedNodes(flow)) == 0
}

// Check is the diagnostic companion to Validate: nil when the flow is
// valid, otherwise the failing rule(s). The execution gate itself only
// consults Validate; Check exists for CLI and API surfaces that want to
// tell the user why a run was refused.
func Check(flow domain.Flow) error {
	var errs []error

	if !hasStartNode(flow) {
		errs = append(errs, ErrNoStartNode)
	}
	if missing := disconnectedNodes(flow); len(missing) > 0 {
		errs = append(errs, &DisconnectedError{NodeIDs: missing})
	}

	return errors.Join(errs...)
}

func hasStartNode(flow domain.Flow) bool {
	for _, n := range flow.Nodes {
		if n.IsStart() {
			return true
		}
	}
	return false
}

// disconnectedNodes returns the IDs of nodes that appear in no edge
// endpoint, in node order.
func disconnectedNodes(flow domain.Flow) []string {
	connected := make(map[string]struct{}, len(flow.Edges)*2)
	for _, e := range flow.Edges {
		connected[e.Source] = struct{}{}
		connected[e.Target] = struct{}{}
	}

	var missing []string
	for _, n := range flow.Nodes {
		if _, ok := connected[n.ID]; !ok {
			missing = append(missing, n.ID)
		}
	}
	return missing
}
