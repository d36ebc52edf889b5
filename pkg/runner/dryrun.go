package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/canopyhq/canopy/pkg/domain"
)

// DryRun walks a flow without touching a browser, emitting one passed
// result per reachable step. It is the default runner for `canopy run`
// so authors can check a flow's shape before wiring a real backend.
type DryRun struct {
	// StepDelay inserts an artificial pause per step, useful for demoing
	// the Running state. Zero means no delay.
	StepDelay time.Duration
}

// Run implements ports.Runner. Traversal starts at the flow's start nodes
// and follows edges breadth-first; each node is visited at most once, so
// cycles terminate.
func (d *DryRun) Run(ctx context.Context, flow domain.Flow) ([]domain.StepResult, error) {
	targets := make(map[string][]string)
	for _, e := range flow.Edges {
		targets[e.Source] = append(targets[e.Source], e.Target)
	}

	var queue []string
	for _, n := range flow.StartNodes() {
		queue = append(queue, n.ID)
	}

	visited := make(map[string]bool)
	var results []domain.StepResult

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		node, ok := flow.Node(id)
		if !ok {
			// Dangling edge target; nothing to execute.
			continue
		}

		if d.StepDelay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(d.StepDelay):
			}
		}

		start := time.Now()
		results = append(results, domain.StepResult{
			NodeID:   node.ID,
			Status:   domain.StepPassed,
			Message:  Describe(node),
			Duration: time.Since(start),
		})

		queue = append(queue, targets[id]...)
	}

	return results, nil
}

// Describe renders a human-readable one-liner for a step.
func Describe(node domain.Node) string {
	switch node.Kind {
	case domain.NodeKindAction:
		switch node.Data.ActionType {
		case domain.ActionStart:
			return "start"
		case domain.ActionNavigate:
			return "navigate to " + node.Data.Value
		default:
			return strings.TrimSpace(node.Data.ActionType + " " + node.Data.Selector)
		}
	case domain.NodeKindInput:
		return fmt.Sprintf("type %q into %s", node.Data.Value, node.Data.Selector)
	case domain.NodeKindAssertion:
		return "assert " + node.Data.Selector
	case domain.NodeKindCondition:
		return "evaluate " + node.Data.Expression
	case domain.NodeKindWait:
		return fmt.Sprintf("wait %dms", node.Data.TimeoutMs)
	default:
		return node.Kind
	}
}
