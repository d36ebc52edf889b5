package runner_test

import (
	"context"
	"testing"

	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRun_VisitsReachableSteps(t *testing.T) {
	flow := domain.Flow{
		ID: "f1",
		Nodes: []domain.Node{
			{ID: "a", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionStart}},
			{ID: "b", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionClick, Selector: "#buy"}},
			{ID: "c", Kind: domain.NodeKindAssertion, Data: domain.NodeData{Selector: ".receipt"}},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "c"},
		},
	}

	d := &runner.DryRun{}
	results, err := d.Run(context.Background(), flow)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "start", results[0].Message)
	assert.Equal(t, "click #buy", results[1].Message)
	assert.Equal(t, "assert .receipt", results[2].Message)
	for _, r := range results {
		assert.Equal(t, domain.StepPassed, r.Status)
	}
}

func TestDryRun_CyclesTerminate(t *testing.T) {
	flow := domain.Flow{
		Nodes: []domain.Node{
			{ID: "a", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionStart}},
			{ID: "b", Kind: domain.NodeKindWait, Data: domain.NodeData{TimeoutMs: 100}},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "a"},
		},
	}

	d := &runner.DryRun{}
	results, err := d.Run(context.Background(), flow)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestDryRun_DanglingTargetSkipped(t *testing.T) {
	flow := domain.Flow{
		Nodes: []domain.Node{
			{ID: "a", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionStart}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "ghost"}},
	}

	d := &runner.DryRun{}
	results, err := d.Run(context.Background(), flow)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].NodeID)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		node domain.Node
		want string
	}{
		{domain.Node{Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionNavigate, Value: "https://example.com"}}, "navigate to https://example.com"},
		{domain.Node{Kind: domain.NodeKindInput, Data: domain.NodeData{Selector: "#email", Value: "a@b.c"}}, `type "a@b.c" into #email`},
		{domain.Node{Kind: domain.NodeKindCondition, Data: domain.NodeData{Expression: "cart.total > 0"}}, "evaluate cart.total > 0"},
		{domain.Node{Kind: domain.NodeKindWait, Data: domain.NodeData{TimeoutMs: 500}}, "wait 500ms"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, runner.Describe(tt.node))
	}
}
