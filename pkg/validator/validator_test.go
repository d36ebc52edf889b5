package validator_test

import (
	"errors"
	"testing"

	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actionNode(id, actionType string) domain.Node {
	return domain.Node{
		ID:   id,
		Kind: domain.NodeKindAction,
		Data: domain.NodeData{ActionType: actionType},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		flow domain.Flow
		want bool
	}{
		{
			name: "Empty flow fails",
			flow: domain.Flow{},
			want: false,
		},
		{
			name: "Single start node with no edges fails coverage",
			flow: domain.Flow{
				Nodes: []domain.Node{actionNode("a", domain.ActionStart)},
			},
			want: false,
		},
		{
			name: "Start plus click with one edge passes",
			flow: domain.Flow{
				Nodes: []domain.Node{
					actionNode("a", domain.ActionStart),
					actionNode("b", domain.ActionClick),
				},
				Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "b"}},
			},
			want: true,
		},
		{
			name: "Isolated extra node fails coverage",
			flow: domain.Flow{
				Nodes: []domain.Node{
					actionNode("a", domain.ActionStart),
					actionNode("b", domain.ActionClick),
					actionNode("c", domain.ActionClick),
				},
				Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "b"}},
			},
			want: false,
		},
		{
			name: "Connected graph without start node fails",
			flow: domain.Flow{
				Nodes: []domain.Node{
					actionNode("a", domain.ActionClick),
					actionNode("b", domain.ActionClick),
				},
				Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "b"}},
			},
			want: false,
		},
		{
			name: "Start node kind must be action",
			flow: domain.Flow{
				Nodes: []domain.Node{
					{ID: "a", Kind: domain.NodeKindWait, Data: domain.NodeData{ActionType: domain.ActionStart}},
					actionNode("b", domain.ActionClick),
				},
				Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "b"}},
			},
			want: false,
		},
		{
			name: "Self-loop satisfies coverage",
			flow: domain.Flow{
				Nodes: []domain.Node{actionNode("a", domain.ActionStart)},
				Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "a"}},
			},
			want: true,
		},
		{
			name: "Dangling edge endpoints still cover referenced nodes",
			flow: domain.Flow{
				Nodes: []domain.Node{actionNode("a", domain.ActionStart)},
				Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "ghost"}},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validator.Validate(tt.flow))
		})
	}
}

func TestCheck(t *testing.T) {
	t.Run("Valid flow returns nil", func(t *testing.T) {
		flow := domain.Flow{
			Nodes: []domain.Node{
				actionNode("a", domain.ActionStart),
				actionNode("b", domain.ActionClick),
			},
			Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "b"}},
		}
		assert.NoError(t, validator.Check(flow))
	})

	t.Run("Reports both failing rules", func(t *testing.T) {
		flow := domain.Flow{
			Nodes: []domain.Node{actionNode("lonely", domain.ActionClick)},
		}
		err := validator.Check(flow)
		require.Error(t, err)
		assert.ErrorIs(t, err, validator.ErrNoStartNode)

		var disc *validator.DisconnectedError
		require.True(t, errors.As(err, &disc))
		assert.Equal(t, []string{"lonely"}, disc.NodeIDs)
	})

	t.Run("Check agrees with Validate", func(t *testing.T) {
		flows := []domain.Flow{
			{},
			{Nodes: []domain.Node{actionNode("a", domain.ActionStart)}},
			{
				Nodes: []domain.Node{
					actionNode("a", domain.ActionStart),
					actionNode("b", domain.ActionClick),
				},
				Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "b"}},
			},
		}
		for _, flow := range flows {
			assert.Equal(t, validator.Validate(flow), validator.Check(flow) == nil)
		}
	})
}
