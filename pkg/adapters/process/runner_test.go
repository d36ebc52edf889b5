package process_test

import (
	"context"
	"testing"
	"time"

	"github.com/canopyhq/canopy/pkg/adapters/process"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFlow() domain.Flow {
	return domain.Flow{
		ID:   "smoke",
		Name: "Smoke",
		Nodes: []domain.Node{
			{ID: "n1", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionStart}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "n1", Target: "n1"}},
	}
}

func TestRun_ParsesChildResults(t *testing.T) {
	// The child echoes a fixed result set, ignoring the flow on stdin.
	r := process.NewRunner("sh", process.WithArgs("-c",
		`cat > /dev/null; echo '[{"node_id":"n1","status":"passed","message":"start"}]'`,
	))

	results, err := r.Run(context.Background(), sampleFlow())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "n1", results[0].NodeID)
	assert.Equal(t, domain.StepPassed, results[0].Status)
}

func TestRun_ChildReceivesFlowAndEnv(t *testing.T) {
	// The child derives its output from the payload and the env var, so a
	// passing test proves both arrived.
	r := process.NewRunner("sh", process.WithArgs("-c",
		`payload=$(cat); printf '[{"node_id":"%s","status":"passed"}]' "$CANOPY_FLOW_ID"`,
	))

	results, err := r.Run(context.Background(), sampleFlow())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "smoke", results[0].NodeID)
}

func TestRun_ChildFailureSurfacesStderr(t *testing.T) {
	r := process.NewRunner("sh", process.WithArgs("-c",
		`cat > /dev/null; echo "browser exploded" >&2; exit 3`,
	))

	_, err := r.Run(context.Background(), sampleFlow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser exploded")
}

func TestRun_InvalidOutputIsAnError(t *testing.T) {
	r := process.NewRunner("sh", process.WithArgs("-c",
		`cat > /dev/null; echo "not json"`,
	))

	_, err := r.Run(context.Background(), sampleFlow())
	assert.Error(t, err)
}

func TestRun_ContextCancelKillsChild(t *testing.T) {
	r := process.NewRunner("sh", process.WithArgs("-c", `sleep 30`))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, sampleFlow())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRun_ExtraEnvIsPassed(t *testing.T) {
	r := process.NewRunner("sh",
		process.WithArgs("-c", `cat > /dev/null; printf '[{"node_id":"%s","status":"passed"}]' "$TARGET"`),
		process.WithEnv(map[string]string{"TARGET": "staging"}),
	)

	results, err := r.Run(context.Background(), sampleFlow())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "staging", results[0].NodeID)
}
