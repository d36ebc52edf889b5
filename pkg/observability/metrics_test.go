package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// histogramSamples reads the observation count of a histogram metric.
func histogramSamples(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() == name {
			require.Len(t, fam.GetMetric(), 1)
			return fam.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestHooks_CountRunOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	now := time.Now()
	hooks.OnRunStart(ctx, &domain.RunEvent{Type: domain.EventRunStart, FlowID: "f1", Timestamp: now})
	hooks.OnRunFinish(ctx, &domain.RunEvent{Type: domain.EventRunFinish, FlowID: "f1", Timestamp: now.Add(time.Second)})

	hooks.OnRunStart(ctx, &domain.RunEvent{Type: domain.EventRunStart, FlowID: "f2", Timestamp: now})
	hooks.OnRunFinish(ctx, &domain.RunEvent{Type: domain.EventRunFinish, FlowID: "f2", Timestamp: now.Add(time.Second), Failed: true})

	hooks.OnRunRefused(ctx, &domain.RunEvent{Type: domain.EventRunRefused, FlowID: "f3", Timestamp: now})

	runs, err := testutil.GatherAndCount(reg, "canopy_runs_total")
	assert.NoError(t, err)
	assert.Equal(t, 3, runs, "one series per status label")
}

func TestHooks_ObservesDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	now := time.Now()
	hooks.OnRunStart(ctx, &domain.RunEvent{Type: domain.EventRunStart, FlowID: "f1", Timestamp: now})
	hooks.OnRunFinish(ctx, &domain.RunEvent{Type: domain.EventRunFinish, FlowID: "f1", Timestamp: now.Add(250 * time.Millisecond)})

	assert.Equal(t, uint64(1), histogramSamples(t, reg, "canopy_run_duration_seconds"))
}

func TestHooks_FinishWithoutStartSkipsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()

	hooks.OnRunFinish(context.Background(), &domain.RunEvent{Type: domain.EventRunFinish, FlowID: "unseen", Timestamp: time.Now()})

	assert.Zero(t, histogramSamples(t, reg, "canopy_run_duration_seconds"))
}

func TestObserveValidation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ObserveValidation(true)
	m.ObserveValidation(true)
	m.ObserveValidation(false)

	count, err := testutil.GatherAndCount(reg, "canopy_validations_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count, "one series per result label")
}
