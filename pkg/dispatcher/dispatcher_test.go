package dispatcher_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/canopyhq/canopy/pkg/dispatcher"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner records invocations and returns canned results.
type stubRunner struct {
	calls   int
	results []domain.StepResult
	err     error

	// observedState lets tests peek at the dispatcher mid-run.
	observe func()
}

func (s *stubRunner) Run(ctx context.Context, flow domain.Flow) ([]domain.StepResult, error) {
	s.calls++
	if s.observe != nil {
		s.observe()
	}
	return s.results, s.err
}

func validFlow() domain.Flow {
	return domain.Flow{
		ID: "f1",
		Nodes: []domain.Node{
			{ID: "a", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionStart}},
			{ID: "b", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionClick, Selector: "#buy"}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "b"}},
	}
}

func invalidFlow() domain.Flow {
	// Single node, no edges: fails the coverage rule.
	return domain.Flow{
		ID:    "f2",
		Nodes: []domain.Node{{ID: "a", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionStart}}},
	}
}

func TestRun_RefusesInvalidFlow(t *testing.T) {
	runner := &stubRunner{}
	var refused int
	d := dispatcher.New(runner, dispatcher.WithHooks(domain.RunHooks{
		OnRunRefused: func(context.Context, *domain.RunEvent) { refused++ },
	}))

	d.Run(context.Background(), invalidFlow())

	assert.Equal(t, dispatcher.StateIdle, d.State())
	assert.Empty(t, d.Results())
	assert.Zero(t, runner.calls, "runner must not be invoked for invalid flows")
	assert.Equal(t, 1, refused)
}

func TestRun_RefusalKeepsPreviousResults(t *testing.T) {
	runner := &stubRunner{results: []domain.StepResult{{NodeID: "a", Status: domain.StepPassed}}}
	d := dispatcher.New(runner)

	d.Run(context.Background(), validFlow())
	require.Len(t, d.Results(), 1)

	d.Run(context.Background(), invalidFlow())
	assert.Len(t, d.Results(), 1, "refused run must leave the result sequence untouched")
}

func TestRun_TransitionsThroughRunning(t *testing.T) {
	runner := &stubRunner{results: []domain.StepResult{{NodeID: "a", Status: domain.StepPassed}}}
	d := dispatcher.New(runner)
	runner.observe = func() {
		assert.Equal(t, dispatcher.StateRunning, d.State())
		assert.Empty(t, d.Results(), "results are cleared on entering Running")
	}

	d.Run(context.Background(), validFlow())

	assert.Equal(t, dispatcher.StateIdle, d.State())
	require.Len(t, d.Results(), 1)
	assert.Equal(t, domain.StepPassed, d.Results()[0].Status)
}

func TestRun_RunnerFailureDoesNotPropagate(t *testing.T) {
	runner := &stubRunner{err: errors.New("browser crashed")}

	var finish *domain.RunEvent
	d := dispatcher.New(runner, dispatcher.WithHooks(domain.RunHooks{
		OnRunFinish: func(_ context.Context, ev *domain.RunEvent) { finish = ev },
	}))

	assert.NotPanics(t, func() {
		d.Run(context.Background(), validFlow())
	})

	assert.Equal(t, dispatcher.StateIdle, d.State(), "dispatcher returns to Idle on failure")
	assert.Empty(t, d.Results())
	require.NotNil(t, finish)
	assert.True(t, finish.Failed)
}

func TestRun_PartialResultsKeptOnFailure(t *testing.T) {
	runner := &stubRunner{
		results: []domain.StepResult{{NodeID: "a", Status: domain.StepPassed}},
		err:     errors.New("step b timed out"),
	}
	d := dispatcher.New(runner)

	d.Run(context.Background(), validFlow())

	require.Len(t, d.Results(), 1)
	assert.Equal(t, "a", d.Results()[0].NodeID)
}

func TestRun_RunnerPanicIsContained(t *testing.T) {
	panicRunner := runnerFunc(func(ctx context.Context, flow domain.Flow) ([]domain.StepResult, error) {
		panic("boom")
	})
	d := dispatcher.New(panicRunner)

	assert.NotPanics(t, func() {
		d.Run(context.Background(), validFlow())
	})
	assert.Equal(t, dispatcher.StateIdle, d.State())
}

func TestRun_ClearsResultsBetweenRuns(t *testing.T) {
	runner := &stubRunner{results: []domain.StepResult{
		{NodeID: "a", Status: domain.StepPassed},
		{NodeID: "b", Status: domain.StepPassed},
	}}
	d := dispatcher.New(runner)

	d.Run(context.Background(), validFlow())
	require.Len(t, d.Results(), 2)

	runner.results = nil
	d.Run(context.Background(), validFlow())
	assert.Empty(t, d.Results(), "previous run's results do not leak into the next run")
}

func TestObservationDuringRunIsSafe(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := runnerFunc(func(ctx context.Context, flow domain.Flow) ([]domain.StepResult, error) {
		close(started)
		<-release
		return []domain.StepResult{{NodeID: "a", Status: domain.StepPassed}}, nil
	})
	d := dispatcher.New(slow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(context.Background(), validFlow())
	}()
	<-started

	// Hammer the observers while the runner holds the flow. The race
	// detector flags any unsynchronized access to state or results.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = d.State()
				_ = d.Results()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, dispatcher.StateRunning, d.State())
	assert.Empty(t, d.Results())

	close(release)
	<-done
	assert.Equal(t, dispatcher.StateIdle, d.State())
	require.Len(t, d.Results(), 1)
}

func TestRun_HookSequence(t *testing.T) {
	var events []domain.EventType
	record := func(_ context.Context, ev *domain.RunEvent) {
		events = append(events, ev.Type)
	}

	runner := &stubRunner{}
	d := dispatcher.New(runner, dispatcher.WithHooks(domain.RunHooks{
		OnRunStart:   record,
		OnRunRefused: record,
		OnRunFinish:  record,
	}))

	d.Run(context.Background(), validFlow())
	d.Run(context.Background(), invalidFlow())

	assert.Equal(t, []domain.EventType{
		domain.EventRunStart,
		domain.EventRunFinish,
		domain.EventRunRefused,
	}, events)
}

type runnerFunc func(ctx context.Context, flow domain.Flow) ([]domain.StepResult, error)

func (f runnerFunc) Run(ctx context.Context, flow domain.Flow) ([]domain.StepResult, error) {
	return f(ctx, flow)
}
