// Package dispatcher orchestrates flow execution: it gates a run request
// on validation, delegates the actual automation to an injected runner,
// and accumulates the results for the surrounding UI to observe.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/canopyhq/canopy/internal/logging"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/ports"
	"github.com/canopyhq/canopy/pkg/validator"
)

// State is the dispatcher run state.
type State string

const (
	// StateIdle means no run is in progress. This is the initial state and
	// the state the dispatcher returns to after every run.
	StateIdle State = "idle"
	// StateRunning means the external runner has the flow.
	StateRunning State = "running"
)

// Dispatcher drives the Idle -> Running -> Idle run lifecycle.
//
// State and Results are safe to call while a run is in flight. Run itself
// is not serialized: preventing a second run request while one is in
// progress is the caller's responsibility (the HTTP adapter does this with
// a run-lock manager; a UI does it by disabling the trigger). Invoking Run
// concurrently has undefined interleaving of the result-clearing step.
type Dispatcher struct {
	runner ports.Runner
	logger *slog.Logger
	hooks  domain.RunHooks

	mu      sync.Mutex
	state   State
	results []domain.StepResult
}

// Option defines a functional option for configuring the Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHooks registers run lifecycle hooks.
func WithHooks(hooks domain.RunHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// New creates a Dispatcher delegating execution to the given runner.
func New(runner ports.Runner, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		runner: runner,
		logger: logging.NewNop(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes the flow through the injected runner.
//
// An invalid flow is refused silently: the dispatcher stays Idle, the
// result sequence is untouched, and the refusal is only observable through
// logging and the OnRunRefused hook. A runner failure is caught here, never
// propagated; the result sequence is whatever the runner returned before
// failing (possibly empty). The dispatcher returns to Idle unconditionally
// once the runner settles.
func (d *Dispatcher) Run(ctx context.Context, flow domain.Flow) {
	if !validator.Validate(flow) {
		d.logger.Warn("run refused: flow failed validation", "flow", flow.ID)
		d.fire(ctx, d.hooks.OnRunRefused, flow, domain.EventRunRefused, false)
		return
	}

	d.mu.Lock()
	d.state = StateRunning
	d.results = nil
	d.mu.Unlock()
	d.fire(ctx, d.hooks.OnRunStart, flow, domain.EventRunStart, false)

	results, err := d.invoke(ctx, flow)

	d.mu.Lock()
	d.results = results
	d.state = StateIdle
	d.mu.Unlock()
	if err != nil {
		d.logger.Error("runner failed", "flow", flow.ID, "err", err)
	}
	d.fire(ctx, d.hooks.OnRunFinish, flow, domain.EventRunFinish, err != nil)
}

// invoke calls the runner, converting a panic into a failure so that no
// runner misbehavior escapes the dispatcher boundary.
func (d *Dispatcher) invoke(ctx context.Context, flow domain.Flow) (results []domain.StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &runnerPanicError{value: r}
		}
	}()
	return d.runner.Run(ctx, flow)
}

// State returns the current run state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Results returns a copy of the result sequence accumulated by the last
// run. It is empty while a run is in progress and after a refused run
// request it still holds the previous run's results.
func (d *Dispatcher) Results() []domain.StepResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.StepResult, len(d.results))
	copy(out, d.results)
	return out
}

func (d *Dispatcher) fire(ctx context.Context, hook func(context.Context, *domain.RunEvent), flow domain.Flow, typ domain.EventType, failed bool) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.RunEvent{
		Timestamp: time.Now(),
		Type:      typ,
		FlowID:    flow.ID,
		FlowName:  flow.Name,
		Failed:    failed,
	})
}

type runnerPanicError struct {
	value any
}

func (e *runnerPanicError) Error() string {
	return fmt.Sprintf("runner panicked: %v", e.value)
}
