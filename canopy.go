package canopy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/canopyhq/canopy/internal/logging"
	"github.com/canopyhq/canopy/pkg/dispatcher"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/graph"
	"github.com/canopyhq/canopy/pkg/ports"
	"github.com/canopyhq/canopy/pkg/validator"
)

// Version is the library version reported by the CLI and the serving
// adapters.
var Version = "0.1.0"

// Workbench is the high-level entry point for the library.
// It holds the working copy of one flow, applies editor change-sets to it,
// and dispatches runs through the injected runner.
type Workbench struct {
	name        string
	description string
	nodes       []domain.Node
	edges       []domain.Edge

	store      ports.FlowStore
	selection  ports.SelectionSource
	dispatcher *dispatcher.Dispatcher
	logger     *slog.Logger

	runner ports.Runner
	hooks  domain.RunHooks
}

// Option defines a functional option for configuring the Workbench.
type Option func(*Workbench)

// WithStore injects a persistence backend for Save and Load.
func WithStore(store ports.FlowStore) Option {
	return func(w *Workbench) {
		w.store = store
	}
}

// WithRunner injects the execution backend. Without one, Run refuses
// every flow.
func WithRunner(runner ports.Runner) Option {
	return func(w *Workbench) {
		w.runner = runner
	}
}

// WithSelection injects the source of the currently selected DOM element.
func WithSelection(src ports.SelectionSource) Option {
	return func(w *Workbench) {
		w.selection = src
	}
}

// WithHooks registers run lifecycle hooks.
func WithHooks(hooks domain.RunHooks) Option {
	return func(w *Workbench) {
		w.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workbench) {
		w.logger = logger
	}
}

// NewWorkbench creates a workbench for a flow with the given name.
func NewWorkbench(name string, opts ...Option) *Workbench {
	w := &Workbench{
		name:   name,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.runner != nil {
		w.dispatcher = dispatcher.New(w.runner,
			dispatcher.WithLogger(w.logger),
			dispatcher.WithHooks(w.hooks),
		)
	}
	return w
}

// SetDescription sets the flow description carried into Flow and Save.
func (w *Workbench) SetDescription(desc string) {
	w.description = desc
}

// Nodes returns the current node set.
func (w *Workbench) Nodes() []domain.Node {
	return w.nodes
}

// Edges returns the current edge set.
func (w *Workbench) Edges() []domain.Edge {
	return w.edges
}

// ApplyNodeChanges folds a change-set into the working node set.
func (w *Workbench) ApplyNodeChanges(changes []graph.NodeChange) {
	w.nodes = graph.ApplyNodeChanges(w.nodes, changes)
}

// ApplyEdgeChanges folds a change-set into the working edge set.
func (w *Workbench) ApplyEdgeChanges(changes []graph.EdgeChange) {
	w.edges = graph.ApplyEdgeChanges(w.edges, changes)
}

// Connect materializes a prospective connection into an edge.
func (w *Workbench) Connect(conn domain.Connection) {
	w.edges = graph.Connect(w.edges, conn)
}

// AddNodeFromSelection inserts a click node targeting the currently
// selected element. Without a selection source, or with nothing selected,
// the graph is left unchanged.
func (w *Workbench) AddNodeFromSelection() {
	if w.selection == nil {
		return
	}
	ref, ok := w.selection.Current()
	w.nodes = graph.AddNodeFromSelection(w.nodes, ref, ok)
}

// Flow snapshots the working graph as a flow definition.
func (w *Workbench) Flow() domain.Flow {
	return domain.Flow{
		ID:          w.name,
		Name:        w.name,
		Description: w.description,
		Nodes:       w.nodes,
		Edges:       w.edges,
	}
}

// Validate reports whether the working flow is runnable.
func (w *Workbench) Validate() bool {
	return validator.Validate(w.Flow())
}

// Save persists the working flow to the configured store.
func (w *Workbench) Save(ctx context.Context) error {
	if w.store == nil {
		return fmt.Errorf("no store configured")
	}
	return w.store.Save(ctx, w.Flow())
}

// Load replaces the working graph with a stored flow.
func (w *Workbench) Load(ctx context.Context, id string) error {
	if w.store == nil {
		return fmt.Errorf("no store configured")
	}
	flow, err := w.store.Load(ctx, id)
	if err != nil {
		return err
	}
	w.name = flow.ID
	w.description = flow.Description
	w.nodes = flow.Nodes
	w.edges = flow.Edges
	return nil
}

// Run dispatches the working flow to the runner. Invalid flows are refused
// silently, and runner failures are absorbed into the results; inspect
// Results afterwards. Without a runner, Run is a no-op.
func (w *Workbench) Run(ctx context.Context) {
	if w.dispatcher == nil {
		w.logger.Warn("run requested without a configured runner", "flow", w.name)
		return
	}
	w.dispatcher.Run(ctx, w.Flow())
}

// Results returns the step results of the most recent run.
func (w *Workbench) Results() []domain.StepResult {
	if w.dispatcher == nil {
		return nil
	}
	return w.dispatcher.Results()
}

// State reports whether a run is currently in flight.
func (w *Workbench) State() dispatcher.State {
	if w.dispatcher == nil {
		return dispatcher.StateIdle
	}
	return w.dispatcher.State()
}
