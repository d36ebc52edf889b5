// Package http exposes the flow library and the execution dispatcher over a
// REST API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/canopyhq/canopy"
	"github.com/canopyhq/canopy/internal/logging"
	mermaid "github.com/canopyhq/canopy/internal/presentation/graph"
	"github.com/canopyhq/canopy/pkg/dispatcher"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/observability"
	"github.com/canopyhq/canopy/pkg/ports"
	"github.com/canopyhq/canopy/pkg/runlock"
	"github.com/canopyhq/canopy/pkg/selector"
	"github.com/canopyhq/canopy/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the flow library and run endpoints.
type Server struct {
	store   ports.FlowStore
	runner  ports.Runner
	locks   *runlock.Manager
	logger  *slog.Logger
	metrics *observability.Metrics
	reg     *prometheus.Registry

	mu          sync.Mutex
	dispatchers map[string]*dispatcher.Dispatcher
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation and the /metrics endpoint.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.reg = reg
		s.metrics = observability.NewMetrics(reg)
	}
}

// WithRunLocks sets the per-flow run coordination manager.
// Without it every run request dispatches unguarded.
func WithRunLocks(locks *runlock.Manager) Option {
	return func(s *Server) {
		s.locks = locks
	}
}

// NewServer creates a flow API server backed by the given store and runner.
func NewServer(store ports.FlowStore, runner ports.Runner, opts ...Option) *Server {
	s := &Server{
		store:       store,
		runner:      runner,
		logger:      logging.NewNop(),
		dispatchers: make(map[string]*dispatcher.Dispatcher),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locks == nil {
		s.locks = runlock.NewManager(runlock.WithLogger(s.logger))
	}
	return s
}

// Handler builds the chi router with CORS enabled.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)

	r.Route("/flows", func(r chi.Router) {
		r.Get("/", s.listFlows)
		r.Post("/", s.createFlow)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getFlow)
			r.Put("/", s.putFlow)
			r.Delete("/", s.deleteFlow)
			r.Post("/validate", s.validateFlow)
			r.Post("/run", s.runFlow)
			r.Get("/results", s.getResults)
			r.Get("/graph", s.getGraph)
		})
	})

	r.Post("/selector", s.generateSelector)

	if s.reg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// dispatcherFor returns the per-flow dispatcher, creating it on first use.
func (s *Server) dispatcherFor(flowID string) *dispatcher.Dispatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dispatchers[flowID]; ok {
		return d
	}
	opts := []dispatcher.Option{dispatcher.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, dispatcher.WithHooks(s.metrics.Hooks()))
	}
	d := dispatcher.New(s.runner, opts...)
	s.dispatchers[flowID] = d
	return d
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "canopy-http",
		"version": strings.TrimSpace(canopy.Version),
	})
}

func (s *Server) listFlows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("flow list failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"flows": ids})
}

func (s *Server) createFlow(w http.ResponseWriter, r *http.Request) {
	var flow domain.Flow
	if err := json.NewDecoder(r.Body).Decode(&flow); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("create flow: invalid request body", "err", err)
		return
	}
	if flow.ID == "" {
		flow.ID = uuid.NewString()
	}
	if err := s.store.Save(r.Context(), flow); err != nil {
		http.Error(w, fmt.Sprintf("Save error: %v", err), http.StatusInternalServerError)
		s.logger.Error("flow save failed", "flow_id", flow.ID, "err", err)
		return
	}
	writeJSON(w, http.StatusCreated, flow)
}

func (s *Server) getFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flow, err := s.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			http.Error(w, "Flow not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("flow load failed", "flow_id", id, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (s *Server) putFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var flow domain.Flow
	if err := json.NewDecoder(r.Body).Decode(&flow); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("put flow: invalid request body", "flow_id", id, "err", err)
		return
	}
	// The path is authoritative for the ID.
	flow.ID = id
	if err := s.store.Save(r.Context(), flow); err != nil {
		http.Error(w, fmt.Sprintf("Save error: %v", err), http.StatusInternalServerError)
		s.logger.Error("flow save failed", "flow_id", id, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (s *Server) deleteFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.logger.Error("flow delete failed", "flow_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validateFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flow, err := s.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			http.Error(w, "Flow not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("flow load failed", "flow_id", id, "err", err)
		return
	}

	valid := validator.Validate(flow)
	if s.metrics != nil {
		s.metrics.ObserveValidation(valid)
	}

	resp := map[string]any{"valid": valid}
	if err := validator.Check(flow); err != nil {
		resp["errors"] = validationMessages(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) runFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flow, err := s.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			http.Error(w, "Flow not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("flow load failed", "flow_id", id, "err", err)
		return
	}

	if !validator.Validate(flow) {
		resp := map[string]any{"status": "refused", "valid": false}
		if err := validator.Check(flow); err != nil {
			resp["errors"] = validationMessages(err)
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	d := s.dispatcherFor(id)
	started, err := s.locks.TryWith(r.Context(), id, func(ctx context.Context) error {
		d.Run(ctx, flow)
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Run error: %v", err), http.StatusInternalServerError)
		s.logger.Error("run coordination failed", "flow_id", id, "err", err)
		return
	}
	if !started {
		writeJSON(w, http.StatusConflict, map[string]any{"status": "refused", "reason": "run already in progress"})
		return
	}

	results := d.Results()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  runStatus(results),
		"results": results,
	})
}

func (s *Server) getResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	d, ok := s.dispatchers[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"results": []domain.StepResult{}})
		return
	}

	results := d.Results()
	if results == nil {
		results = []domain.StepResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flow, err := s.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			http.Error(w, "Flow not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("flow load failed", "flow_id", id, "err", err)
		return
	}

	var overlay *mermaid.Overlay
	s.mu.Lock()
	d, ok := s.dispatchers[id]
	s.mu.Unlock()
	if ok {
		overlay = resultOverlay(d.Results())
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, mermaid.GenerateMermaid(flow, overlay))
}

// selectorRequest mirrors a DOM element reference. Class accepts a plain
// string or an SVG-style {"baseVal": ...} object.
type selectorRequest struct {
	Kind        string `json:"kind"`
	Tag         string `json:"tag"`
	ID          string `json:"id"`
	Class       any    `json:"class"`
	NthOfParent int    `json:"nth_of_parent"`
}

func (s *Server) generateSelector(w http.ResponseWriter, r *http.Request) {
	var body selectorRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("generate selector: invalid request body", "err", err)
		return
	}

	kind := domain.ElementDescriptor
	if body.Kind == string(domain.ElementLive) {
		kind = domain.ElementLive
	}
	ref := domain.ElementRef{
		Kind:        kind,
		Tag:         body.Tag,
		ID:          body.ID,
		Class:       selector.ClassString(body.Class),
		NthOfParent: body.NthOfParent,
	}
	writeJSON(w, http.StatusOK, map[string]string{"selector": selector.Generate(ref)})
}

// -- Helpers --

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func runStatus(results []domain.StepResult) string {
	for _, r := range results {
		if r.Status == domain.StepFailed {
			return "failed"
		}
	}
	return "completed"
}

func validationMessages(err error) []string {
	var msgs []string
	if errors.Is(err, validator.ErrNoStartNode) {
		msgs = append(msgs, validator.ErrNoStartNode.Error())
	}
	var disc *validator.DisconnectedError
	if errors.As(err, &disc) {
		msgs = append(msgs, disc.Error())
	}
	return msgs
}

func resultOverlay(results []domain.StepResult) *mermaid.Overlay {
	if len(results) == 0 {
		return nil
	}
	overlay := &mermaid.Overlay{}
	for _, r := range results {
		switch r.Status {
		case domain.StepPassed:
			overlay.PassedNodes = append(overlay.PassedNodes, r.NodeID)
		case domain.StepFailed:
			overlay.FailedNode = r.NodeID
		}
	}
	return overlay
}
