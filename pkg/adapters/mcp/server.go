// Package mcp exposes the flow library and the execution dispatcher as an
// MCP server, so agent hosts can build and run flows as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/canopyhq/canopy"
	"github.com/canopyhq/canopy/internal/logging"
	"github.com/canopyhq/canopy/pkg/dispatcher"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/ports"
	"github.com/canopyhq/canopy/pkg/runlock"
	"github.com/canopyhq/canopy/pkg/selector"
	"github.com/canopyhq/canopy/pkg/validator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RunResponse is the structured result of the flow_run tool.
type RunResponse struct {
	FlowID  string              `json:"flow_id" jsonschema_description:"ID of the executed flow"`
	Status  string              `json:"status" jsonschema_description:"completed, failed or refused"`
	Results []domain.StepResult `json:"results" jsonschema_description:"Ordered per-step results"`
}

// ValidateResponse is the structured result of the flow_validate tool.
type ValidateResponse struct {
	FlowID string   `json:"flow_id" jsonschema_description:"ID of the validated flow"`
	Valid  bool     `json:"valid" jsonschema_description:"Whether the flow passed validation"`
	Errors []string `json:"errors,omitempty" jsonschema_description:"Validation failures, empty when valid"`
}

// Server wraps the flow library and exposes it as an MCP Server.
type Server struct {
	store     ports.FlowStore
	runner    ports.Runner
	locks     *runlock.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer

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

// WithRunLocks sets the per-flow run coordination manager.
func WithRunLocks(locks *runlock.Manager) Option {
	return func(s *Server) {
		s.locks = locks
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(store ports.FlowStore, runner ports.Runner, opts ...Option) *Server {
	s := &Server{
		store:       store,
		runner:      runner,
		logger:      logging.NewNop(),
		mcpServer:   server.NewMCPServer("canopy-mcp", strings.TrimSpace(canopy.Version)),
		dispatchers: make(map[string]*dispatcher.Dispatcher),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locks == nil {
		s.locks = runlock.NewManager(runlock.WithLogger(s.logger))
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) dispatcherFor(flowID string) *dispatcher.Dispatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dispatchers[flowID]; ok {
		return d
	}
	d := dispatcher.New(s.runner, dispatcher.WithLogger(s.logger))
	s.dispatchers[flowID] = d
	return d
}

func (s *Server) registerTools() {
	// TOOL: flow_list
	s.mcpServer.AddTool(mcp.NewTool("flow_list",
		mcp.WithDescription("List the IDs of all stored flows."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.store.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: flow_get
	s.mcpServer.AddTool(mcp.NewTool("flow_get",
		mcp.WithDescription("Get a stored flow definition by ID."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("ID of the flow")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		flowID, _ := request.GetArguments()["flow_id"].(string)
		flow, err := s.store.Load(ctx, flowID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(flow)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: flow_save
	s.mcpServer.AddTool(mcp.NewTool("flow_save",
		mcp.WithDescription("Save a flow definition. The flow is a JSON object with id, name, nodes and edges."),
		mcp.WithString("flow", mcp.Required(), mcp.Description("JSON encoded flow definition")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, _ := request.GetArguments()["flow"].(string)
		var flow domain.Flow
		if err := json.Unmarshal([]byte(raw), &flow); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid flow JSON: %v", err)), nil
		}
		if flow.ID == "" {
			return mcp.NewToolResultError("flow is missing an id"), nil
		}
		if err := s.store.Save(ctx, flow); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("saved flow %q", flow.ID)), nil
	})

	// TOOL: flow_validate
	validateTool := mcp.NewTool("flow_validate",
		mcp.WithDescription("Validate a stored flow: a start action node must exist and every node must be connected."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("ID of the flow")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: flow_run
	runTool := mcp.NewTool("flow_run",
		mcp.WithDescription("Execute a stored flow with the configured runner and return per-step results."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("ID of the flow")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRun))

	// TOOL: selector_generate
	s.mcpServer.AddTool(mcp.NewTool("selector_generate",
		mcp.WithDescription("Generate a CSS selector for a DOM element reference."),
		mcp.WithString("tag", mcp.Description("Element tag name")),
		mcp.WithString("id", mcp.Description("Element id attribute")),
		mcp.WithString("class", mcp.Description("Element class attribute")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		tag, _ := args["tag"].(string)
		id, _ := args["id"].(string)
		class, _ := args["class"].(string)

		ref := domain.ElementRef{
			Kind:  domain.ElementDescriptor,
			Tag:   tag,
			ID:    id,
			Class: selector.ClassString(class),
		}
		return mcp.NewToolResultText(selector.Generate(ref)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	flowID, _ := args["flow_id"].(string)
	flow, err := s.store.Load(ctx, flowID)
	if err != nil {
		return ValidateResponse{}, fmt.Errorf("load failed: %w", err)
	}

	resp := ValidateResponse{
		FlowID: flowID,
		Valid:  validator.Validate(flow),
	}
	if err := validator.Check(flow); err != nil {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return resp, nil
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	flowID, _ := args["flow_id"].(string)
	flow, err := s.store.Load(ctx, flowID)
	if err != nil {
		return RunResponse{}, fmt.Errorf("load failed: %w", err)
	}

	if !validator.Validate(flow) {
		return RunResponse{FlowID: flowID, Status: "refused", Results: []domain.StepResult{}}, nil
	}

	d := s.dispatcherFor(flowID)
	started, err := s.locks.TryWith(ctx, flowID, func(ctx context.Context) error {
		d.Run(ctx, flow)
		return nil
	})
	if err != nil {
		return RunResponse{}, fmt.Errorf("run coordination failed: %w", err)
	}
	if !started {
		return RunResponse{FlowID: flowID, Status: "refused", Results: []domain.StepResult{}}, nil
	}

	results := d.Results()
	if results == nil {
		results = []domain.StepResult{}
	}
	status := "completed"
	for _, r := range results {
		if r.Status == domain.StepFailed {
			status = "failed"
			break
		}
	}
	return RunResponse{FlowID: flowID, Status: status, Results: results}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: canopy://flows
	s.mcpServer.AddResource(mcp.NewResource("canopy://flows", "Stored Flow Library",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list flows: %w", err)
		}

		flows := make([]domain.Flow, 0, len(ids))
		for _, id := range ids {
			flow, err := s.store.Load(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to load flow %q: %w", id, err)
			}
			flows = append(flows, flow)
		}
		jsonBytes, _ := json.Marshal(flows)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "canopy://flows",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
