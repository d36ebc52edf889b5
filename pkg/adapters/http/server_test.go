package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	canopyhttp "github.com/canopyhq/canopy/pkg/adapters/http"
	"github.com/canopyhq/canopy/pkg/adapters/memory"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFlow(id string) domain.Flow {
	return domain.Flow{
		ID:   id,
		Name: "Checkout",
		Nodes: []domain.Node{
			{ID: "n1", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionStart}},
			{ID: "n2", Kind: domain.NodeKindAction, Data: domain.NodeData{ActionType: domain.ActionClick, Selector: "#buy"}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "n1", Target: "n2"}},
	}
}

func passingRunner() runner.Func {
	return func(_ context.Context, flow domain.Flow) ([]domain.StepResult, error) {
		results := make([]domain.StepResult, 0, len(flow.Nodes))
		for _, n := range flow.Nodes {
			results = append(results, domain.StepResult{NodeID: n.ID, Status: domain.StepPassed})
		}
		return results, nil
	}
}

func newTestServer(t *testing.T, r runner.Func) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	srv := canopyhttp.NewServer(store, r)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestFlowCRUD(t *testing.T) {
	ts, _ := newTestServer(t, passingRunner())

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/flows", validFlow("checkout"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/flows/checkout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got domain.Flow
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Checkout", got.Name)
	assert.Len(t, got.Nodes, 2)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/flows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Flows []string `json:"flows"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, []string{"checkout"}, list.Flows)

	updated := validFlow("ignored-body-id")
	updated.Name = "Checkout v2"
	resp, raw = doJSON(t, http.MethodPut, ts.URL+"/flows/checkout", updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "checkout", got.ID, "path ID wins over body ID")
	assert.Equal(t, "Checkout v2", got.Name)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/flows/checkout", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/flows/checkout", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateFlow_AssignsID(t *testing.T) {
	ts, _ := newTestServer(t, passingRunner())

	flow := validFlow("")
	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/flows", flow)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got domain.Flow
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.NotEmpty(t, got.ID)
}

func TestValidateFlow(t *testing.T) {
	ts, store := newTestServer(t, passingRunner())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, validFlow("good")))

	bad := validFlow("bad")
	bad.Edges = nil
	require.NoError(t, store.Save(ctx, bad))

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/flows/good/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verdict struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(raw, &verdict))
	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.Errors)

	resp, raw = doJSON(t, http.MethodPost, ts.URL+"/flows/bad/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &verdict))
	assert.False(t, verdict.Valid)
	assert.NotEmpty(t, verdict.Errors)
}

func TestRunFlow_Completed(t *testing.T) {
	ts, store := newTestServer(t, passingRunner())
	require.NoError(t, store.Save(context.Background(), validFlow("checkout")))

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/flows/checkout/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var body struct {
		Status  string              `json:"status"`
		Results []domain.StepResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "completed", body.Status)
	assert.Len(t, body.Results, 2)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/flows/checkout/results", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stored struct {
		Results []domain.StepResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Len(t, stored.Results, 2)
}

func TestRunFlow_InvalidRefusedWith422(t *testing.T) {
	ts, store := newTestServer(t, passingRunner())

	bad := validFlow("bad")
	bad.Edges = nil
	require.NoError(t, store.Save(context.Background(), bad))

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/flows/bad/run", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "refused", body.Status)
}

func TestRunFlow_ConflictWhileRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := runner.Func(func(_ context.Context, flow domain.Flow) ([]domain.StepResult, error) {
		close(started)
		<-release
		return nil, nil
	})

	ts, store := newTestServer(t, slow)
	require.NoError(t, store.Save(context.Background(), validFlow("checkout")))

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/flows/checkout/run", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never started")
	}

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/flows/checkout/run", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(raw))

	close(release)
	<-firstDone
}

func TestGetResults_WhileRunInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := runner.Func(func(_ context.Context, flow domain.Flow) ([]domain.StepResult, error) {
		close(started)
		<-release
		return []domain.StepResult{{NodeID: "n1", Status: domain.StepPassed}}, nil
	})

	ts, store := newTestServer(t, slow)
	require.NoError(t, store.Save(context.Background(), validFlow("checkout")))

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/flows/checkout/run", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("run never started")
	}

	// Concurrent observation of an in-flight run must be safe. The race
	// detector covers the dispatcher's state and result accesses.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				resp, _ := doJSON(t, http.MethodGet, ts.URL+"/flows/checkout/results", nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				resp, _ = doJSON(t, http.MethodGet, ts.URL+"/flows/checkout/graph", nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	close(release)
	<-runDone

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/flows/checkout/results", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Results []domain.StepResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Len(t, body.Results, 1)
}

func TestRunFlow_NotFound(t *testing.T) {
	ts, _ := newTestServer(t, passingRunner())

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/flows/ghost/run", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetGraph_Mermaid(t *testing.T) {
	ts, store := newTestServer(t, passingRunner())
	require.NoError(t, store.Save(context.Background(), validFlow("checkout")))

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/flows/checkout/graph", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "graph TD")
	assert.Contains(t, string(raw), "n1 --> n2")
}

func TestGenerateSelector(t *testing.T) {
	ts, _ := newTestServer(t, passingRunner())

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "id short circuit",
			body: map[string]any{"kind": "descriptor", "tag": "BUTTON", "id": "submit", "class": "primary"},
			want: "#submit",
		},
		{
			name: "tag and classes",
			body: map[string]any{"kind": "descriptor", "tag": "LI", "class": "item active"},
			want: "li.item.active",
		},
		{
			name: "svg class object",
			body: map[string]any{"kind": "descriptor", "tag": "SVG", "class": map[string]any{"baseVal": "icon"}},
			want: "svg.icon",
		},
		{
			name: "live ref with position",
			body: map[string]any{"kind": "live", "tag": "LI", "nth_of_parent": 3},
			want: "li:nth-child(3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := doJSON(t, http.MethodPost, ts.URL+"/selector", tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var body struct {
				Selector string `json:"selector"`
			}
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.want, body.Selector)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	store := memory.NewStore()
	srv := canopyhttp.NewServer(store, passingRunner(), canopyhttp.WithMetrics(prometheus.NewRegistry()))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	require.NoError(t, store.Save(context.Background(), validFlow("checkout")))
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/flows/checkout/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "canopy_runs_total")
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, passingRunner())

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/flows", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
