package observability

import (
	"context"
	"sync"
	"time"

	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters and timings for flow execution.
type Metrics struct {
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	validationsTotal *prometheus.CounterVec

	mu     sync.Mutex
	starts map[string]time.Time
}

// NewMetrics creates and registers the flow metrics on the given registerer.
// Pass prometheus.DefaultRegisterer for the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_runs_total",
				Help: "Total number of flow run requests by outcome",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "canopy_run_duration_seconds",
				Help: "Duration of flow runs",
			},
		),
		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_validations_total",
				Help: "Total number of flow validations by result",
			},
			[]string{"result"},
		),
		starts: make(map[string]time.Time),
	}
	reg.MustRegister(m.runsTotal, m.runDuration, m.validationsTotal)
	return m
}

// Hooks returns dispatcher hooks that record run outcomes and durations.
func (m *Metrics) Hooks() domain.RunHooks {
	return domain.RunHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			m.mu.Lock()
			m.starts[e.FlowID] = e.Timestamp
			m.mu.Unlock()
		},
		OnRunRefused: func(_ context.Context, _ *domain.RunEvent) {
			m.runsTotal.WithLabelValues("refused").Inc()
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			status := "completed"
			if e.Failed {
				status = "failed"
			}
			m.runsTotal.WithLabelValues(status).Inc()

			m.mu.Lock()
			start, ok := m.starts[e.FlowID]
			delete(m.starts, e.FlowID)
			m.mu.Unlock()
			if ok {
				m.runDuration.Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
	}
}

// ObserveValidation records a validation outcome.
func (m *Metrics) ObserveValidation(valid bool) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.validationsTotal.WithLabelValues(result).Inc()
}
