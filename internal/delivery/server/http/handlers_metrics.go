package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autotundra/internal/costs"
	sharederrors "autotundra/internal/shared/errors"
)

// newMetricsRegistry wires the cost tracker's LETS snapshot into a
// dedicated Prometheus registry via GaugeFuncs, so /api/metrics serves a
// real exposition-format scrape rather than a hand-rolled text format.
func newMetricsRegistry(tracker *costs.Tracker, agents *agentRegistry) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	if tracker == nil {
		return reg
	}

	activeAgents := func() int {
		if agents == nil {
			return 0
		}
		return len(agents.list())
	}

	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "autotundra_latency_total_ms",
			Help: "Average total request latency across recorded agent requests.",
		}, func() float64 { return tracker.ComputeLetsMetrics(activeAgents()).LatencyTotalMs }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "autotundra_latency_p95_ms",
			Help: "P95 request latency across recorded agent requests.",
		}, func() float64 { return tracker.ComputeLetsMetrics(activeAgents()).LatencyP95Ms }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "autotundra_efficiency_ratio",
			Help: "Output-to-input token ratio across recorded agent requests.",
		}, func() float64 { return tracker.ComputeLetsMetrics(activeAgents()).EfficiencyRatio }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "autotundra_cost_per_request_usd",
			Help: "Average cost per recorded agent request, in USD.",
		}, func() float64 { return tracker.ComputeLetsMetrics(activeAgents()).EfficiencyCostPerRequest }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "autotundra_throughput_rpm",
			Help: "Requests per minute across recorded agent requests.",
		}, func() float64 { return tracker.ComputeLetsMetrics(activeAgents()).ThroughputRPM }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "autotundra_active_agents",
			Help: "Number of agents currently tracked as active.",
		}, func() float64 { return float64(activeAgents()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "autotundra_total_cost_usd",
			Help: "Cumulative cost across every recorded agent request, in USD.",
		}, func() float64 { return tracker.TotalCost() }),
	)
	return reg
}

// handleMetrics serves the Prometheus exposition format.
func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// handleMetricsJSON serves the same LETS snapshot as plain JSON, for
// clients that don't want to parse the Prometheus text format.
func (s *server) handleMetricsJSON(w http.ResponseWriter, r *http.Request) {
	if s.deps.Costs == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Costs.ComputeLetsMetrics(len(s.agents.list())))
}

// handleStatus reports a coarse liveness/composition summary of every
// component C9 holds a handle to.
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "ok",
	}
	if s.deps.Bus != nil {
		status["event_subscribers"] = s.deps.Bus.SubscriberCount()
	}
	if s.deps.Storage != nil {
		status["tasks"] = len(s.deps.Storage.ListTasks())
		status["beads"] = len(s.deps.Storage.ListBeads())
	}
	status["active_agents"] = len(s.agents.list())
	writeJSON(w, http.StatusOK, status)
}

// handleKPI returns the current LETS metrics snapshot (latency, efficiency,
// throughput, scalability), matching /api/kpi's §4.9 contract.
func (s *server) handleKPI(w http.ResponseWriter, r *http.Request) {
	if s.deps.Costs == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Costs.ComputeLetsMetrics(len(s.agents.list())))
}

// handleDebugMemory reports in-memory component sizes (folds, tasks, beads,
// agents held) for the /api/debug/memory operator endpoint; it does not
// report process memory statistics.
func (s *server) handleDebugMemory(w http.ResponseWriter, r *http.Request) {
	report := map[string]any{}
	if s.deps.Folds != nil {
		report["context_folds_held"] = s.deps.Folds.Len()
	}
	if s.deps.Storage != nil {
		report["tasks_held"] = len(s.deps.Storage.ListTasks())
		report["beads_held"] = len(s.deps.Storage.ListBeads())
	}
	report["agents_tracked"] = len(s.agents.list())
	writeJSON(w, http.StatusOK, report)
}

// handleFoldSemanticSearch answers ?q=<query> with the nearest-neighbor
// fold sections from the optional embedded-vector index, supplementing
// ContextFold.Search's plain substring match. 501 if no embedding provider
// is configured — this is enrichment, not a required capability.
func (s *server) handleFoldSemanticSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Semantic == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "semantic search not configured"})
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, sharederrors.NewValidationError("q is required"))
		return
	}
	n := 5
	hits, err := s.deps.Semantic.Query(r.Context(), query, n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}
