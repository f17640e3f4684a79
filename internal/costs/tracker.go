// Package costs implements the Cost Tracker (C3): per-request accounting,
// per-key token/cost budgets, and LETS (latency/efficiency/throughput/
// scalability) metrics over a bounded ring buffer of recent requests.
package costs

import (
	"sort"
	"sync"
	"time"

	"autotundra/internal/domain"
	"autotundra/internal/shared/logging"
)

const (
	defaultMaxRecords   = 10_000
	defaultMaxLatencies = 100_000
)

// Tracker is a thread-safe cost tracker shared across every agent the
// orchestrator spawns. Zero value is not usable — construct with New.
type Tracker struct {
	mu      sync.RWMutex
	pricing map[string]domain.ModelPricing

	records    []domain.RequestRecord
	maxRecords int
	latencies  []int64
	maxLatency int

	budgets map[string]domain.TokenBudget

	log logging.Logger
}

// New constructs a Tracker with the default pricing table and ring
// capacities of 10,000 request records and 100,000 latency samples.
func New(log logging.Logger) *Tracker {
	return NewWithCapacity(defaultMaxRecords, defaultMaxLatencies, log)
}

// NewWithCapacity lets callers override ring capacities (tests use small
// ones to exercise eviction cheaply).
func NewWithCapacity(maxRecords, maxLatencies int, log logging.Logger) *Tracker {
	t := &Tracker{
		pricing:    make(map[string]domain.ModelPricing),
		maxRecords: maxRecords,
		maxLatency: maxLatencies,
		budgets:    make(map[string]domain.TokenBudget),
		log:        logging.OrNop(log),
	}
	for _, p := range DefaultPricingTable() {
		t.pricing[p.Model] = p
	}
	return t
}

// SetPricing adds or overwrites a model's pricing entry.
func (t *Tracker) SetPricing(p domain.ModelPricing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pricing[p.Model] = p
}

// GetPricing returns a model's pricing entry, if known.
func (t *Tracker) GetPricing(model string) (domain.ModelPricing, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.pricing[model]
	return p, ok
}

// CalculateCost prices a request; returns 0 for a model with no pricing
// entry rather than erroring, since routing must still proceed.
func (t *Tracker) CalculateCost(model string, inputTokens, outputTokens int) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.pricing[model]
	if !ok {
		return 0
	}
	return p.CalculateCost(inputTokens, outputTokens)
}

// RecordRequest appends a completed request to the ring buffer, evicting
// the oldest entry once maxRecords is exceeded.
func (t *Tracker) RecordRequest(rec domain.RequestRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.latencies = append(t.latencies, rec.LatencyMs)
	if over := len(t.latencies) - t.maxLatency; over > 0 {
		t.latencies = t.latencies[over:]
	}

	t.records = append(t.records, rec)
	if over := len(t.records) - t.maxRecords; over > 0 {
		t.records = t.records[over:]
	}

	t.log.Debug("cost request recorded", "model", rec.Model, "cost_usd", rec.CostUSD,
		"input_tokens", rec.InputTokens, "output_tokens", rec.OutputTokens)
}

// SetBudget installs or replaces the budget tracked under key (typically a
// task id or agent id).
func (t *Tracker) SetBudget(key string, budget domain.TokenBudget) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.budgets[key] = budget
}

// GetBudget returns the budget tracked under key, if any.
func (t *Tracker) GetBudget(key string) (domain.TokenBudget, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.budgets[key]
	return b, ok
}

// CheckBudget evaluates whether key's budget can absorb a request of the
// given estimated size. A key with no budget installed is always Allowed —
// budgets are opt-in.
func (t *Tracker) CheckBudget(key string, estimatedTokens int, estimatedCost float64) BudgetCheck {
	t.mu.RLock()
	b, ok := t.budgets[key]
	t.mu.RUnlock()
	if !ok {
		return BudgetCheck{Verdict: BudgetAllowed}
	}
	return CanAfford(b, estimatedTokens, estimatedCost)
}

// ConsumeBudget commits tokens/cost against key's budget. No-op if key has
// no budget installed.
func (t *Tracker) ConsumeBudget(key string, tokens int, cost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.budgets[key]
	if !ok {
		return
	}
	Consume(&b, tokens, cost)
	t.budgets[key] = b
	if b.CostUtilization() > warnThreshold {
		t.log.Warn("budget above warning threshold", "key", key, "cost_utilization", b.CostUtilization())
	}
}

// TotalCost sums the cost of every record currently in the ring buffer.
func (t *Tracker) TotalCost() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var sum float64
	for _, r := range t.records {
		sum += r.CostUSD
	}
	return sum
}

// CostByModel returns cost summed per model across the ring buffer.
func (t *Tracker) CostByModel() map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]float64)
	for _, r := range t.records {
		out[r.Model] += r.CostUSD
	}
	return out
}

// RequestCount returns the number of records currently retained.
func (t *Tracker) RequestCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// LetsMetrics is a point-in-time snapshot of latency, efficiency,
// throughput, and scalability across all recorded requests.
type LetsMetrics struct {
	LatencyTTFTMs                float64   `json:"latency_ttft_ms"`
	LatencyTotalMs               float64   `json:"latency_total_ms"`
	LatencyP95Ms                 float64   `json:"latency_p95_ms"`
	EfficiencyRatio              float64   `json:"efficiency_ratio"`
	EfficiencyCacheHitRate       float64   `json:"efficiency_cache_hit_rate"`
	EfficiencyCostPerRequest     float64   `json:"efficiency_cost_per_request"`
	ThroughputTPS                float64   `json:"throughput_tps"`
	ThroughputRPM                float64   `json:"throughput_rpm"`
	ScalabilityActiveAgents      int       `json:"scalability_active_agents"`
	ScalabilityBudgetUtilization float64   `json:"scalability_budget_utilization"`
	Timestamp                    time.Time `json:"timestamp"`
}

// ComputeLetsMetrics aggregates the current ring buffer into a snapshot.
// activeAgents is supplied by the caller (the orchestrator knows live agent
// count; the tracker doesn't).
func (t *Tracker) ComputeLetsMetrics(activeAgents int) LetsMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := float64(len(t.records))
	var totalCost float64
	var totalInput, totalOutput int
	var cacheHits float64
	for _, r := range t.records {
		totalCost += r.CostUSD
		totalInput += r.InputTokens
		totalOutput += r.OutputTokens
		if r.CacheHit {
			cacheHits++
		}
	}

	var avgLatency, p95Latency float64
	if len(t.latencies) > 0 {
		var sum int64
		sorted := make([]int64, len(t.latencies))
		copy(sorted, t.latencies)
		for _, l := range sorted {
			sum += l
		}
		avgLatency = float64(sum) / float64(len(sorted))
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		idx := int(float64(len(sorted)) * 0.95)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		p95Latency = float64(sorted[idx])
	}

	var efficiencyRatio float64
	if totalInput > 0 {
		efficiencyRatio = float64(totalOutput) / float64(totalInput)
	}
	var cacheHitRate, costPerRequest float64
	if n > 0 {
		cacheHitRate = cacheHits / n
		costPerRequest = totalCost / n
	}

	var tps, rpm float64
	if len(t.records) >= 2 {
		first := t.records[0].Timestamp
		last := t.records[len(t.records)-1].Timestamp
		durationSecs := last.Sub(first).Seconds()
		if durationSecs < 1 {
			durationSecs = 1
		}
		tps = float64(totalOutput) / durationSecs
		rpm = n / (durationSecs / 60.0)
	}

	var budgetUtil float64
	if len(t.budgets) > 0 {
		var sum float64
		for _, b := range t.budgets {
			sum += b.CostUtilization()
		}
		budgetUtil = sum / float64(len(t.budgets))
	}

	return LetsMetrics{
		LatencyTTFTMs:                avgLatency * 0.3,
		LatencyTotalMs:               avgLatency,
		LatencyP95Ms:                 p95Latency,
		EfficiencyRatio:              efficiencyRatio,
		EfficiencyCacheHitRate:       cacheHitRate,
		EfficiencyCostPerRequest:     costPerRequest,
		ThroughputTPS:                tps,
		ThroughputRPM:                rpm,
		ScalabilityActiveAgents:      activeAgents,
		ScalabilityBudgetUtilization: budgetUtil,
		Timestamp:                    time.Now(),
	}
}
