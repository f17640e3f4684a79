package domain

import "time"

// TokenBudget bounds one accounting key's (task id, agent id, or global)
// consumption. Counters only increase; check_budget compares projected
// totals against the ceilings before consume_budget commits them.
type TokenBudget struct {
	MaxTokens       int     `json:"max_tokens"`
	ConsumedTokens  int     `json:"consumed_tokens"`
	MaxCostUSD      float64 `json:"max_cost_usd"`
	ConsumedCostUSD float64 `json:"consumed_cost_usd"`
	MaxRequests     int     `json:"max_requests"`
	RequestCount    int     `json:"request_count"`
}

// TokenUtilization returns consumed/max token ratio, 0 if MaxTokens is 0.
func (b TokenBudget) TokenUtilization() float64 {
	if b.MaxTokens <= 0 {
		return 0
	}
	return float64(b.ConsumedTokens) / float64(b.MaxTokens)
}

// CostUtilization returns consumed/max cost ratio, 0 if MaxCostUSD is 0.
func (b TokenBudget) CostUtilization() float64 {
	if b.MaxCostUSD <= 0 {
		return 0
	}
	return b.ConsumedCostUSD / b.MaxCostUSD
}

// RequestRecord is one LLM call's accounting entry, kept in the cost
// tracker's bounded ring buffer.
type RequestRecord struct {
	Model        string    `json:"model"`
	Provider     string    `json:"provider"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	LatencyMs    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	TaskID       *string   `json:"task_id,omitempty"`
	AgentID      *string   `json:"agent_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ModelPricing is the per-1M-token input/output rate for a model, plus the
// routing metadata (quality, context window) the cost tracker's QCA scoring
// uses to trade accuracy against price.
type ModelPricing struct {
	Model         string  `json:"model"`
	Provider      string  `json:"provider"`
	InputPer1M    float64 `json:"input_cost_per_1m"`
	OutputPer1M   float64 `json:"output_cost_per_1m"`
	QualityScore  float64 `json:"quality_score"`
	ContextWindow int     `json:"context_window"`
}

// CalculateCost returns the USD cost of a request given its token counts.
func (p ModelPricing) CalculateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1_000_000.0*p.InputPer1M +
		float64(outputTokens)/1_000_000.0*p.OutputPer1M
}
