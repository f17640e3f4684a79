package costs

import "autotundra/internal/domain"

// DefaultPricingTable seeds the tracker's per-model rate card. Figures are
// approximate list prices; callers needing exact numbers call SetPricing.
func DefaultPricingTable() []domain.ModelPricing {
	return []domain.ModelPricing{
		{Model: "claude-opus-4-20250514", Provider: "anthropic", InputPer1M: 15.0, OutputPer1M: 75.0, QualityScore: 0.98, ContextWindow: 200_000},
		{Model: "claude-sonnet-4-20250514", Provider: "anthropic", InputPer1M: 3.0, OutputPer1M: 15.0, QualityScore: 0.92, ContextWindow: 200_000},
		{Model: "claude-haiku-4-20250514", Provider: "anthropic", InputPer1M: 0.80, OutputPer1M: 4.0, QualityScore: 0.82, ContextWindow: 200_000},
		{Model: "gpt-4o", Provider: "openai", InputPer1M: 2.50, OutputPer1M: 10.0, QualityScore: 0.90, ContextWindow: 128_000},
		{Model: "gpt-4o-mini", Provider: "openai", InputPer1M: 0.15, OutputPer1M: 0.60, QualityScore: 0.78, ContextWindow: 128_000},
		{Model: "o3-mini", Provider: "openai", InputPer1M: 1.10, OutputPer1M: 4.40, QualityScore: 0.88, ContextWindow: 200_000},
	}
}

// QcaScore is a composite quality/cost/accuracy score used for model
// routing decisions. Higher is better on every axis, including cost (so a
// cheaper model scores higher, not lower).
type QcaScore struct {
	Quality   float64 `json:"quality"`
	Cost      float64 `json:"cost"`
	Accuracy  float64 `json:"accuracy"`
	Composite float64 `json:"composite"`
}

// ComputeQcaScore weights quality/cost/accuracy 0.3/0.4/0.3, matching the
// orchestrator's default routing policy.
func ComputeQcaScore(quality, cost, accuracy float64) QcaScore {
	return ComputeQcaScoreWeighted(quality, cost, accuracy, 0.3, 0.4, 0.3)
}

// ComputeQcaScoreWeighted computes the composite with explicit weights.
func ComputeQcaScoreWeighted(quality, cost, accuracy, wQuality, wCost, wAccuracy float64) QcaScore {
	total := wQuality + wCost + wAccuracy
	var composite float64
	if total > 0 {
		composite = (quality*wQuality + cost*wCost + accuracy*wAccuracy) / total
	}
	return QcaScore{Quality: quality, Cost: cost, Accuracy: accuracy, Composite: composite}
}
