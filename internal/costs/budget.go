package costs

import (
	"fmt"

	"autotundra/internal/domain"
)

// BudgetVerdict is the outcome of a budget check.
type BudgetVerdict int

const (
	BudgetAllowed BudgetVerdict = iota
	BudgetWarning
	BudgetDenied
)

// BudgetCheck is the result of CheckBudget: a verdict plus the detail
// needed to explain it (denial reason, or the utilization that triggered
// a warning).
type BudgetCheck struct {
	Verdict  BudgetVerdict
	Reason   string
	TokenPct float64
	CostPct  float64
}

// IsAllowed reports whether the request may proceed (Allowed or Warning).
func (c BudgetCheck) IsAllowed() bool { return c.Verdict != BudgetDenied }

// warnThreshold is the utilization fraction above which CanAfford downgrades
// an Allowed verdict to a Warning.
const warnThreshold = 0.8

// CanAfford evaluates whether a budget can absorb an additional request of
// the given estimated size, without mutating state.
func CanAfford(b domain.TokenBudget, estimatedTokens int, estimatedCost float64) BudgetCheck {
	if b.MaxRequests > 0 && b.RequestCount >= b.MaxRequests {
		return BudgetCheck{Verdict: BudgetDenied, Reason: "max requests exceeded"}
	}
	if b.MaxTokens > 0 && b.ConsumedTokens+estimatedTokens > b.MaxTokens {
		return BudgetCheck{
			Verdict: BudgetDenied,
			Reason: fmt.Sprintf("would exceed token budget (%d + %d > %d)",
				b.ConsumedTokens, estimatedTokens, b.MaxTokens),
		}
	}
	if b.MaxCostUSD > 0 && b.ConsumedCostUSD+estimatedCost > b.MaxCostUSD {
		return BudgetCheck{
			Verdict: BudgetDenied,
			Reason: fmt.Sprintf("would exceed cost budget ($%.4f + $%.4f > $%.4f)",
				b.ConsumedCostUSD, estimatedCost, b.MaxCostUSD),
		}
	}

	var tokenPct, costPct float64
	if b.MaxTokens > 0 {
		tokenPct = float64(b.ConsumedTokens+estimatedTokens) / float64(b.MaxTokens)
	}
	if b.MaxCostUSD > 0 {
		costPct = (b.ConsumedCostUSD + estimatedCost) / b.MaxCostUSD
	}
	if tokenPct > warnThreshold || costPct > warnThreshold {
		return BudgetCheck{Verdict: BudgetWarning, TokenPct: tokenPct, CostPct: costPct}
	}
	return BudgetCheck{Verdict: BudgetAllowed, TokenPct: tokenPct, CostPct: costPct}
}

// Consume records a completed request's usage against the budget.
func Consume(b *domain.TokenBudget, tokens int, cost float64) {
	b.ConsumedTokens += tokens
	b.ConsumedCostUSD += cost
	b.RequestCount++
}
