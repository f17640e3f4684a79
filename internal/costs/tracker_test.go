package costs

import (
	"testing"
	"time"

	"autotundra/internal/domain"
)

func TestBudgetAllowsWithinLimits(t *testing.T) {
	b := domain.TokenBudget{MaxTokens: 10_000, MaxCostUSD: 1.0, MaxRequests: 100}
	if !CanAfford(b, 1000, 0.05).IsAllowed() {
		t.Fatal("expected allowed")
	}
}

func TestBudgetDeniesOverTokens(t *testing.T) {
	b := domain.TokenBudget{MaxTokens: 1000, MaxCostUSD: 10.0, MaxRequests: 100}
	if CanAfford(b, 1500, 0.01).IsAllowed() {
		t.Fatal("expected denied")
	}
}

func TestBudgetDeniesOverCost(t *testing.T) {
	b := domain.TokenBudget{MaxTokens: 1_000_000, MaxCostUSD: 0.50, MaxRequests: 100}
	if CanAfford(b, 100, 0.60).IsAllowed() {
		t.Fatal("expected denied")
	}
}

func TestBudgetDeniesOverRequests(t *testing.T) {
	b := domain.TokenBudget{MaxTokens: 1_000_000, MaxCostUSD: 100.0, MaxRequests: 2}
	Consume(&b, 100, 0.01)
	Consume(&b, 100, 0.01)
	if CanAfford(b, 100, 0.01).IsAllowed() {
		t.Fatal("expected denied after max requests reached")
	}
}

func TestBudgetWarnsAt80Percent(t *testing.T) {
	b := domain.TokenBudget{MaxTokens: 1000, MaxCostUSD: 1.0, MaxRequests: 100}
	check := CanAfford(b, 850, 0.01)
	if check.Verdict != BudgetWarning {
		t.Fatalf("expected Warning, got %v", check.Verdict)
	}
	if check.TokenPct <= 0.8 {
		t.Fatalf("TokenPct = %v, want > 0.8", check.TokenPct)
	}
}

func TestBudgetConsumeAndUtilization(t *testing.T) {
	b := domain.TokenBudget{MaxTokens: 10_000, MaxCostUSD: 5.0, MaxRequests: 50}
	Consume(&b, 2500, 1.25)
	if d := b.TokenUtilization() - 0.25; d > 0.001 || d < -0.001 {
		t.Fatalf("TokenUtilization = %v, want 0.25", b.TokenUtilization())
	}
	if d := b.CostUtilization() - 0.25; d > 0.001 || d < -0.001 {
		t.Fatalf("CostUtilization = %v, want 0.25", b.CostUtilization())
	}
	if b.RequestCount != 1 {
		t.Fatalf("RequestCount = %d, want 1", b.RequestCount)
	}
}

func TestQcaScoreDefaultWeights(t *testing.T) {
	score := ComputeQcaScore(0.9, 0.8, 0.7)
	want := 0.80
	if d := score.Composite - want; d > 0.001 || d < -0.001 {
		t.Fatalf("composite = %v, want %v", score.Composite, want)
	}
}

func TestQcaScoreCustomWeights(t *testing.T) {
	score := ComputeQcaScoreWeighted(1.0, 0.0, 1.0, 0.5, 0.0, 0.5)
	if d := score.Composite - 1.0; d > 0.001 || d < -0.001 {
		t.Fatalf("composite = %v, want 1.0", score.Composite)
	}
}

func TestQcaScoreZeroWeights(t *testing.T) {
	score := ComputeQcaScoreWeighted(1.0, 1.0, 1.0, 0, 0, 0)
	if score.Composite != 0 {
		t.Fatalf("composite = %v, want 0", score.Composite)
	}
}

func TestTrackerStartsEmpty(t *testing.T) {
	tr := New(nil)
	if tr.TotalCost() != 0 {
		t.Fatal("expected zero total cost")
	}
	if tr.RequestCount() != 0 {
		t.Fatal("expected zero request count")
	}
}

func TestTrackerRecordsRequest(t *testing.T) {
	tr := New(nil)
	tr.RecordRequest(domain.RequestRecord{
		Model: "claude-sonnet-4-20250514", Provider: "anthropic",
		InputTokens: 1000, OutputTokens: 500, CostUSD: 0.0105,
		Timestamp: time.Now(),
	})
	if tr.RequestCount() != 1 {
		t.Fatalf("RequestCount = %d, want 1", tr.RequestCount())
	}
	if tr.TotalCost() != 0.0105 {
		t.Fatalf("TotalCost = %v, want 0.0105", tr.TotalCost())
	}
}

func TestTrackerRingBufferEvictsOldest(t *testing.T) {
	tr := NewWithCapacity(2, 2, nil)
	for i := 0; i < 5; i++ {
		tr.RecordRequest(domain.RequestRecord{Model: "m", CostUSD: 1, Timestamp: time.Now()})
	}
	if tr.RequestCount() != 2 {
		t.Fatalf("RequestCount = %d, want 2 (ring capacity)", tr.RequestCount())
	}
}

func TestTrackerCheckBudgetAllowedWhenUnset(t *testing.T) {
	tr := New(nil)
	check := tr.CheckBudget("task-1", 100, 0.01)
	if !check.IsAllowed() {
		t.Fatal("expected allowed when no budget installed")
	}
}

func TestTrackerCheckAndConsumeBudget(t *testing.T) {
	tr := New(nil)
	tr.SetBudget("task-1", domain.TokenBudget{MaxTokens: 1000, MaxCostUSD: 1.0, MaxRequests: 10})
	if !tr.CheckBudget("task-1", 100, 0.01).IsAllowed() {
		t.Fatal("expected allowed")
	}
	tr.ConsumeBudget("task-1", 100, 0.01)
	b, ok := tr.GetBudget("task-1")
	if !ok || b.ConsumedTokens != 100 {
		t.Fatalf("budget not updated: %+v", b)
	}
}

func TestComputeLetsMetricsEmpty(t *testing.T) {
	tr := New(nil)
	m := tr.ComputeLetsMetrics(3)
	if m.ScalabilityActiveAgents != 3 {
		t.Fatalf("ScalabilityActiveAgents = %d, want 3", m.ScalabilityActiveAgents)
	}
	if m.ThroughputTPS != 0 || m.LatencyTotalMs != 0 {
		t.Fatal("expected zero-valued metrics on empty tracker")
	}
}

func TestComputeLetsMetricsEfficiencyRatio(t *testing.T) {
	tr := New(nil)
	tr.RecordRequest(domain.RequestRecord{Model: "m", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Timestamp: time.Now()})
	m := tr.ComputeLetsMetrics(1)
	if d := m.EfficiencyRatio - 0.5; d > 0.001 || d < -0.001 {
		t.Fatalf("EfficiencyRatio = %v, want 0.5", m.EfficiencyRatio)
	}
}
