package rlm

import (
	"testing"

	sharederrors "autotundra/internal/shared/errors"
)

func TestStuckDetectorCreation(t *testing.T) {
	det := NewStuckDetector(60, 10000)
	if det.Check() != nil {
		t.Fatal("expected fresh detector to report not stuck")
	}
}

func TestStuckDetectorOutputLoop(t *testing.T) {
	det := NewStuckDetector(300, 100000)
	det.RecordOutput("same output", 10)
	det.RecordOutput("same output", 10)
	det.RecordOutput("same output", 10)
	reason := det.Check()
	if reason == nil || *reason != sharederrors.StuckOutputLoop {
		t.Fatalf("Check() = %v, want OutputLoop", reason)
	}
}

func TestStuckDetectorNoLoopWithVariedOutput(t *testing.T) {
	det := NewStuckDetector(300, 100000)
	det.RecordOutput("output 1", 10)
	det.RecordOutput("output 2", 10)
	det.RecordOutput("output 3", 10)
	if det.Check() != nil {
		t.Fatal("expected not stuck with varied output")
	}
}

func TestStuckDetectorBudgetExhausted(t *testing.T) {
	det := NewStuckDetector(300, 100)
	det.RecordOutput("big output", 50)
	if det.Check() != nil {
		t.Fatal("expected not stuck yet")
	}
	det.RecordOutput("more output", 60)
	reason := det.Check()
	if reason == nil || *reason != sharederrors.StuckBudgetExhausted {
		t.Fatalf("Check() = %v, want BudgetExhausted", reason)
	}
}

func TestStuckDetectorTokensRemaining(t *testing.T) {
	det := NewStuckDetector(300, 1000)
	det.RecordOutput("x", 400)
	if det.TokensRemaining() != 600 {
		t.Fatalf("TokensRemaining() = %d, want 600", det.TokensRemaining())
	}
}

func TestStuckDetectorReset(t *testing.T) {
	det := NewStuckDetector(300, 100)
	det.RecordOutput("x", 80)
	det.Reset()
	if det.TokensRemaining() != 100 {
		t.Fatalf("TokensRemaining() = %d, want 100", det.TokensRemaining())
	}
	if det.Check() != nil {
		t.Fatal("expected not stuck after reset")
	}
}

func TestStuckDetectorEmptyOutputsDontTriggerLoop(t *testing.T) {
	det := NewStuckDetector(300, 100000)
	det.RecordOutput("", 0)
	det.RecordOutput("", 0)
	det.RecordOutput("", 0)
	if det.Check() != nil {
		t.Fatal("expected empty repeats to not trigger loop")
	}
}
