package domain

import "testing"

func TestTaskPhaseProgressPercent(t *testing.T) {
	cases := map[TaskPhase]int{
		PhaseDiscovery: 5,
		PhaseCoding:    60,
		PhaseMerging:   90,
		PhaseComplete:  100,
	}
	for phase, want := range cases {
		if got := phase.ProgressPercent(); got != want {
			t.Errorf("%s.ProgressPercent() = %d, want %d", phase, got, want)
		}
	}
}

func TestTaskSetPhaseSyncsProgress(t *testing.T) {
	task := &Task{Phase: PhaseDiscovery}
	task.SetPhase(PhaseQA)
	if task.Phase != PhaseQA {
		t.Fatalf("Phase = %s, want QA", task.Phase)
	}
	if task.ProgressPercent != 75 {
		t.Fatalf("ProgressPercent = %d, want 75", task.ProgressPercent)
	}
}

func TestTaskIsTerminal(t *testing.T) {
	for phase, want := range map[TaskPhase]bool{
		PhaseComplete: true,
		PhaseError:    true,
		PhaseStopped:  true,
		PhaseCoding:   false,
	} {
		task := &Task{Phase: phase}
		if got := task.IsTerminal(); got != want {
			t.Errorf("Task{Phase: %s}.IsTerminal() = %v, want %v", phase, got, want)
		}
	}
}
