package rlm

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestDecompositionCreation(t *testing.T) {
	dec := NewDecomposition("Build feature", 3)
	if dec.MaxDepth != 3 || dec.Depth != 0 {
		t.Fatalf("MaxDepth/Depth = %d/%d", dec.MaxDepth, dec.Depth)
	}
	if len(dec.Subtasks) != 0 {
		t.Fatal("expected empty subtasks")
	}
	if !dec.CanRecurse() {
		t.Fatal("expected CanRecurse at depth 0")
	}
}

func TestDecompositionAddSubtasks(t *testing.T) {
	dec := NewDecomposition("task", 3)
	dec.AddSubtask("subtask 1")
	dec.AddSubtask("subtask 2")
	if len(dec.Subtasks) != 2 {
		t.Fatalf("len(Subtasks) = %d, want 2", len(dec.Subtasks))
	}
	if len(dec.PendingSubtasks()) != 2 {
		t.Fatal("expected 2 pending")
	}
}

func TestDecompositionRecordResult(t *testing.T) {
	dec := NewDecomposition("task", 3)
	id := dec.AddSubtask("sub")
	if !dec.RecordResult(id, "done") {
		t.Fatal("expected RecordResult to succeed")
	}
	if dec.Subtasks[id].Status != SubTaskComplete {
		t.Fatalf("status = %s", dec.Subtasks[id].Status)
	}
	if dec.RecordResult(uuid.New(), "nope") {
		t.Fatal("expected RecordResult on unknown id to fail")
	}
}

func TestDecompositionCompletion(t *testing.T) {
	dec := NewDecomposition("task", 3)
	id1 := dec.AddSubtask("a")
	id2 := dec.AddSubtask("b")

	if dec.IsComplete() {
		t.Fatal("should not be complete yet")
	}
	dec.RecordResult(id1, "done a")
	if dec.IsComplete() {
		t.Fatal("should not be complete with one pending")
	}
	dec.RecordResult(id2, "done b")
	if !dec.IsComplete() {
		t.Fatal("should be complete")
	}
}

func TestDecompositionFailures(t *testing.T) {
	dec := NewDecomposition("task", 3)
	id := dec.AddSubtask("will fail")
	dec.MarkFailed(id)
	if !dec.HasFailures() {
		t.Fatal("expected HasFailures")
	}
}

func TestDecompositionSynthesizeConcat(t *testing.T) {
	dec := NewDecomposition("task", 3)
	id1 := dec.AddSubtask("a")
	id2 := dec.AddSubtask("b")
	dec.RecordResult(id1, "result A")
	dec.RecordResult(id2, "result B")

	synth := dec.Synthesize()
	if !strings.Contains(synth, "result A") || !strings.Contains(synth, "result B") {
		t.Fatalf("synth = %q", synth)
	}
}

func TestDecompositionSynthesizeBestOf(t *testing.T) {
	dec := NewDecomposition("task", 3)
	dec.Synthesis = SynthesizeBestOf
	id1 := dec.AddSubtask("a")
	id2 := dec.AddSubtask("b")
	dec.RecordResult(id1, "first")
	dec.RecordResult(id2, "second")

	if got := dec.Synthesize(); got != "second" {
		t.Fatalf("Synthesize = %q, want second", got)
	}
}

func TestDecompositionParallelBatch(t *testing.T) {
	dec := NewDecomposition("task", 3)
	dec.AddSubtask("par 1")
	id2 := dec.AddSubtask("seq")
	dec.Subtasks[id2].Parallelizable = false

	if len(dec.ParallelBatch()) != 1 {
		t.Fatalf("ParallelBatch len = %d, want 1", len(dec.ParallelBatch()))
	}
}

func TestDecompositionChild(t *testing.T) {
	parent := NewDecomposition("parent", 3)
	child := parent.Child("child task")
	if child.Depth != 1 || child.MaxDepth != 3 {
		t.Fatalf("child depth/maxdepth = %d/%d", child.Depth, child.MaxDepth)
	}
	if !child.CanRecurse() {
		t.Fatal("expected child CanRecurse")
	}

	deep := NewDecomposition("deep", 3)
	deep.Depth = 3
	if deep.CanRecurse() {
		t.Fatal("expected depth==maxDepth to not recurse")
	}
}
