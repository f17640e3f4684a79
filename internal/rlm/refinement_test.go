package rlm

import "testing"

func TestRefinementCreation(t *testing.T) {
	pr := NewProgressiveRefinement("fix bug", 5)
	if pr.MaxRevisions != 5 || pr.Finalized {
		t.Fatalf("MaxRevisions/Finalized = %d/%v", pr.MaxRevisions, pr.Finalized)
	}
	if !pr.CanRevise() {
		t.Fatal("expected CanRevise")
	}
	if pr.RevisionCount() != 0 {
		t.Fatal("expected 0 revisions")
	}
}

func TestRefinementRevisions(t *testing.T) {
	pr := NewProgressiveRefinement("task", 3)
	typo := "fixed typo"
	if !pr.Revise("draft 1", nil, 0.5) {
		t.Fatal("expected Revise to succeed")
	}
	if !pr.Revise("draft 2", &typo, 0.8) {
		t.Fatal("expected Revise to succeed")
	}
	if pr.RevisionCount() != 2 {
		t.Fatalf("RevisionCount = %d, want 2", pr.RevisionCount())
	}
	if pr.Latest().Version != 2 {
		t.Fatalf("Latest().Version = %d, want 2", pr.Latest().Version)
	}
	if pr.Latest().Confidence <= 0.7 {
		t.Fatalf("confidence = %v, want > 0.7", pr.Latest().Confidence)
	}
}

func TestRefinementMaxRevisions(t *testing.T) {
	pr := NewProgressiveRefinement("task", 2)
	if !pr.Revise("v1", nil, 0.5) {
		t.Fatal("expected v1 to succeed")
	}
	if !pr.Revise("v2", nil, 0.9) {
		t.Fatal("expected v2 to succeed")
	}
	if pr.Revise("v3", nil, 1.0) {
		t.Fatal("expected v3 to fail (over limit)")
	}
	if pr.RevisionCount() != 2 {
		t.Fatalf("RevisionCount = %d, want 2", pr.RevisionCount())
	}
}

func TestRefinementFinalize(t *testing.T) {
	pr := NewProgressiveRefinement("task", 10)
	pr.Revise("draft", nil, 0.9)
	pr.Finalize()
	if !pr.Finalized {
		t.Fatal("expected Finalized")
	}
	if pr.CanRevise() {
		t.Fatal("expected CanRevise false after finalize")
	}
	if pr.Revise("more", nil, 1.0) {
		t.Fatal("expected Revise to fail after finalize")
	}
}

func TestRefinementConfidence(t *testing.T) {
	pr := NewProgressiveRefinement("task", 5)
	if pr.IsConfident(0.8) {
		t.Fatal("expected not confident with no revisions")
	}
	pr.Revise("low", nil, 0.3)
	if pr.IsConfident(0.8) {
		t.Fatal("expected not confident at 0.3")
	}
	pr.Revise("high", nil, 0.95)
	if !pr.IsConfident(0.8) {
		t.Fatal("expected confident at 0.95")
	}
}
