package rlm

import (
	"strings"
	"testing"
)

func TestContextFoldCreation(t *testing.T) {
	fold := NewContextFold("test", "line 1\nline 2\nline 3")
	if fold.Label != "test" {
		t.Fatalf("Label = %q", fold.Label)
	}
	if fold.LineCount() != 3 {
		t.Fatalf("LineCount = %d, want 3", fold.LineCount())
	}
	if fold.TotalTokens <= 0 {
		t.Fatal("expected positive TotalTokens")
	}
}

func TestContextFoldSlice(t *testing.T) {
	fold := NewContextFold("test", "a\nb\nc\nd\ne")
	if got := fold.Slice(1, 3); got != "b\nc" {
		t.Fatalf("Slice(1,3) = %q", got)
	}
	if got := fold.Slice(0, 1); got != "a" {
		t.Fatalf("Slice(0,1) = %q", got)
	}
}

func TestContextFoldSliceClamped(t *testing.T) {
	fold := NewContextFold("test", "a\nb")
	if got := fold.Slice(0, 100); got != "a\nb" {
		t.Fatalf("Slice(0,100) = %q", got)
	}
}

func TestContextFoldSearch(t *testing.T) {
	fold := NewContextFold("test", "hello world\nfoo bar\nhello again")
	hits := fold.Search("hello")
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].LineNum != 0 || hits[1].LineNum != 2 {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestContextFoldSearchCaseInsensitive(t *testing.T) {
	fold := NewContextFold("test", "Hello World\nHELLO")
	if len(fold.Search("hello")) != 2 {
		t.Fatal("expected 2 case-insensitive hits")
	}
}

func TestContextFoldSections(t *testing.T) {
	fold := NewContextFold("test", "a\nb\nc\nd")
	fold.RegisterSection("middle", 1, 3)
	section, ok := fold.GetSection("middle")
	if !ok || section != "b\nc" {
		t.Fatalf("GetSection(middle) = %q, %v", section, ok)
	}
	if _, ok := fold.GetSection("nonexistent"); ok {
		t.Fatal("expected missing section")
	}
}

func TestContextFoldAutoDetectSections(t *testing.T) {
	content := "# Intro\nIntro text\n## Methods\nMethod text\n### Details\nDetail text"
	fold := NewContextFold("test", content)
	fold.AutoDetectSections()
	for _, name := range []string{"intro", "methods", "details"} {
		if _, ok := fold.Sections[name]; !ok {
			t.Fatalf("expected section %q", name)
		}
	}
}

func TestContextFoldBestSummary(t *testing.T) {
	fold := NewContextFold("test", strings.Repeat("x", 4000))
	fold.AddSummary(0.1, "Brief summary")
	fold.AddSummary(0.5, "Detailed summary with more info here")

	best := fold.BestSummary(5)
	if best == nil || best.Ratio >= 0.2 {
		t.Fatalf("best(5) = %+v, want brief summary", best)
	}

	best = fold.BestSummary(1000)
	if best == nil || best.Ratio <= 0.3 {
		t.Fatalf("best(1000) = %+v, want detailed summary", best)
	}
}

func TestContextFoldNoSummaryForTinyBudget(t *testing.T) {
	fold := NewContextFold("test", "content")
	fold.AddSummary(0.1, "This is a summary that has some tokens")
	if fold.BestSummary(1) != nil {
		t.Fatal("expected no summary to fit a 1-token budget")
	}
}
