// Package rlm implements Context Fold & RLM (C4): external storage for
// large inputs the orchestrator never loads whole into an agent's context,
// recursive task decomposition, progressive answer refinement, and stuck-
// agent detection.
package rlm

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	token "autotundra/internal/shared/token"
)

// SectionSpan is a named line range within a fold.
type SectionSpan struct {
	StartLine int
	EndLine   int
}

// FoldSummary is a pre-computed summary at a given compression ratio.
type FoldSummary struct {
	Ratio  float64
	Text   string
	Tokens int
}

// SearchHit is one line matching a ContextFold search.
type SearchHit struct {
	LineNum int
	Content string
}

// ContextFold stores a large input externally and exposes slice/search/
// section access so an agent inspects it programmatically instead of
// receiving the whole thing in its prompt.
type ContextFold struct {
	mu sync.RWMutex

	ID          uuid.UUID
	Label       string
	Content     string
	TotalTokens int
	Summaries   []FoldSummary
	Sections    map[string]SectionSpan
	CreatedAt   time.Time
}

// NewContextFold creates a fold over content, counting tokens with the
// real tokenizer rather than a byte-length heuristic.
func NewContextFold(label, content string) *ContextFold {
	return &ContextFold{
		ID:          uuid.New(),
		Label:       label,
		Content:     content,
		TotalTokens: token.CountTokens(content),
		Sections:    make(map[string]SectionSpan),
		CreatedAt:   time.Now(),
	}
}

// Slice returns lines [startLine, endLine), clamped to content bounds.
func (f *ContextFold) Slice(startLine, endLine int) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	lines := strings.Split(f.Content, "\n")
	if startLine > len(lines) {
		startLine = len(lines)
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine < 0 {
		startLine = 0
	}
	if endLine < startLine {
		endLine = startLine
	}
	return strings.Join(lines[startLine:endLine], "\n")
}

// GetSection returns a previously registered named section's text.
func (f *ContextFold) GetSection(name string) (string, bool) {
	f.mu.RLock()
	span, ok := f.Sections[name]
	f.mu.RUnlock()
	if !ok {
		return "", false
	}
	return f.Slice(span.StartLine, span.EndLine), true
}

// Search performs a case-insensitive substring search over content lines.
func (f *ContextFold) Search(pattern string) []SearchHit {
	f.mu.RLock()
	defer f.mu.RUnlock()
	needle := strings.ToLower(pattern)
	var hits []SearchHit
	for i, line := range strings.Split(f.Content, "\n") {
		if strings.Contains(strings.ToLower(line), needle) {
			hits = append(hits, SearchHit{LineNum: i, Content: line})
		}
	}
	return hits
}

// AddSummary attaches a pre-computed summary at the given compression
// ratio (e.g. 0.1 = 10% of the original).
func (f *ContextFold) AddSummary(ratio float64, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Summaries = append(f.Summaries, FoldSummary{
		Ratio:  ratio,
		Text:   text,
		Tokens: token.CountTokens(text),
	})
}

// BestSummary returns the most detailed summary that still fits within
// tokenBudget, or nil if none fit.
func (f *ContextFold) BestSummary(tokenBudget int) *FoldSummary {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var best *FoldSummary
	for i := range f.Summaries {
		s := f.Summaries[i]
		if s.Tokens > tokenBudget {
			continue
		}
		if best == nil || s.Ratio > best.Ratio {
			best = &f.Summaries[i]
		}
	}
	return best
}

// RegisterSection names a line range for later lookup by GetSection.
func (f *ContextFold) RegisterSection(name string, startLine, endLine int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sections[name] = SectionSpan{StartLine: startLine, EndLine: endLine}
}

// AutoDetectSections scans content for markdown headers (#, ##, ###) and
// registers each header's span as a section, keyed by the lowercased,
// underscore-joined header text.
func (f *ContextFold) AutoDetectSections() {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := strings.Split(f.Content, "\n")
	type open struct {
		name  string
		start int
	}
	var current *open

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") || strings.HasPrefix(trimmed, "## ") || strings.HasPrefix(trimmed, "### ") {
			if current != nil {
				f.Sections[current.name] = SectionSpan{StartLine: current.start, EndLine: i}
			}
			name := strings.ToLower(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
			name = strings.ReplaceAll(name, " ", "_")
			current = &open{name: name, start: i}
		}
	}
	if current != nil {
		f.Sections[current.name] = SectionSpan{StartLine: current.start, EndLine: len(lines)}
	}
}

// LineCount returns the number of lines in the fold's content.
func (f *ContextFold) LineCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(strings.Split(f.Content, "\n"))
}
