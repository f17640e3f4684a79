// Package tokenutil estimates token counts for prompt/context budgeting
// across the cost tracker (C3) and context fold (C4).
package tokenutil

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// encoding is the cl100k_base tokenizer, loaded once at package init. It is
// nil if the tiktoken ranks data could not be loaded (e.g. offline without a
// cached copy), in which case callers fall back to EstimateFast.
var encoding *tiktoken.Tiktoken

func init() {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err == nil {
		encoding = enc
	}
}

// CountTokens returns the real tiktoken count for text, falling back to
// EstimateFast when the tokenizer failed to load.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if encoding != nil {
		return len(encoding.Encode(text, nil, nil))
	}
	return EstimateFast(text)
}

// EstimateFast is a tokenizer-free estimate: max(word count, rune count/4).
// CountTokens falls back to it when the tiktoken encoding failed to load.
func EstimateFast(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	words := len(strings.Fields(trimmed))
	runeEstimate := len([]rune(trimmed)) / 4
	if words > runeEstimate {
		return words
	}
	return runeEstimate
}

// TruncateToTokens trims text to at most maxTokens tokens, appending "..."
// when truncation occurred. maxTokens <= 0 is a no-op.
func TruncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	if CountTokens(text) <= maxTokens {
		return text
	}

	if encoding != nil {
		ids := encoding.Encode(text, nil, nil)
		if len(ids) <= maxTokens {
			return text
		}
		truncated := encoding.Decode(ids[:maxTokens])
		return truncated + "..."
	}

	// Fallback: approximate 4 runes/token.
	runes := []rune(text)
	limit := maxTokens * 4
	if limit >= len(runes) {
		return text
	}
	return string(runes[:limit]) + "..."
}
