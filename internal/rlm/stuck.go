package rlm

import (
	"sync"
	"time"

	sharederrors "autotundra/internal/shared/errors"
)

// defaultMaxRepeats is how many identical consecutive outputs in a row
// count as an output loop.
const defaultMaxRepeats = 3

// StuckDetector watches one agent's output stream for three failure
// modes: no output for timeoutSecs, a repeated-output loop, and token
// budget exhaustion without progress.
type StuckDetector struct {
	mu sync.Mutex

	timeoutSecs    int64
	maxRepeats     int
	recentOutputs  []string
	lastProgress   time.Time
	tokensConsumed int
	tokenBudget    int
}

// NewStuckDetector constructs a detector with the default max-repeats of 3.
func NewStuckDetector(timeoutSecs int64, tokenBudget int) *StuckDetector {
	return &StuckDetector{
		timeoutSecs:  timeoutSecs,
		maxRepeats:   defaultMaxRepeats,
		lastProgress: time.Now(),
		tokenBudget:  tokenBudget,
	}
}

// RecordOutput registers a chunk of agent output. A ring of the last
// maxRepeats+1 outputs is kept for loop detection; a changed (or first)
// output resets the progress clock.
func (d *StuckDetector) RecordOutput(output string, tokens int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tokensConsumed += tokens
	d.recentOutputs = append(d.recentOutputs, output)
	if over := len(d.recentOutputs) - (d.maxRepeats + 1); over > 0 {
		d.recentOutputs = d.recentOutputs[over:]
	}

	n := len(d.recentOutputs)
	if n < 2 || d.recentOutputs[n-1] != d.recentOutputs[n-2] {
		d.lastProgress = time.Now()
	}
}

// Check evaluates all three stuck conditions in priority order — timeout,
// then output loop, then budget exhaustion — returning the first that
// applies, or nil if the agent is making healthy progress.
func (d *StuckDetector) Check() *sharederrors.StuckReason {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := int64(time.Since(d.lastProgress).Seconds())
	if elapsed > d.timeoutSecs {
		r := sharederrors.StuckTimeout
		return &r
	}

	if n := len(d.recentOutputs); n >= d.maxRepeats {
		last := d.recentOutputs[n-1]
		allSame := true
		for i := n - d.maxRepeats; i < n; i++ {
			if d.recentOutputs[i] != last {
				allSame = false
				break
			}
		}
		if allSame && last != "" {
			r := sharederrors.StuckOutputLoop
			return &r
		}
	}

	if d.tokensConsumed >= d.tokenBudget {
		r := sharederrors.StuckBudgetExhausted
		return &r
	}

	return nil
}

// Reset clears recorded outputs and restarts the progress clock, used
// after a recovery action (e.g. a fresh retry).
func (d *StuckDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recentOutputs = nil
	d.lastProgress = time.Now()
	d.tokensConsumed = 0
}

// TokensRemaining returns the budget left, floored at zero.
func (d *StuckDetector) TokensRemaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tokensConsumed >= d.tokenBudget {
		return 0
	}
	return d.tokenBudget - d.tokensConsumed
}
