package logging

import (
	"context"
	"testing"
)

func TestOrNopHandlesNil(t *testing.T) {
	var l Logger
	got := OrNop(l)
	if got != Nop {
		t.Fatalf("OrNop(nil) should return Nop")
	}
	got.Info("should not panic")
}

func TestComponentLoggerWith(t *testing.T) {
	l := NewComponentLogger("eventbus").With("task_id", "t-1")
	if IsNil(l) {
		t.Fatalf("component logger should not be nil")
	}
	l.Info("published", "count", 3)
}

func TestContextRoundTrip(t *testing.T) {
	l := NewComponentLogger("orchestrator")
	ctx := IntoContext(context.Background(), l)

	got := FromContext(ctx, Nop)
	if got != l {
		t.Fatalf("FromContext should return the stashed logger")
	}

	fallback := FromContext(context.Background(), Nop)
	if fallback != Nop {
		t.Fatalf("FromContext without a stashed logger should return fallback")
	}
}
