package executor

import (
	"context"
	"testing"
	"time"

	"autotundra/internal/domain"
	"autotundra/internal/eventbus"
	"autotundra/internal/pty"
)

func TestExecuteTaskSuccess(t *testing.T) {
	fake := &pty.Fake{Output: []byte("code written\ndone\n")}
	bus := eventbus.New(nil)
	exec := New(fake, bus, nil)

	task := &domain.Task{ID: "t1", Title: "demo"}
	cfg := AgentConfig{Command: "fake-cli", TimeoutSecs: 5, OneShot: true}

	res, err := exec.ExecuteTask(context.Background(), task, cfg, "do the thing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Output == "" {
		t.Fatal("expected non-empty output")
	}
}

func TestExecuteTaskSpawnError(t *testing.T) {
	fake := &pty.Fake{Err: context.DeadlineExceeded}
	exec := New(fake, nil, nil)
	task := &domain.Task{ID: "t1", Title: "demo"}
	cfg := AgentConfig{Command: "fake-cli", TimeoutSecs: 5}

	_, err := exec.ExecuteTask(context.Background(), task, cfg, "prompt")
	if err == nil {
		t.Fatal("expected spawn error")
	}
}

func TestParseEventTag(t *testing.T) {
	ev, ok := parseEvent("<plan>do the work</plan>")
	if !ok {
		t.Fatal("expected tag event recognized")
	}
	if ev.Kind != EventTag || ev.Name != "plan" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestParseEventJSON(t *testing.T) {
	ev, ok := parseEvent(`{"type": "tool_call", "name": "edit"}`)
	if !ok {
		t.Fatal("expected JSON event recognized")
	}
	if ev.Kind != EventJSON || ev.Name != "tool_call" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestParseEventJSONRepairsMalformed(t *testing.T) {
	ev, ok := parseEvent(`{type: "tool_call", name: 'edit',}`)
	if !ok {
		t.Fatal("expected repaired JSON event recognized")
	}
	if ev.Kind != EventJSON {
		t.Fatalf("unexpected event kind: %+v", ev)
	}
}

func TestDetectToolErrorCritical(t *testing.T) {
	te, ok := detectToolError("[TOOL_ERROR] edit: disk full critical=true")
	if !ok {
		t.Fatal("expected tool error recognized")
	}
	if !te.Critical {
		t.Fatalf("expected critical tool error, got %+v", te)
	}
}

func TestAbortTaskAfterRunFinishedDoesNotPanic(t *testing.T) {
	fake := &pty.Fake{Output: []byte("")}
	exec := New(fake, nil, nil)
	task := &domain.Task{ID: "t1", Title: "demo"}
	cfg := AgentConfig{Command: "fake-cli", TimeoutSecs: 5}

	done := make(chan struct{})
	go func() {
		_, _ = exec.ExecuteTask(context.Background(), task, cfg, "prompt")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("execution did not finish")
	}
	exec.AbortTask(task.ID) // no-op once the run already finished; must not panic
}
