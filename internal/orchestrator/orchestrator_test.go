package orchestrator

import (
	"context"
	"testing"
	"time"

	"autotundra/internal/costs"
	"autotundra/internal/domain"
	"autotundra/internal/eventbus"
	"autotundra/internal/executor"
	"autotundra/internal/prompts"
	"autotundra/internal/pty"
	sharederrors "autotundra/internal/shared/errors"
	"autotundra/internal/worktree"
)

type scriptedGit struct {
	diffStdout string
	mergeFails bool
}

func (g *scriptedGit) RunGit(cwd string, argv []string) (worktree.GitResult, error) {
	if len(argv) == 0 {
		return worktree.GitResult{}, nil
	}
	switch argv[0] {
	case "worktree":
		return worktree.GitResult{Success: true}, nil
	case "diff":
		if len(argv) > 1 && argv[1] == "--name-only" {
			return worktree.GitResult{Success: true, Stdout: "src/x.go\n"}, nil
		}
		return worktree.GitResult{Success: true, Stdout: g.diffStdout}, nil
	case "merge":
		if len(argv) > 0 && argv[len(argv)-1] == "--abort" {
			return worktree.GitResult{Success: true}, nil
		}
		if g.mergeFails {
			return worktree.GitResult{Success: false, Stderr: "CONFLICT (content): Merge conflict in src/x.go"}, nil
		}
		return worktree.GitResult{Success: true}, nil
	default:
		return worktree.GitResult{Success: true}, nil
	}
}

func newTestOrchestrator(t *testing.T, diffStdout string, mergeFails bool) (*Orchestrator, *eventbus.Bus) {
	t.Helper()
	bus := eventbus.New(nil)
	tracker := costs.New(nil)
	registry := prompts.New(nil)
	wtMgr := worktree.New(t.TempDir(), &scriptedGit{diffStdout: diffStdout, mergeFails: mergeFails}, nil)
	exec := executor.New(&pty.Fake{Output: []byte("ok\n")}, bus, nil)

	o := New(Dependencies{
		Bus:       bus,
		Costs:     tracker,
		Prompts:   registry,
		Worktrees: wtMgr,
		Executor:  exec,
		Log:       nil,
	})
	return o, bus
}

func TestStartTaskHappyPathReachesComplete(t *testing.T) {
	o, _ := newTestOrchestrator(t, "", false)
	task := &domain.Task{ID: "t1", Title: "demo task", Description: "do the thing"}

	if err := o.StartTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Phase != domain.PhaseComplete {
		t.Fatalf("expected Complete, got %s (error=%v)", task.Phase, task.Error)
	}
	if task.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be set")
	}

	var sawComplete bool
	for _, l := range task.Logs {
		if l.Message == "task_complete" {
			sawComplete = true
		}
	}
	if !sawComplete {
		t.Fatalf("expected task_complete log entry, got %+v", task.Logs)
	}
}

func TestStartTaskMergeSuccessWithChanges(t *testing.T) {
	o, _ := newTestOrchestrator(t, "1 file changed", false)
	task := &domain.Task{ID: "t2", Title: "demo with diff", Description: "do the thing"}

	if err := o.StartTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Phase != domain.PhaseComplete {
		t.Fatalf("expected Complete, got %s (error=%v)", task.Phase, task.Error)
	}
}

func TestStartTaskMergeConflictTransitionsToError(t *testing.T) {
	o, _ := newTestOrchestrator(t, "1 file changed", true)
	task := &domain.Task{ID: "t3", Title: "conflicting task", Description: "do the thing"}

	if err := o.StartTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Phase != domain.PhaseError {
		t.Fatalf("expected Error, got %s", task.Phase)
	}
	if task.Error == nil {
		t.Fatal("expected task.Error to be set")
	}
}

func TestStartTaskBudgetDeniedTransitionsToError(t *testing.T) {
	o, _ := newTestOrchestrator(t, "", false)
	task := &domain.Task{ID: "t4", Title: "over budget task", Description: "do the thing"}

	o.deps.Costs.SetBudget(task.ID, domain.TokenBudget{MaxTokens: 1})

	if err := o.StartTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Phase != domain.PhaseError {
		t.Fatalf("expected Error, got %s", task.Phase)
	}
}

func TestRetryTaskRequiresTerminalPhase(t *testing.T) {
	o, _ := newTestOrchestrator(t, "", false)
	task := &domain.Task{ID: "t5", Title: "in flight", Phase: domain.PhaseCoding}

	err := o.RetryTask(context.Background(), task)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	taxErr, ok := sharederrors.AsTaxonomy(err)
	if !ok || taxErr.Kind != sharederrors.KindConflict {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestRetryTaskFromErrorRestartsPipeline(t *testing.T) {
	o, _ := newTestOrchestrator(t, "", false)
	task := &domain.Task{ID: "t6", Title: "retry me", Phase: domain.PhaseError}
	errMsg := "previous failure"
	task.Error = &errMsg

	if err := o.RetryTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Phase != domain.PhaseComplete {
		t.Fatalf("expected Complete after retry, got %s", task.Phase)
	}
	if task.Error != nil {
		t.Fatalf("expected Error cleared, got %v", task.Error)
	}
}

func TestCancelTaskOnUnknownTaskIsNoop(t *testing.T) {
	o, _ := newTestOrchestrator(t, "", false)
	o.CancelTask("does-not-exist") // must not panic
}

func TestStartTaskPublishesPipelineEvents(t *testing.T) {
	o, bus := newTestOrchestrator(t, "", false)
	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	task := &domain.Task{ID: "t7", Title: "events task", Description: "do the thing"}
	done := make(chan struct{})
	go func() {
		_ = o.StartTask(context.Background(), task)
		close(done)
	}()

	var sawStarted, sawComplete bool
	timeout := time.After(2 * time.Second)
	for !sawComplete {
		select {
		case ev := <-sub.Events():
			switch ev.Type {
			case domain.EventPipelineStarted:
				sawStarted = true
			case domain.EventPipelineComplete:
				sawComplete = true
			}
		case <-timeout:
			t.Fatal("timed out waiting for pipeline events")
		}
	}
	<-done
	if !sawStarted {
		t.Fatal("expected a PipelineStarted event")
	}
}
