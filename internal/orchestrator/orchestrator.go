// Package orchestrator implements the Task Orchestrator (C8): the
// deterministic staged state machine that walks a Task through
// Discovery → ContextGathering → SpecCreation → Planning → Coding → QA →
// (Fixing → QA)* → Merging → Complete, composing C3-C7 at each phase and
// publishing progress on the C1 event bus.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"autotundra/internal/costs"
	"autotundra/internal/domain"
	"autotundra/internal/eventbus"
	"autotundra/internal/executor"
	"autotundra/internal/prompts"
	sharederrors "autotundra/internal/shared/errors"
	"autotundra/internal/shared/logging"
	"autotundra/internal/worktree"
)

// maxQaIterations bounds the QA→Fixing→QA loop per §4.8.
const maxQaIterations = 3

// maxRecursionDepth bounds stuck-detector phase retries per §4.8's
// Recovery note.
const maxRecursionDepth = 3

// phaseOrder is the linear walk every task follows absent QA failures.
var phaseOrder = []domain.TaskPhase{
	domain.PhaseDiscovery,
	domain.PhaseContextGathering,
	domain.PhaseSpecCreation,
	domain.PhasePlanning,
	domain.PhaseCoding,
	domain.PhaseQA,
}

func nextLinearPhase(p domain.TaskPhase) (domain.TaskPhase, bool) {
	for i, phase := range phaseOrder {
		if phase == p && i+1 < len(phaseOrder) {
			return phaseOrder[i+1], true
		}
	}
	return "", false
}

// AgentConfigFor returns the default AgentConfig for a phase. The daemon's
// AgentsConfig overrides cli_type/budget ceilings; this is the built-in
// fallback table every phase starts from.
func AgentConfigFor(phase domain.TaskPhase) executor.AgentConfig {
	return executor.AgentConfig{
		CLIType:     "claude-code",
		Phase:       phase,
		Command:     "claude-code",
		Args:        []string{"--print"},
		TimeoutSecs: 600,
		TokenBudget: 100_000,
		OneShot:     true,
	}
}

// QaRunner executes static checks + test hooks inside a task's worktree and
// returns a QaReport driving the phase transition out of QA.
type QaRunner interface {
	Run(ctx context.Context, task *domain.Task) (*domain.QaReport, error)
}

// PlaceholderQaRunner always reports a single Minor issue — §9's Open
// Question notes the real check set is undefined; this is the explicit
// placeholder the spec calls out, not an oversight.
type PlaceholderQaRunner struct{}

func (PlaceholderQaRunner) Run(ctx context.Context, task *domain.Task) (*domain.QaReport, error) {
	return &domain.QaReport{
		TaskID: task.ID,
		Status: domain.QaPassed,
		Issues: []domain.QaIssue{
			{ID: "qa-placeholder-1", Severity: domain.SeverityMinor, Description: "placeholder QA pass: no real check set wired yet"},
		},
	}, nil
}

// Dependencies are the components C8 composes; every field must be set
// except QaRunner, which defaults to PlaceholderQaRunner.
type Dependencies struct {
	Bus           *eventbus.Bus
	Costs         *costs.Tracker
	Prompts       *prompts.Registry
	Worktrees     *worktree.Manager
	Executor      *executor.Executor
	QaRunner      QaRunner
	MaxConcurrent int64
	Log           logging.Logger
	Tracer        trace.Tracer
}

// Orchestrator drives Task instances through the pipeline state machine.
type Orchestrator struct {
	deps   Dependencies
	sem    *semaphore.Weighted
	log    logging.Logger
	tracer trace.Tracer

	mu     sync.Mutex
	cancel map[string]context.CancelFunc
	spans  map[string]trace.Span
}

// New constructs an Orchestrator. MaxConcurrent defaults to 8 if unset. A
// nil Tracer falls back to the global OTel provider, which is a no-op
// until telemetry.Setup installs a real one.
func New(deps Dependencies) *Orchestrator {
	if deps.QaRunner == nil {
		deps.QaRunner = PlaceholderQaRunner{}
	}
	max := deps.MaxConcurrent
	if max <= 0 {
		max = 8
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("autotundra/orchestrator")
	}
	return &Orchestrator{
		deps:   deps,
		sem:    semaphore.NewWeighted(max),
		log:    logging.OrNop(deps.Log),
		tracer: tracer,
		cancel: make(map[string]context.CancelFunc),
		spans:  make(map[string]trace.Span),
	}
}

// StartTask drives task through the pipeline to a terminal phase. It blocks
// the caller's goroutine; callers wanting concurrency launch it in its own
// goroutine (the orchestrator bounds concurrent *admission*, not call
// shape, via the counting semaphore).
func (o *Orchestrator) StartTask(ctx context.Context, task *domain.Task) error {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer o.sem.Release(1)

	runCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel[task.ID] = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.cancel, task.ID)
		o.mu.Unlock()
		cancel()
	}()

	now := time.Now()
	task.StartedAt = &now
	o.publish(domain.DomainEvent{Type: domain.EventPipelineStarted, TaskID: task.ID, Timestamp: time.Now()})

	task.SetPhase(domain.PhaseDiscovery)
	o.publishPhaseStart(task)

	qaIterations := 0
	recursionRetries := 0
	qaPendingRetried := false

	for {
		if runCtx.Err() != nil {
			o.transitionToStopped(task)
			return nil
		}

		switch task.Phase {
		case domain.PhaseQA:
			report, err := o.runQaPhase(runCtx, task)
			if err != nil {
				if o.shouldRetryStuck(&recursionRetries) {
					continue
				}
				return o.transitionToError(task, err)
			}
			next := report.NextPhase()
			if next == domain.PhaseQA {
				if qaPendingRetried {
					return o.transitionToError(task, sharederrors.NewInternalError(nil, "QA pending retry exhausted"))
				}
				qaPendingRetried = true
				continue
			}
			qaPendingRetried = false
			if next == domain.PhaseFixing {
				qaIterations++
				if qaIterations > maxQaIterations {
					return o.transitionToError(task, sharederrors.NewInternalError(nil, "max QA iterations exceeded"))
				}
			}
			o.publishPhaseEnd(task)
			task.SetPhase(next)
			o.publishPhaseStart(task)
			continue

		case domain.PhaseFixing:
			if err := o.runExecutablePhase(runCtx, task); err != nil {
				if o.shouldRetryStuck(&recursionRetries) {
					continue
				}
				return o.transitionToError(task, err)
			}
			o.publishPhaseEnd(task)
			task.SetPhase(domain.PhaseQA)
			o.publishPhaseStart(task)
			continue

		case domain.PhaseMerging:
			if err := o.runMergingPhase(task); err != nil {
				return o.transitionToError(task, err)
			}
			if task.Phase == domain.PhaseError {
				return nil
			}
			o.publishPhaseEnd(task)
			task.SetPhase(domain.PhaseComplete)
			completedAt := time.Now()
			task.CompletedAt = &completedAt
			o.publish(domain.DomainEvent{Type: domain.EventTaskPhaseChanged, TaskID: task.ID, Phase: task.Phase, Timestamp: time.Now()})
			o.publish(domain.DomainEvent{Type: domain.EventPipelineComplete, TaskID: task.ID, Timestamp: time.Now()})
			task.AppendLog(domain.LogSuccess, "task_complete")
			return nil

		case domain.PhaseComplete, domain.PhaseError, domain.PhaseStopped:
			return nil

		default:
			if task.Phase == domain.PhaseContextGathering {
				if err := o.createWorktree(task); err != nil {
					return o.transitionToError(task, err)
				}
			}
			if err := o.runExecutablePhase(runCtx, task); err != nil {
				if o.shouldRetryStuck(&recursionRetries) {
					continue
				}
				return o.transitionToError(task, err)
			}
			next, ok := nextLinearPhase(task.Phase)
			if !ok {
				next = domain.PhaseMerging
			}
			o.publishPhaseEnd(task)
			task.SetPhase(next)
			o.publishPhaseStart(task)
			continue
		}
	}
}

func (o *Orchestrator) shouldRetryStuck(retries *int) bool {
	if *retries >= maxRecursionDepth {
		return false
	}
	*retries++
	return true
}

// runExecutablePhase builds the phase prompt, checks budget, and executes
// via C7, appending logs/events/tool-errors onto task.
func (o *Orchestrator) runExecutablePhase(ctx context.Context, task *domain.Task) error {
	cfg := AgentConfigFor(task.Phase)

	estTokens := cfg.TokenBudget / 10
	estCost := o.deps.Costs.CalculateCost(cfg.Model, estTokens, estTokens/4)
	check := o.deps.Costs.CheckBudget(task.ID, estTokens, estCost)
	if check.Verdict == costs.BudgetDenied {
		task.AppendLog(domain.LogError, "budget denied: "+check.Reason)
		return sharederrors.NewBudgetDeniedError(check.Reason)
	}
	if check.Verdict == costs.BudgetWarning {
		task.AppendLog(domain.LogInfo, fmt.Sprintf("budget warning: token_pct=%.2f cost_pct=%.2f", check.TokenPct, check.CostPct))
	}

	prompt := o.renderPrompt(task)

	result, err := o.deps.Executor.ExecuteTask(ctx, task, cfg, prompt)
	if err != nil {
		task.AppendLog(domain.LogError, err.Error())
		return err
	}

	for _, te := range result.ToolErrors {
		task.AppendLog(domain.LogError, fmt.Sprintf("tool_error[%s]: %s", te.Tool, te.Message))
	}
	if !result.Success {
		task.AppendLog(domain.LogError, "phase execution reported failure")
		return sharederrors.NewExecutorError(sharederrors.ExecutorNonZeroExit, nil, "agent execution failed")
	}

	task.AppendLog(domain.LogSuccess, fmt.Sprintf("phase %s completed in %dms", task.Phase, result.DurationMs))
	o.deps.Costs.ConsumeBudget(task.ID, estTokens, estCost)
	return nil
}

func (o *Orchestrator) renderPrompt(task *domain.Task) string {
	role := roleForPhase(task.Phase)
	tpl, ok := o.deps.Prompts.Get(role)
	if !ok {
		return task.Description
	}
	return tpl.RenderTask(task.Title, task.Description, "")
}

func roleForPhase(phase domain.TaskPhase) prompts.AgentRole {
	switch phase {
	case domain.PhaseDiscovery:
		return prompts.RoleSpecGatherer
	case domain.PhaseContextGathering:
		return prompts.RoleSpecResearcher
	case domain.PhaseSpecCreation:
		return prompts.RoleSpecWriter
	case domain.PhasePlanning:
		return prompts.RolePlanner
	case domain.PhaseCoding:
		return prompts.RoleCoder
	case domain.PhaseFixing:
		return prompts.RoleQaFixer
	default:
		return prompts.RoleCoder
	}
}

func (o *Orchestrator) runQaPhase(ctx context.Context, task *domain.Task) (*domain.QaReport, error) {
	report, err := o.deps.QaRunner.Run(ctx, task)
	if err != nil {
		task.AppendLog(domain.LogError, "qa run failed: "+err.Error())
		return nil, err
	}
	task.QaReport = report
	task.AppendLog(domain.LogInfo, fmt.Sprintf("qa status: %s (%d issues)", report.Status, len(report.Issues)))
	return report, nil
}

func (o *Orchestrator) createWorktree(task *domain.Task) error {
	wt, err := o.deps.Worktrees.CreateForTask(task)
	if err != nil {
		task.AppendLog(domain.LogError, "worktree create failed: "+err.Error())
		return err
	}
	task.WorktreePath = &wt.Path
	task.GitBranch = &wt.Branch
	task.AppendLog(domain.LogInfo, "worktree created: "+wt.Path)
	return nil
}

func (o *Orchestrator) runMergingPhase(task *domain.Task) error {
	if task.WorktreePath == nil || task.GitBranch == nil {
		task.AppendLog(domain.LogInfo, "direct mode: no worktree to merge")
		return nil
	}
	wt := &domain.WorktreeInfo{Path: *task.WorktreePath, Branch: *task.GitBranch, BaseBranch: "main"}
	result, err := o.deps.Worktrees.MergeToMain(wt)
	if err != nil {
		task.AppendLog(domain.LogError, "merge failed: "+err.Error())
		return err
	}

	switch result.Outcome {
	case worktree.MergeSuccess:
		task.AppendLog(domain.LogSuccess, "merge_success")
		o.publish(domain.DomainEvent{Type: domain.EventMergeResult, TaskID: task.ID, Message: "merge_success", Timestamp: time.Now()})
		return nil
	case worktree.MergeNothingToMerge:
		task.AppendLog(domain.LogInfo, "merge_nothing_to_merge")
		o.publish(domain.DomainEvent{Type: domain.EventMergeResult, TaskID: task.ID, Message: "merge_nothing_to_merge", Timestamp: time.Now()})
		return nil
	default: // MergeConflict
		msg := fmt.Sprintf("merge conflict in files: %v", result.Files)
		task.AppendLog(domain.LogError, msg)
		o.publish(domain.DomainEvent{Type: domain.EventMergeResult, TaskID: task.ID, Message: "merge_conflict", Payload: map[string]any{"files": result.Files}, Timestamp: time.Now()})
		errText := msg
		task.Error = &errText
		o.publishPhaseEnd(task)
		task.SetPhase(domain.PhaseError)
		o.publish(domain.DomainEvent{Type: domain.EventTaskPhaseChanged, TaskID: task.ID, Phase: task.Phase, Timestamp: time.Now()})
		o.publish(domain.DomainEvent{Type: domain.EventCustom, TaskID: task.ID, CustomType: "task_error", Message: msg, Timestamp: time.Now()})
		return nil
	}
}

func (o *Orchestrator) transitionToError(task *domain.Task, err error) error {
	msg := err.Error()
	task.Error = &msg
	o.publishPhaseEnd(task)
	task.SetPhase(domain.PhaseError)
	task.AppendLog(domain.LogError, "error: "+msg)
	o.publish(domain.DomainEvent{Type: domain.EventTaskPhaseChanged, TaskID: task.ID, Phase: task.Phase, Timestamp: time.Now()})
	o.publish(domain.DomainEvent{Type: domain.EventCustom, TaskID: task.ID, CustomType: "task_error", Message: msg, Timestamp: time.Now()})
	return nil
}

func (o *Orchestrator) transitionToStopped(task *domain.Task) {
	o.publishPhaseEnd(task)
	task.SetPhase(domain.PhaseStopped)
	task.AppendLog(domain.LogInfo, "task stopped")
	o.publish(domain.DomainEvent{Type: domain.EventTaskPhaseChanged, TaskID: task.ID, Phase: task.Phase, Timestamp: time.Now()})
}

// CancelTask requests the running task transition to Stopped. It closes the
// agent's input stream via the executor and cancels the driving context.
func (o *Orchestrator) CancelTask(taskID string) {
	o.deps.Executor.AbortTask(taskID)
	o.mu.Lock()
	cancel, ok := o.cancel[taskID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
}

// RetryTask requires task be in Error or Stopped; it clears the error,
// resets to Discovery, and calls StartTask.
func (o *Orchestrator) RetryTask(ctx context.Context, task *domain.Task) error {
	if task.Phase != domain.PhaseError && task.Phase != domain.PhaseStopped {
		return sharederrors.NewConflictError("task must be in Error or Stopped to retry")
	}
	task.Error = nil
	task.SetPhase(domain.PhaseDiscovery)
	return o.StartTask(ctx, task)
}

func (o *Orchestrator) publish(ev domain.DomainEvent) {
	if o.deps.Bus == nil {
		return
	}
	o.deps.Bus.Publish(ev)
}

func (o *Orchestrator) publishPhaseStart(task *domain.Task) {
	_, span := o.tracer.Start(context.Background(), "phase:"+string(task.Phase),
		trace.WithAttributes(attribute.String("task.id", task.ID), attribute.String("task.phase", string(task.Phase))))
	o.mu.Lock()
	o.spans[task.ID] = span
	o.mu.Unlock()

	task.AppendLog(domain.LogPhaseStart, "phase_start:"+string(task.Phase))
	o.publish(domain.DomainEvent{
		Type: domain.EventCustom, TaskID: task.ID, Phase: task.Phase,
		CustomType: "phase_start", Timestamp: time.Now(),
	})
	o.publish(domain.DomainEvent{Type: domain.EventTaskPhaseChanged, TaskID: task.ID, Phase: task.Phase, Timestamp: time.Now()})
}

func (o *Orchestrator) publishPhaseEnd(task *domain.Task) {
	o.mu.Lock()
	span, ok := o.spans[task.ID]
	delete(o.spans, task.ID)
	o.mu.Unlock()
	if ok {
		if task.Error != nil {
			span.SetStatus(codes.Error, *task.Error)
		}
		span.End()
	}

	task.AppendLog(domain.LogPhaseEnd, "phase_end:"+string(task.Phase))
	o.publish(domain.DomainEvent{
		Type: domain.EventCustom, TaskID: task.ID, Phase: task.Phase,
		CustomType: "phase_end", Timestamp: time.Now(),
	})
}
