// Package executor implements the Agent Executor (C7): spawning a CLI
// agent under the C2 PTY capability, streaming its output, parsing
// incremental structured events from the raw byte stream, and enforcing a
// stuck-detector-backed timeout.
package executor

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"autotundra/internal/domain"
	"autotundra/internal/eventbus"
	"autotundra/internal/pty"
	"autotundra/internal/rlm"
	sharederrors "autotundra/internal/shared/errors"
	"autotundra/internal/shared/logging"
	token "autotundra/internal/shared/token"
)

// previewLimit bounds how many bytes of output get published on the event
// bus per chunk; the full buffer is always retained in-process.
const previewLimit = 4096

// AgentConfig translates a pipeline phase into a concrete CLI invocation.
type AgentConfig struct {
	CLIType     string
	Phase       domain.TaskPhase
	Command     string
	Args        []string
	Env         map[string]string
	Model       string
	TimeoutSecs int64
	TokenBudget int
	OneShot     bool // write prompt then EOF rather than keep stdin open
	BestEffort  bool // on Stuck, return success=false instead of erroring
}

// EventKind tags a parsed structured event out of an agent's raw output.
type EventKind string

const (
	EventTag  EventKind = "tag"  // a <tag>...</tag> block
	EventJSON EventKind = "json" // a JSONL frame
)

// Event is one structured event recognized in the agent's output stream.
type Event struct {
	Kind EventKind
	Name string // tag name, or JSON top-level "type" field if present
	Raw  string
}

// ToolError is a tool-invocation failure surfaced by the agent, classified
// by severity so the executor can decide whether it is fatal to success.
type ToolError struct {
	Tool     string
	Message  string
	Critical bool
}

// ExecutionResult is the full outcome of one agent run.
type ExecutionResult struct {
	Success    bool
	Output     string
	DurationMs int64
	Events     []Event
	ToolErrors []ToolError
}

// RecoveryEvent is appended when the stuck detector fires mid-execution.
type RecoveryEvent struct {
	Phase     domain.TaskPhase
	Reason    sharederrors.StuckReason
	Action    string
	Timestamp time.Time
}

// Executor spawns agents via a pty.Spawner, parses their output, and
// enforces timeouts via a per-run StuckDetector.
type Executor struct {
	spawner pty.Spawner
	bus     *eventbus.Bus
	log     logging.Logger

	mu      sync.Mutex
	running map[string]*runHandle
}

type runHandle struct {
	proc   *pty.SpawnedProcess
	cancel context.CancelFunc
}

// New constructs an Executor driving agents through spawner, publishing
// progress on bus (bus may be nil to skip publication).
func New(spawner pty.Spawner, bus *eventbus.Bus, log logging.Logger) *Executor {
	return &Executor{
		spawner: spawner,
		bus:     bus,
		log:     logging.OrNop(log),
		running: make(map[string]*runHandle),
	}
}

// ExecuteTask spawns cfg's CLI invocation for task, writes prompt to its
// input stream, and streams output until the process exits, the context is
// cancelled, or the stuck detector fires.
func (e *Executor) ExecuteTask(ctx context.Context, task *domain.Task, cfg AgentConfig, prompt string) (*ExecutionResult, error) {
	start := time.Now()

	runCtx, cancel := ctx, func() {}
	if cfg.TimeoutSecs > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSecs)*time.Second)
	}
	defer cancel()

	proc, err := e.spawner.Spawn(runCtx, cfg.Command, cfg.Args, cfg.Env)
	if err != nil {
		return nil, sharederrors.NewExecutorError(sharederrors.ExecutorSpawn, err, "failed to spawn agent process")
	}

	e.mu.Lock()
	e.running[task.ID] = &runHandle{proc: proc, cancel: cancel}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.running, task.ID)
		e.mu.Unlock()
	}()

	if _, err := proc.Input().Write([]byte(prompt)); err != nil {
		return nil, sharederrors.NewExecutorError(sharederrors.ExecutorIO, err, "failed to write prompt")
	}
	if cfg.OneShot {
		_ = proc.Input().Close()
	}

	tokenBudget := cfg.TokenBudget
	if tokenBudget <= 0 {
		tokenBudget = 1_000_000
	}
	timeoutSecs := cfg.TimeoutSecs
	if timeoutSecs <= 0 {
		timeoutSecs = 3600
	}
	detector := rlm.NewStuckDetector(timeoutSecs, tokenBudget)

	var output bytes.Buffer
	var events []Event
	var toolErrors []ToolError

	lines := make(chan string, 64)
	readErrCh := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(proc.Output())
		scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		readErrCh <- scanner.Err()
	}()

	stuckCheckTicker := time.NewTicker(500 * time.Millisecond)
	defer stuckCheckTicker.Stop()

	var stuckReason *sharederrors.StuckReason

readLoop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break readLoop
			}
			output.WriteString(line)
			output.WriteByte('\n')
			detector.RecordOutput(line, token.CountTokens(line))

			if ev, ok := parseEvent(line); ok {
				events = append(events, ev)
			}
			if te, ok := detectToolError(line); ok {
				toolErrors = append(toolErrors, te)
			}

			e.publishPreview(task.ID, line)

		case <-stuckCheckTicker.C:
			if r := detector.Check(); r != nil {
				stuckReason = r
				break readLoop
			}

		case <-runCtx.Done():
			stuckReason = nil
			break readLoop
		}
	}

	// Drain any buffered remainder best-effort (non-blocking).
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				goto drained
			}
			output.WriteString(line)
			output.WriteByte('\n')
		default:
			goto drained
		}
	}
drained:

	if stuckReason != nil {
		_ = proc.Input().Close()
		e.publishEvent(task.ID, "agent_stuck", map[string]any{"reason": string(*stuckReason)})
		if cfg.BestEffort {
			return &ExecutionResult{
				Success:    false,
				Output:     output.String(),
				DurationMs: time.Since(start).Milliseconds(),
				Events:     events,
				ToolErrors: append(toolErrors, ToolError{Tool: "stuck_detector", Message: string(*stuckReason), Critical: true}),
			}, nil
		}
		return nil, sharederrors.NewStuckError(*stuckReason, "agent execution stuck")
	}

	if runCtx.Err() != nil && ctx.Err() == nil {
		// Our own per-phase deadline elapsed, not the caller's context.
		return nil, sharederrors.NewExecutorError(sharederrors.ExecutorTimeout, runCtx.Err(), "agent execution timed out")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	waitErr := proc.Wait()
	success := waitErr == nil && !hasCriticalToolError(toolErrors) && !midFrame(output.String())

	return &ExecutionResult{
		Success:    success,
		Output:     output.String(),
		DurationMs: time.Since(start).Milliseconds(),
		Events:     events,
		ToolErrors: toolErrors,
	}, nil
}

// AbortTask closes the running task's input stream and drops the process
// handle, causing the child to receive EOF/SIGHUP on PTY close.
func (e *Executor) AbortTask(taskID string) {
	e.mu.Lock()
	h, ok := e.running[taskID]
	if ok {
		delete(e.running, taskID)
	}
	e.mu.Unlock()
	if !ok {
		return
	}
	h.cancel()
	_ = h.proc.Input().Close()
}

func (e *Executor) publishPreview(taskID, line string) {
	if e.bus == nil {
		return
	}
	preview := line
	if len(preview) > previewLimit {
		preview = preview[:previewLimit] + "...(truncated)"
	}
	e.bus.Publish(domain.DomainEvent{
		Type:       domain.EventCustom,
		TaskID:     taskID,
		CustomType: "agent_output",
		Message:    preview,
		Timestamp:  time.Now(),
	})
}

func (e *Executor) publishEvent(taskID, customType string, payload map[string]any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(domain.DomainEvent{
		Type:       domain.EventCustom,
		TaskID:     taskID,
		CustomType: customType,
		Payload:    payload,
		Timestamp:  time.Now(),
	})
}

// parseEvent recognizes a `<tag>...</tag>` block or a JSONL frame on one
// line of agent output. Malformed JSON is repaired once via jsonrepair
// before being treated as unrecognized.
func parseEvent(line string) (Event, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Event{}, false
	}

	if strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">") {
		end := strings.IndexAny(trimmed, " >")
		if end > 1 {
			name := strings.TrimPrefix(trimmed[1:end], "/")
			return Event{Kind: EventTag, Name: name, Raw: trimmed}, true
		}
	}

	if strings.HasPrefix(trimmed, "{") {
		repaired, err := jsonrepair.JSONRepair(trimmed)
		if err != nil {
			return Event{}, false
		}
		name := ""
		if idx := strings.Index(repaired, `"type"`); idx >= 0 {
			rest := repaired[idx+len(`"type"`):]
			if q1 := strings.Index(rest, `"`); q1 >= 0 {
				rest = rest[q1+1:]
				if q2 := strings.Index(rest, `"`); q2 >= 0 {
					name = rest[:q2]
				}
			}
		}
		return Event{Kind: EventJSON, Name: name, Raw: repaired}, true
	}

	return Event{}, false
}

// detectToolError recognizes a conventional `[TOOL_ERROR]` marker line.
// Criticality is decided by an explicit `critical=true` suffix; anything
// else is treated as non-fatal.
func detectToolError(line string) (ToolError, bool) {
	const marker = "[TOOL_ERROR]"
	idx := strings.Index(line, marker)
	if idx < 0 {
		return ToolError{}, false
	}
	rest := strings.TrimSpace(line[idx+len(marker):])
	critical := strings.Contains(rest, "critical=true")
	tool := "unknown"
	if parts := strings.SplitN(rest, ":", 2); len(parts) == 2 {
		tool = strings.TrimSpace(parts[0])
		rest = strings.TrimSpace(parts[1])
	}
	return ToolError{Tool: tool, Message: rest, Critical: critical}, true
}

func hasCriticalToolError(errs []ToolError) bool {
	for _, e := range errs {
		if e.Critical {
			return true
		}
	}
	return false
}

// midFrame reports whether output ends inside an unterminated JSON object
// or tag block, a sign the stream closed before the CLI finished framing.
func midFrame(output string) bool {
	trimmed := strings.TrimRight(output, "\n\r\t ")
	if trimmed == "" {
		return false
	}
	opens := strings.Count(trimmed, "{")
	closes := strings.Count(trimmed, "}")
	if opens != closes {
		return true
	}
	lastOpenTag := strings.LastIndex(trimmed, "<")
	if lastOpenTag >= 0 && !strings.Contains(trimmed[lastOpenTag:], ">") {
		return true
	}
	return false
}
