// Package bootstrap wires the eleven components — event bus, PTY spawner,
// cost tracker, context fold registry, prompt registry, worktree manager,
// agent executor, task orchestrator, HTTP/WebSocket surface, storage
// facade, and external clients — into one running daemon, the way the
// teacher's cmd/alex-server delegates to a single Run entrypoint instead of
// inlining wiring in main.go.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"autotundra/internal/costs"
	apihttp "autotundra/internal/delivery/server/http"
	"autotundra/internal/eventbus"
	"autotundra/internal/executor"
	"autotundra/internal/external/github"
	"autotundra/internal/external/gitlab"
	"autotundra/internal/external/linear"
	"autotundra/internal/mcp"
	"autotundra/internal/orchestrator"
	"autotundra/internal/poker"
	"autotundra/internal/prompts"
	"autotundra/internal/pty"
	"autotundra/internal/rlm"
	runtimeconfig "autotundra/internal/shared/config"
	"autotundra/internal/shared/logging"
	"autotundra/internal/storage"
	"autotundra/internal/telemetry"
	"autotundra/internal/worktree"
)

// Run loads configuration, wires every component, and serves the HTTP/
// WebSocket surface until the process receives SIGINT/SIGTERM, flushing
// storage before returning.
func Run() error {
	cfgMgr, err := runtimeconfig.NewManager()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := cfgMgr.GetConfig()

	logging.SetLevel(parseLevel(cfg.General.LogLevel))
	log := logging.NewComponentLogger("bootstrap")

	workspaceRoot := cfg.General.WorkspaceRoot
	if workspaceRoot == "" {
		workspaceRoot, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve workspace root: %w", err)
		}
	}

	tracer, shutdownTracing, err := telemetry.Setup(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	bus := eventbus.New(logging.NewComponentLogger("eventbus"))
	tracker := costs.New(logging.NewComponentLogger("costs"))
	folds, err := rlm.NewFoldRegistry(512)
	if err != nil {
		return fmt.Errorf("init fold registry: %w", err)
	}
	promptRegistry := prompts.New(logging.NewComponentLogger("prompts"))
	worktrees := worktree.New(workspaceRoot, worktree.NewExecGitRunner(), logging.NewComponentLogger("worktree"))
	spawner := pty.NewReal()
	agentExecutor := executor.New(spawner, bus, logging.NewComponentLogger("executor"))
	pokerSvc := poker.New(logging.NewComponentLogger("poker"))

	store, err := storage.New(workspaceRoot, logging.NewComponentLogger("storage"))
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Flush()

	orch := orchestrator.New(orchestrator.Dependencies{
		Bus:           bus,
		Costs:         tracker,
		Prompts:       promptRegistry,
		Worktrees:     worktrees,
		Executor:      agentExecutor,
		MaxConcurrent: int64(cfg.Agents.MaxConcurrent),
		Log:           logging.NewComponentLogger("orchestrator"),
		Tracer:        tracer,
	})

	mcpRegistry := mcp.New()
	mcp.RegisterBuiltins(mcpRegistry, store, tracker)

	var semanticIndex *rlm.SemanticIndex
	if cfg.Memory.EnableMemory {
		semanticIndex, err = rlm.NewSemanticIndex()
		if err != nil {
			log.Warn("semantic index unavailable, falling back to substring search only", "error", err)
			semanticIndex = nil
		}
	}

	deps := apihttp.RouterDeps{
		Bus:          bus,
		Costs:        tracker,
		Orchestrator: orch,
		Worktrees:    worktrees,
		Storage:      store,
		Poker:        pokerSvc,
		Folds:        folds,
		Semantic:     semanticIndex,
		Prompts:      promptRegistry,
		GitHub:       newGitHubClient(),
		GitLab:       newGitLabClient(),
		Linear:       newLinearClient(),
		MCP:          mcpRegistry,
		Log:          logging.NewComponentLogger("http"),
		Tracer:       tracer,
	}
	routerCfg := apihttp.RouterConfig{
		AuthToken:          cfg.Daemon.AuthToken,
		AllowedOrigins:     cfg.Security.AllowedOrigins,
		Environment:        cfg.General.ProjectName,
		RateLimitPerMinute: 0,
		RequestTimeout:     30 * time.Second,
	}
	handler := apihttp.NewRouter(deps, routerCfg)

	addr := fmt.Sprintf("%s:%d", cfg.Daemon.Host, cfg.Daemon.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving", "addr", addr, "tls", cfg.Daemon.TLS.Enabled)
		var serveErr error
		if cfg.Daemon.TLS.Enabled {
			serveErr = srv.ListenAndServeTLS(cfg.Daemon.TLS.CertFile, cfg.Daemon.TLS.KeyFile)
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newGitHubClient() *github.Client {
	owner, repo := os.Getenv("GITHUB_OWNER"), os.Getenv("GITHUB_REPO")
	if owner == "" || repo == "" {
		return nil
	}
	return github.New(owner, repo, logging.NewComponentLogger("github"))
}

func newGitLabClient() *gitlab.Client {
	project := os.Getenv("GITLAB_PROJECT_ID")
	if project == "" {
		return nil
	}
	return gitlab.New(project, logging.NewComponentLogger("gitlab"))
}

func newLinearClient() *linear.Client {
	team := os.Getenv("LINEAR_TEAM_ID")
	if team == "" {
		return nil
	}
	return linear.New(team, logging.NewComponentLogger("linear"))
}
