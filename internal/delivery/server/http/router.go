package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"autotundra/internal/costs"
	"autotundra/internal/eventbus"
	"autotundra/internal/external/github"
	"autotundra/internal/external/gitlab"
	"autotundra/internal/external/linear"
	"autotundra/internal/mcp"
	"autotundra/internal/orchestrator"
	"autotundra/internal/poker"
	"autotundra/internal/prompts"
	"autotundra/internal/rlm"
	"autotundra/internal/shared/logging"
	"autotundra/internal/storage"
	"autotundra/internal/worktree"
)

// RouterDeps are the components C9 composes, per spec.md §4.9: every
// operation this surface exposes is a thin HTTP/WebSocket translation onto
// one of these, never new business logic of its own.
type RouterDeps struct {
	Bus          *eventbus.Bus
	Costs        *costs.Tracker
	Orchestrator *orchestrator.Orchestrator
	Worktrees    *worktree.Manager
	Storage      *storage.Facade
	Poker        *poker.Service
	Folds        *rlm.FoldRegistry
	Semantic     *rlm.SemanticIndex
	Prompts      *prompts.Registry
	GitHub       *github.Client
	GitLab       *gitlab.Client
	Linear       *linear.Client
	MCP          *mcp.Registry
	Log          logging.Logger
	Tracer       trace.Tracer
}

// RouterConfig tunes cross-cutting behavior that isn't a dependency in its
// own right: auth, CORS, and the rate/timeout ceilings every handler is
// subject to.
type RouterConfig struct {
	AuthToken          string
	AllowedOrigins     []string
	Environment        string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
}

// server bundles RouterDeps with the small amount of derived state
// (agent registry, ws hub) every handler method needs.
type server struct {
	deps          RouterDeps
	log           logging.Logger
	agents        *agentRegistry
	wsHub         *wsHub
	registry      *prometheus.Registry
	notifications *notificationStore
	sessionsUI    *sessionUIStore
}

// NewRouter builds the full spec.md §4.9/§6 HTTP/WebSocket surface: every
// handler passes through the auth gate (invariant #10), CORS, rate
// limiting, request-timeout, compression, and structured-logging
// middleware before reaching a route.
func NewRouter(deps RouterDeps, cfg RouterConfig) http.Handler {
	logger := logging.OrNop(deps.Log)

	s := &server{
		deps:          deps,
		log:           logger,
		agents:        newAgentRegistry(deps.Bus, logger),
		wsHub:         newWSHub(deps.Bus, logger),
		notifications: newNotificationStore(),
		sessionsUI:    newSessionUIStore(),
	}
	s.registry = newMetricsRegistry(deps.Costs, s.agents)
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("autotundra/http")
	}
	if s.deps.MCP == nil {
		reg := mcp.New()
		mcp.RegisterBuiltins(reg, deps.Storage, deps.Costs)
		s.deps.MCP = reg
	}

	mux := http.NewServeMux()

	// ── Status / KPI / metrics ──
	mux.Handle("GET /api/status", routeHandler("/api/status", http.HandlerFunc(s.handleStatus)))
	mux.Handle("GET /api/kpi", routeHandler("/api/kpi", http.HandlerFunc(s.handleKPI)))
	mux.Handle("GET /api/metrics", routeHandler("/api/metrics", http.HandlerFunc(s.handleMetrics)))
	mux.Handle("GET /api/metrics/json", routeHandler("/api/metrics/json", http.HandlerFunc(s.handleMetricsJSON)))

	// ── Beads ──
	mux.Handle("GET /api/beads", routeHandler("/api/beads", http.HandlerFunc(s.handleListBeads)))
	mux.Handle("POST /api/beads", routeHandler("/api/beads", http.HandlerFunc(s.handleCreateBead)))
	mux.Handle("GET /api/beads/{id}", routeHandler("/api/beads/:id", http.HandlerFunc(s.handleGetBead)))
	mux.Handle("PATCH /api/beads/{id}", routeHandler("/api/beads/:id", http.HandlerFunc(s.handleUpdateBead)))
	mux.Handle("POST /api/beads/{id}/status", routeHandler("/api/beads/:id/status", http.HandlerFunc(s.handleTransitionBead)))

	// ── Tasks ──
	mux.Handle("GET /api/tasks", routeHandler("/api/tasks", http.HandlerFunc(s.handleListTasks)))
	mux.Handle("POST /api/tasks", routeHandler("/api/tasks", http.HandlerFunc(s.handleCreateTask)))
	mux.Handle("GET /api/tasks/drafts", routeHandler("/api/tasks/drafts", http.HandlerFunc(s.handleListDrafts)))
	mux.Handle("POST /api/tasks/drafts", routeHandler("/api/tasks/drafts", http.HandlerFunc(s.handleCreateDraft)))
	mux.Handle("DELETE /api/tasks/drafts/{id}", routeHandler("/api/tasks/drafts/:id", http.HandlerFunc(s.handleDeleteDraft)))
	mux.Handle("GET /api/tasks/archived", routeHandler("/api/tasks/archived", http.HandlerFunc(s.handleListArchivedTasks)))
	mux.Handle("GET /api/tasks/{id}", routeHandler("/api/tasks/:id", http.HandlerFunc(s.handleGetTask)))
	mux.Handle("POST /api/tasks/{id}/execute", routeHandler("/api/tasks/:id/execute", http.HandlerFunc(s.handleExecuteTask)))
	mux.Handle("POST /api/tasks/{id}/phase", routeHandler("/api/tasks/:id/phase", http.HandlerFunc(s.handleSetTaskPhase)))
	mux.Handle("GET /api/tasks/{id}/logs", routeHandler("/api/tasks/:id/logs", http.HandlerFunc(s.handleTaskLogs)))
	mux.Handle("POST /api/tasks/{id}/archive", routeHandler("/api/tasks/:id/archive", http.HandlerFunc(s.handleArchiveTask)))
	mux.Handle("POST /api/tasks/{id}/unarchive", routeHandler("/api/tasks/:id/unarchive", http.HandlerFunc(s.handleUnarchiveTask)))
	mux.Handle("POST /api/tasks/{id}/cancel", routeHandler("/api/tasks/:id/cancel", http.HandlerFunc(s.handleCancelTask)))
	mux.Handle("POST /api/tasks/{id}/retry", routeHandler("/api/tasks/:id/retry", http.HandlerFunc(s.handleRetryTask)))
	mux.Handle("GET /api/tasks/{id}/attachments", routeHandler("/api/tasks/:id/attachments", http.HandlerFunc(s.handleListAttachments)))
	mux.Handle("POST /api/tasks/{id}/attachments", routeHandler("/api/tasks/:id/attachments", http.HandlerFunc(s.handleCreateAttachment)))

	// ── Kanban ──
	mux.Handle("POST /api/kanban/columns/lock", routeHandler("/api/kanban/columns/lock", http.HandlerFunc(s.handleLockColumn)))
	mux.Handle("POST /api/kanban/ordering", routeHandler("/api/kanban/ordering", http.HandlerFunc(s.handleKanbanOrdering)))
	mux.Handle("POST /api/kanban/poker/start", routeHandler("/api/kanban/poker/start", http.HandlerFunc(s.handlePokerStart)))
	mux.Handle("POST /api/kanban/poker/vote", routeHandler("/api/kanban/poker/vote", http.HandlerFunc(s.handlePokerVote)))
	mux.Handle("POST /api/kanban/poker/reveal", routeHandler("/api/kanban/poker/reveal", http.HandlerFunc(s.handlePokerReveal)))
	mux.Handle("POST /api/kanban/poker/simulate", routeHandler("/api/kanban/poker/simulate", http.HandlerFunc(s.handlePokerSimulate)))
	mux.Handle("GET /api/kanban/poker/{id}", routeHandler("/api/kanban/poker/:id", http.HandlerFunc(s.handlePokerGet)))

	// ── Agents ──
	mux.Handle("GET /api/agents", routeHandler("/api/agents", http.HandlerFunc(s.handleListAgents)))
	mux.Handle("POST /api/agents/{id}/nudge", routeHandler("/api/agents/:id/nudge", http.HandlerFunc(s.handleNudgeAgent)))
	mux.Handle("POST /api/agents/{id}/stop", routeHandler("/api/agents/:id/stop", http.HandlerFunc(s.handleStopAgent)))

	// ── MCP ──
	mux.Handle("GET /api/mcp/servers", routeHandler("/api/mcp/servers", http.HandlerFunc(s.handleMCPServers)))
	mux.Handle("POST /api/mcp/tools/call", routeHandler("/api/mcp/tools/call", http.HandlerFunc(s.handleMCPToolCall)))

	// ── Worktrees ──
	mux.Handle("GET /api/worktrees", routeHandler("/api/worktrees", http.HandlerFunc(s.handleListWorktrees)))
	mux.Handle("GET /api/worktrees/{id}", routeHandler("/api/worktrees/:id", http.HandlerFunc(s.handleGetWorktree)))
	mux.Handle("POST /api/worktrees/{id}/merge", routeHandler("/api/worktrees/:id/merge", http.HandlerFunc(s.handleMergeWorktree)))
	mux.Handle("POST /api/worktrees/{id}/merge-preview", routeHandler("/api/worktrees/:id/merge-preview", http.HandlerFunc(s.handleMergePreview)))
	mux.Handle("POST /api/worktrees/{id}/resolve", routeHandler("/api/worktrees/:id/resolve", http.HandlerFunc(s.handleResolveWorktree)))

	// ── Queue ──
	mux.Handle("GET /api/queue", routeHandler("/api/queue", http.HandlerFunc(s.handleGetQueue)))
	mux.Handle("POST /api/queue/reorder", routeHandler("/api/queue/reorder", http.HandlerFunc(s.handleReorderQueue)))
	mux.Handle("POST /api/queue/{task_id}/prioritize", routeHandler("/api/queue/:task_id/prioritize", http.HandlerFunc(s.handlePrioritizeQueue)))

	// ── Settings / credentials ──
	mux.Handle("GET /api/settings/direct-mode", routeHandler("/api/settings/direct-mode", http.HandlerFunc(s.handleGetDirectMode)))
	mux.Handle("PUT /api/settings/direct-mode", routeHandler("/api/settings/direct-mode", http.HandlerFunc(s.handleSetDirectMode)))
	mux.Handle("GET /api/credentials/status", routeHandler("/api/credentials/status", http.HandlerFunc(s.handleCredentialsStatus)))

	// ── External pass-throughs ──
	mux.Handle("GET /api/github/issues", routeHandler("/api/github/issues", http.HandlerFunc(s.handleGitHubIssues)))
	mux.Handle("GET /api/gitlab/issues", routeHandler("/api/gitlab/issues", http.HandlerFunc(s.handleGitLabIssues)))
	mux.Handle("GET /api/linear/issues", routeHandler("/api/linear/issues", http.HandlerFunc(s.handleLinearIssues)))

	// ── Notifications / debug / sessions-ui ──
	mux.Handle("GET /api/notifications", routeHandler("/api/notifications", http.HandlerFunc(s.handleListNotifications)))
	mux.Handle("POST /api/notifications/{id}/ack", routeHandler("/api/notifications/:id/ack", http.HandlerFunc(s.handleAckNotification)))
	mux.Handle("GET /api/debug/memory", routeHandler("/api/debug/memory", http.HandlerFunc(s.handleDebugMemory)))
	mux.Handle("GET /api/folds/search", routeHandler("/api/folds/search", http.HandlerFunc(s.handleFoldSemanticSearch)))
	mux.Handle("GET /api/sessions/ui", routeHandler("/api/sessions/ui", http.HandlerFunc(s.handleSessionUI)))
	mux.Handle("PUT /api/sessions/ui", routeHandler("/api/sessions/ui", http.HandlerFunc(s.handleSetSessionUI)))
	mux.Handle("GET /api/sessions/ui/list", routeHandler("/api/sessions/ui/list", http.HandlerFunc(s.handleSessionUIList)))

	// ── WebSocket streams ──
	mux.Handle("GET /ws", routeHandler("/ws", http.HandlerFunc(s.handleWSFull)))
	mux.Handle("GET /api/events/ws", routeHandler("/api/events/ws", http.HandlerFunc(s.handleWSFiltered)))
	mux.Handle("GET /ws/terminal/{id}", routeHandler("/ws/terminal/:id", http.HandlerFunc(s.handleWSTerminal)))

	mux.Handle("GET /health", routeHandler("/health", http.HandlerFunc(s.handleHealth)))

	// ── Middleware stack (innermost first; CORS ends up outermost) ──
	var handler http.Handler = mux
	handler = TracingMiddleware(tracer)(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = CompressionMiddleware()(handler)
	handler = RequestTimeoutMiddleware(cfg.RequestTimeout)(handler)
	handler = RateLimitMiddleware(cfg.RateLimitPerMinute)(handler)
	handler = AuthMiddleware(cfg.AuthToken)(handler)
	handler = CORSMiddleware(cfg.AllowedOrigins)(handler)
	return handler
}

func routeHandler(route string, handler http.Handler) http.Handler {
	if route == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		annotateRequestRoute(r, route)
		handler.ServeHTTP(w, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
