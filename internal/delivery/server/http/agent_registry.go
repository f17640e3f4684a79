package http

import (
	"sync"
	"time"

	"autotundra/internal/domain"
	"autotundra/internal/eventbus"
	"autotundra/internal/shared/logging"
)

// agentRegistry mirrors live agent state off the C1 event bus so GET
// /api/agents has something to list without C9 owning agent lifecycle
// itself — the executor is the source of truth, this is a read cache.
type agentRegistry struct {
	mu     sync.RWMutex
	agents map[string]domain.Agent
	log    logging.Logger
}

func newAgentRegistry(bus *eventbus.Bus, log logging.Logger) *agentRegistry {
	reg := &agentRegistry{agents: make(map[string]domain.Agent), log: logging.OrNop(log)}
	if bus == nil {
		return reg
	}
	sub := bus.Subscribe()
	go reg.consume(sub)
	return reg
}

func (r *agentRegistry) consume(sub *eventbus.Subscription) {
	for ev := range sub.Events() {
		if ev.Type != domain.EventAgentStatusChanged || ev.AgentID == "" {
			continue
		}
		r.mu.Lock()
		agent := r.agents[ev.AgentID]
		agent.ID = ev.AgentID
		agent.LastSeen = time.Now()
		if ev.Message != "" {
			agent.Status = domain.AgentStatus(ev.Message)
		}
		r.agents[ev.AgentID] = agent
		r.mu.Unlock()
	}
}

func (r *agentRegistry) list() []domain.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out
}

func (r *agentRegistry) get(id string) (domain.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	return a, ok
}
