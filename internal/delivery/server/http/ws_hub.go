package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"autotundra/internal/domain"
	"autotundra/internal/eventbus"
	"autotundra/internal/shared/logging"
)

const (
	wsPingInterval = 30 * time.Second
	wsIdleTimeout  = 5 * time.Minute
)

// wsHub upgrades and drives every WebSocket connection this surface
// serves, fanning C1 bus events out to each connected client.
type wsHub struct {
	bus      *eventbus.Bus
	log      logging.Logger
	upgrader websocket.Upgrader
}

func newWSHub(bus *eventbus.Bus, log logging.Logger) *wsHub {
	return &wsHub{
		bus: bus,
		log: logging.OrNop(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// filterFunc decides whether an event is forwarded to a given connection.
type filterFunc func(domain.DomainEvent) bool

// serve upgrades r, subscribes to the bus, and streams every event
// matching filter to the client as a JSON frame (or, if render is set,
// through render instead) until the client disconnects, the idle timeout
// elapses without a pong, or the server shuts the bus subscription down.
func (h *wsHub) serve(w http.ResponseWriter, r *http.Request, filter filterFunc, render func(domain.DomainEvent) ([]byte, bool)) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if h.bus == nil {
		return
	}
	sub := h.bus.Subscribe()
	defer sub.Unsubscribe()

	_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	})

	// Drain (and discard) client-initiated reads so pong control frames
	// are processed; the client->server direction carries no payload data
	// on these feeds.
	readErr := make(chan struct{})
	go func() {
		defer close(readErr)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if filter != nil && !filter(ev) {
				continue
			}
			var payload []byte
			if render != nil {
				rendered, keep := render(ev)
				if !keep {
					continue
				}
				payload = rendered
			} else {
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				payload = data
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readErr:
			return
		}
	}
}

func (s *server) handleWSFull(w http.ResponseWriter, r *http.Request) {
	s.wsHub.serve(w, r, nil, nil)
}

func (s *server) handleWSFiltered(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task_id")
	eventType := r.URL.Query().Get("type")
	filter := func(ev domain.DomainEvent) bool {
		if taskID != "" && ev.TaskID != taskID {
			return false
		}
		if eventType != "" && string(ev.Type) != eventType {
			return false
		}
		return true
	}
	s.wsHub.serve(w, r, filter, nil)
}

// handleWSTerminal streams the raw agent-output preview bytes the executor
// publishes for id's task as plain text frames, approximating raw PTY I/O
// over the wire (the executor keeps the live PTY handle in-process; this
// is the public projection of that stream).
func (s *server) handleWSTerminal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	filter := func(ev domain.DomainEvent) bool {
		return ev.TaskID == id && ev.Type == domain.EventCustom && ev.CustomType == "agent_output"
	}
	render := func(ev domain.DomainEvent) ([]byte, bool) {
		if ev.Message == "" {
			return nil, false
		}
		return []byte(ev.Message), true
	}
	s.wsHub.serve(w, r, filter, render)
}
