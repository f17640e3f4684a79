package http

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	sharederrors "autotundra/internal/shared/errors"
)

// Notification is a single UI-facing alert (task completed, budget warning,
// merge conflict, ...), held in-memory for the life of the process — this
// is ApiState's notification_store, kept as a plain map the way the
// teacher's in-process session state is.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type notificationStore struct {
	mu   sync.Mutex
	byID map[string]*Notification
}

func newNotificationStore() *notificationStore {
	return &notificationStore{byID: make(map[string]*Notification)}
}

func (s *notificationStore) list() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Notification, 0, len(s.byID))
	for _, n := range s.byID {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *notificationStore) ack(id string) (*Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	n.Read = true
	return n, true
}

func (s *server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.notifications.list())
}

func (s *server) handleAckNotification(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n, ok := s.notifications.ack(id)
	if !ok {
		writeError(w, sharederrors.NewNotFoundError("notification not found: "+id))
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// publishNotification is called by the handlers that create
// operator-visible alerts (budget denials, merge conflicts), and lives here
// alongside the store it writes to.
func (s *server) publishNotification(kind, message string) {
	s.notifications.mu.Lock()
	defer s.notifications.mu.Unlock()
	id := uuid.NewString()
	s.notifications.byID[id] = &Notification{ID: id, Kind: kind, Message: message, CreatedAt: time.Now()}
}

// sessionUIStore holds arbitrary client-defined UI session state (panel
// layout, last-viewed task, filters) keyed by an opaque session key the
// client supplies. It has no schema — this is presentation state, not
// domain state.
type sessionUIStore struct {
	mu    sync.Mutex
	byKey map[string]json.RawMessage
}

func newSessionUIStore() *sessionUIStore {
	return &sessionUIStore{byKey: make(map[string]json.RawMessage)}
}

func (s *server) handleSessionUI(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		key = "default"
	}
	s.sessionsUI.mu.Lock()
	state, ok := s.sessionsUI.byKey[key]
	s.sessionsUI.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(state)
}

func (s *server) handleSetSessionUI(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		key = "default"
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, sharederrors.NewValidationError("invalid request body"))
		return
	}
	s.sessionsUI.mu.Lock()
	s.sessionsUI.byKey[key] = raw
	s.sessionsUI.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

func (s *server) handleSessionUIList(w http.ResponseWriter, r *http.Request) {
	s.sessionsUI.mu.Lock()
	keys := make([]string, 0, len(s.sessionsUI.byKey))
	for k := range s.sessionsUI.byKey {
		keys = append(keys, k)
	}
	s.sessionsUI.mu.Unlock()
	sort.Strings(keys)
	writeJSON(w, http.StatusOK, keys)
}
