// Package poker implements the planning-poker estimation lifecycle that
// sits behind the kanban board's /kanban/poker/* surface (C9): starting a
// round over a bead, collecting votes, revealing, and — for load-testing
// and demos — simulating a full round of synthetic agent votes from a
// seed so callers can replay the exact same outcome.
package poker

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"autotundra/internal/domain"
	sharederrors "autotundra/internal/shared/errors"
	"autotundra/internal/shared/logging"
)

// DefaultDeck is the built-in Fibonacci-like estimation deck used when a
// session doesn't specify one, mirroring the teacher's config-driven
// deck default ("fibonacci").
var DefaultDeck = domain.PokerDeck{
	Name:   "fibonacci",
	Values: []string{"0", "1", "2", "3", "5", "8", "13", "21", "?"},
}

// Service owns every live PlanningPokerSession, keyed by its ID.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*domain.PlanningPokerSession
	log      logging.Logger
}

// New constructs an empty Service.
func New(log logging.Logger) *Service {
	return &Service{
		sessions: make(map[string]*domain.PlanningPokerSession),
		log:      logging.OrNop(log),
	}
}

// Start opens a new round over beadID with the given deck (DefaultDeck if
// deck.Values is empty) and participant list.
func (s *Service) Start(beadID string, deck domain.PokerDeck, participants []string) *domain.PlanningPokerSession {
	if len(deck.Values) == 0 {
		deck = DefaultDeck
	}
	session := &domain.PlanningPokerSession{
		ID:           uuid.NewString(),
		BeadID:       beadID,
		Deck:         deck,
		Status:       domain.PokerOpen,
		Participants: participants,
		CreatedAt:    time.Now(),
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	s.log.Info("poker round started", "session_id", session.ID, "bead_id", beadID, "participants", len(participants))
	return session
}

// Get returns the session registered under id, if any.
func (s *Service) Get(id string) (*domain.PlanningPokerSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	return session, ok
}

// List returns every session currently held, in no particular order.
func (s *Service) List() []*domain.PlanningPokerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.PlanningPokerSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

// Vote records participantID's vote against one of deck's values. Fails
// with a ConflictError if the round isn't Open, or a ValidationError if
// value isn't in the deck.
func (s *Service) Vote(id, participantID, value string) (*domain.PlanningPokerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, sharederrors.NewNotFoundError("poker session not found: " + id)
	}
	if session.Status != domain.PokerOpen {
		return nil, sharederrors.NewConflictError("poker session is not open for voting")
	}
	if !deckContains(session.Deck, value) {
		return nil, sharederrors.NewValidationError("vote value not in deck: " + value)
	}
	for i, v := range session.Votes {
		if v.ParticipantID == participantID {
			session.Votes[i].Value = value
			return session, nil
		}
	}
	session.Votes = append(session.Votes, domain.PokerVote{ParticipantID: participantID, Value: value})
	return session, nil
}

// Reveal closes voting and computes the consensus card + stats. Fails with
// a ConflictError if no votes were cast.
func (s *Service) Reveal(id string) (*domain.PlanningPokerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, sharederrors.NewNotFoundError("poker session not found: " + id)
	}
	if session.Status == domain.PokerClosed {
		return nil, sharederrors.NewConflictError("poker session already closed")
	}
	if len(session.Votes) == 0 {
		return nil, sharederrors.NewConflictError("cannot reveal a round with no votes")
	}
	applyReveal(session)
	return session, nil
}

// Simulate runs a full synthetic round: it opens a new session for beadID
// (an existing session is never reused), casts agentCount votes deterministically derived from seed, and
// optionally reveals it. Identical (beadID, agentCount, seed) inputs always
// produce identical votes and consensus_card, regardless of call order or
// wall-clock time, since the vote sequence is pure function of the seed.
func (s *Service) Simulate(beadID string, agentCount int, seed int64, autoReveal bool) *domain.PlanningPokerSession {
	if agentCount <= 0 {
		agentCount = 5
	}
	deck := DefaultDeck
	session := &domain.PlanningPokerSession{
		ID:           uuid.NewString(),
		BeadID:       beadID,
		Deck:         deck,
		Status:       domain.PokerOpen,
		Participants: make([]string, agentCount),
		Seed:         &seed,
		CreatedAt:    time.Now(),
	}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < agentCount; i++ {
		participant := fmt.Sprintf("sim-agent-%d", i+1)
		session.Participants[i] = participant
		value := deck.Values[rng.Intn(len(deck.Values))]
		session.Votes = append(session.Votes, domain.PokerVote{ParticipantID: participant, Value: value})
	}

	if autoReveal {
		applyReveal(session)
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	s.log.Info("poker round simulated", "session_id", session.ID, "bead_id", beadID, "agent_count", agentCount, "seed", seed)
	return session
}

// applyReveal computes vote_counts, agreement, and the consensus card (the
// plurality value, ties broken by first occurrence in the deck's value
// order so the result is stable for a given vote multiset) and transitions
// the session to Revealed.
func applyReveal(session *domain.PlanningPokerSession) {
	counts := make(map[string]int, len(session.Deck.Values))
	for _, v := range session.Votes {
		counts[v.Value]++
	}

	var consensus string
	best := -1
	for _, value := range session.Deck.Values {
		if c := counts[value]; c > best {
			best = c
			consensus = value
		}
	}
	if consensus == "" && len(session.Votes) > 0 {
		consensus = session.Votes[0].Value
		best = counts[consensus]
	}

	agreement := 0.0
	if len(session.Votes) > 0 {
		agreement = float64(best) / float64(len(session.Votes))
	}

	now := time.Now()
	session.Status = domain.PokerRevealed
	session.ConsensusCard = consensus
	session.Result = &consensus
	session.Stats = &domain.PokerStats{VoteCounts: counts, Agreement: agreement}
	session.RevealedAt = &now
}

func deckContains(deck domain.PokerDeck, value string) bool {
	for _, v := range deck.Values {
		if v == value {
			return true
		}
	}
	return false
}
