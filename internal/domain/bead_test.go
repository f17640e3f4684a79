package domain

import "testing"

func TestCanTransitionBead(t *testing.T) {
	if !CanTransitionBead(BeadBacklog, BeadHooked) {
		t.Fatalf("backlog -> hooked should be legal")
	}
	if CanTransitionBead(BeadBacklog, BeadDone) {
		t.Fatalf("backlog -> done should not be legal")
	}
	if CanTransitionBead(BeadDone, BeadBacklog) {
		t.Fatalf("done is terminal, should have no outgoing edges")
	}
}

func TestQaReportNextPhase(t *testing.T) {
	cases := map[QaStatus]TaskPhase{
		QaPassed:  PhaseMerging,
		QaFailed:  PhaseFixing,
		QaPending: PhaseQA,
	}
	for status, want := range cases {
		r := &QaReport{Status: status}
		if got := r.NextPhase(); got != want {
			t.Errorf("QaReport{Status: %s}.NextPhase() = %s, want %s", status, got, want)
		}
	}
}

func TestPlanningPokerSessionAllVoted(t *testing.T) {
	s := &PlanningPokerSession{Participants: []string{"a", "b"}}
	if s.AllVoted() {
		t.Fatalf("no votes cast, AllVoted should be false")
	}
	s.Votes = append(s.Votes, PokerVote{ParticipantID: "a", Value: "3"})
	if s.AllVoted() {
		t.Fatalf("only one of two participants voted, AllVoted should be false")
	}
	s.Votes = append(s.Votes, PokerVote{ParticipantID: "b", Value: "5"})
	if !s.AllVoted() {
		t.Fatalf("both participants voted, AllVoted should be true")
	}
}
