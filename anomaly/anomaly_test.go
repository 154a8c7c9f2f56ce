package anomaly

import (
	"fmt"
	"testing"
	"time"

	"github.com/corvidlabs/authgate/session"
)

func makeSessions(n int, fn func(i int, s *session.Session)) []*session.Session {
	now := time.Now()
	out := make([]*session.Session, 0, n)
	for i := 0; i < n; i++ {
		s := &session.Session{
			ID:          fmt.Sprintf("sid-%d", i),
			PrincipalID: "u-1",
			IPAddress:   "203.0.113.1",
			UserAgent:   "agent-a",
			CreatedAt:   now.Add(-24 * time.Hour),
			ExpiresAt:   now.Add(time.Hour),
			Active:      true,
		}
		if fn != nil {
			fn(i, s)
		}
		out = append(out, s)
	}
	return out
}

func hasSignal(signals []Signal, want Signal) bool {
	for _, s := range signals {
		if s == want {
			return true
		}
	}
	return false
}

func TestEvaluateQuietSetProducesNoSignals(t *testing.T) {
	d := NewDetector(Thresholds{})
	signals := d.Evaluate(makeSessions(3, nil), time.Now())
	if len(signals) != 0 {
		t.Fatalf("expected no signals, got %v", signals)
	}
	if got := d.Evaluate(nil, time.Now()); got != nil {
		t.Fatalf("nil session set should produce no signals, got %v", got)
	}
}

func TestEvaluateHighSessionCount(t *testing.T) {
	d := NewDetector(Thresholds{})
	signals := d.Evaluate(makeSessions(11, nil), time.Now())
	if !hasSignal(signals, SignalHighSessionCount) {
		t.Fatalf("expected high session count signal, got %v", signals)
	}

	signals = d.Evaluate(makeSessions(10, nil), time.Now())
	if hasSignal(signals, SignalHighSessionCount) {
		t.Fatalf("exactly the ceiling should not fire, got %v", signals)
	}
}

func TestEvaluateMultipleLocations(t *testing.T) {
	d := NewDetector(Thresholds{})
	sessions := makeSessions(4, func(i int, s *session.Session) {
		s.IPAddress = fmt.Sprintf("203.0.113.%d", i+1)
	})
	signals := d.Evaluate(sessions, time.Now())
	if !hasSignal(signals, SignalMultipleLocations) {
		t.Fatalf("expected multiple locations signal, got %v", signals)
	}
}

func TestEvaluateRapidCreation(t *testing.T) {
	d := NewDetector(Thresholds{})
	now := time.Now()
	sessions := makeSessions(6, func(i int, s *session.Session) {
		s.CreatedAt = now.Add(-time.Duration(i) * time.Minute)
	})
	signals := d.Evaluate(sessions, now)
	if !hasSignal(signals, SignalRapidCreation) {
		t.Fatalf("expected rapid creation signal, got %v", signals)
	}

	// Same set, but only the creations inside the window count.
	old := makeSessions(6, nil)
	if got := d.Evaluate(old, now); hasSignal(got, SignalRapidCreation) {
		t.Fatalf("old creations should not fire, got %v", got)
	}
}

func TestEvaluateManyUserAgents(t *testing.T) {
	d := NewDetector(Thresholds{})
	sessions := makeSessions(6, func(i int, s *session.Session) {
		s.UserAgent = fmt.Sprintf("agent-%d", i)
	})
	signals := d.Evaluate(sessions, time.Now())
	if !hasSignal(signals, SignalManyUserAgents) {
		t.Fatalf("expected many user agents signal, got %v", signals)
	}
}

func TestEvaluateCustomThresholds(t *testing.T) {
	d := NewDetector(Thresholds{MaxSessions: 2})
	signals := d.Evaluate(makeSessions(3, nil), time.Now())
	if !hasSignal(signals, SignalHighSessionCount) {
		t.Fatalf("expected custom ceiling to fire, got %v", signals)
	}
}
