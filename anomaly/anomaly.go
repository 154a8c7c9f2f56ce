// Package anomaly evaluates a principal's active session set for signs of
// account compromise. Evaluation is pure; callers collect the session set
// and decide what to do with the resulting signals.
package anomaly

import (
	"time"

	"github.com/corvidlabs/authgate/session"
)

// Signal names a suspicious pattern found in a session set.
type Signal string

const (
	// SignalHighSessionCount fires when a principal holds more concurrent
	// sessions than the configured ceiling.
	SignalHighSessionCount Signal = "high_session_count"
	// SignalMultipleLocations fires when sessions originate from more
	// distinct IP addresses than the configured ceiling.
	SignalMultipleLocations Signal = "multiple_geographic_locations"
	// SignalRapidCreation fires when too many sessions were created inside
	// the recent-creation window.
	SignalRapidCreation Signal = "rapid_session_creation"
	// SignalManyUserAgents fires when sessions span more distinct user
	// agents than the configured ceiling.
	SignalManyUserAgents Signal = "many_user_agents"
)

// Thresholds configures the detector. A zero value for any field falls back
// to the default for that field.
type Thresholds struct {
	// MaxSessions is the largest unsuspicious concurrent session count.
	MaxSessions int
	// MaxDistinctIPs is the largest unsuspicious distinct-IP count.
	MaxDistinctIPs int
	// MaxRecentCreations is the largest unsuspicious number of sessions
	// created within RecentWindow.
	MaxRecentCreations int
	// MaxUserAgents is the largest unsuspicious distinct user agent count.
	MaxUserAgents int
	// RecentWindow is the lookback used for MaxRecentCreations.
	RecentWindow time.Duration
}

// DefaultThresholds returns the detector defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxSessions:        10,
		MaxDistinctIPs:     3,
		MaxRecentCreations: 5,
		MaxUserAgents:      5,
		RecentWindow:       time.Hour,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.MaxSessions <= 0 {
		t.MaxSessions = d.MaxSessions
	}
	if t.MaxDistinctIPs <= 0 {
		t.MaxDistinctIPs = d.MaxDistinctIPs
	}
	if t.MaxRecentCreations <= 0 {
		t.MaxRecentCreations = d.MaxRecentCreations
	}
	if t.MaxUserAgents <= 0 {
		t.MaxUserAgents = d.MaxUserAgents
	}
	if t.RecentWindow <= 0 {
		t.RecentWindow = d.RecentWindow
	}
	return t
}

// Detector evaluates session sets against a set of thresholds.
type Detector struct {
	thresholds Thresholds
}

// NewDetector creates a Detector, filling unset thresholds with defaults.
func NewDetector(t Thresholds) *Detector {
	return &Detector{thresholds: t.withDefaults()}
}

// Evaluate inspects the session set and returns every signal that fires.
// The order of the returned signals is fixed. An empty or nil session set
// produces no signals.
func (d *Detector) Evaluate(sessions []*session.Session, now time.Time) []Signal {
	if len(sessions) == 0 {
		return nil
	}

	ips := make(map[string]struct{})
	agents := make(map[string]struct{})
	recent := 0
	cutoff := now.Add(-d.thresholds.RecentWindow)

	for _, s := range sessions {
		if s.IPAddress != "" {
			ips[s.IPAddress] = struct{}{}
		}
		if s.UserAgent != "" {
			agents[s.UserAgent] = struct{}{}
		}
		if s.CreatedAt.After(cutoff) {
			recent++
		}
	}

	var signals []Signal
	if len(sessions) > d.thresholds.MaxSessions {
		signals = append(signals, SignalHighSessionCount)
	}
	if len(ips) > d.thresholds.MaxDistinctIPs {
		signals = append(signals, SignalMultipleLocations)
	}
	if recent > d.thresholds.MaxRecentCreations {
		signals = append(signals, SignalRapidCreation)
	}
	if len(agents) > d.thresholds.MaxUserAgents {
		signals = append(signals, SignalManyUserAgents)
	}
	return signals
}
