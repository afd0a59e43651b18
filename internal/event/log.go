package event

import (
	"fmt"
	"time"
)

// Log is an ordered sequence of events. Index order is capture order and
// replay order.
type Log []Event

// Clone returns an independent copy of l.
func (l Log) Clone() Log {
	if l == nil {
		return nil
	}
	out := make(Log, len(l))
	copy(out, l)
	return out
}

// Span returns the sum of all durations, i.e. the time one replay pass waits.
func (l Log) Span() time.Duration {
	var total time.Duration
	for _, e := range l {
		total += e.Duration
	}
	return total
}

// Validate checks every event and the first-event duration invariant.
func (l Log) Validate() error {
	for i, e := range l {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	if len(l) > 0 && l[0].Duration != 0 {
		return fmt.Errorf("event 0: first event must have zero duration, got %s", l[0].Duration)
	}
	return nil
}

// Stats summarises a log.
type Stats struct {
	Events    int            `json:"events"`
	PerAction map[Action]int `json:"per_action"`
	Span      time.Duration  `json:"span"`
	Longest   time.Duration  `json:"longest_gap"`
}

// Stats counts events per action and measures the recorded span.
func (l Log) Stats() Stats {
	s := Stats{
		Events:    len(l),
		PerAction: make(map[Action]int),
	}
	for _, e := range l {
		s.PerAction[e.Action]++
		s.Span += e.Duration
		if e.Duration > s.Longest {
			s.Longest = e.Duration
		}
	}
	return s
}
