package notification

import (
	"strings"
	"sync"
)

// Stats counts outcomes per mail kind since start.
type Stats struct {
	mu       sync.Mutex
	sent     map[string]int
	requeued int
	dropped  int
}

func NewStats() *Stats {
	return &Stats{sent: map[string]int{}}
}

func (s *Stats) record(kind string, o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch o {
	case Ack:
		s.sent[strings.TrimPrefix(kind, "mail.")]++
	case Requeue:
		s.requeued++
	default:
		s.dropped++
	}
}

type StatsSnapshot struct {
	Sent     map[string]int `json:"sent"`
	Total    int            `json:"total_sent"`
	Requeued int            `json:"requeued"`
	Dropped  int            `json:"dropped"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{Sent: map[string]int{}, Requeued: s.requeued, Dropped: s.dropped}
	for k, v := range s.sent {
		snap.Sent[k] = v
		snap.Total += v
	}
	return snap
}
