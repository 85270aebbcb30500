// Package observability tracks which slots queries touch and how often
// they match, for tuning bloom sizing and spotting hot columns.
package observability

import (
	"sort"
	"sync"
	"time"
)

// SlotStats tracks per-slot query frequency.
type SlotStats struct {
	mu    sync.RWMutex
	slots map[string]*SlotUsage
	total int64
}

// SlotUsage holds the query counters for one slot name.
type SlotUsage struct {
	Slot      string
	Queries   int64
	Matches   int64
	Operators map[string]int
	LastSeen  time.Time
}

// NewSlotStats creates an empty tracker.
func NewSlotStats() *SlotStats {
	return &SlotStats{slots: make(map[string]*SlotUsage)}
}

// Record notes one query against slot with the given operator and match
// count. O(1) and safe for concurrent use.
func (s *SlotStats) Record(slot, operator string, matched int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.slots[slot]
	if !ok {
		u = &SlotUsage{Slot: slot, Operators: make(map[string]int)}
		s.slots[slot] = u
	}
	u.Queries++
	u.Matches += int64(matched)
	u.Operators[operator]++
	u.LastSeen = time.Now()
	s.total++
}

// TotalQueries returns the number of queries recorded.
func (s *SlotStats) TotalQueries() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// TopSlots returns the n most queried slots, most frequent first. The
// returned records are copies.
func (s *SlotStats) TopSlots(n int) []SlotUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || len(s.slots) == 0 {
		return []SlotUsage{}
	}
	out := make([]SlotUsage, 0, len(s.slots))
	for _, u := range s.slots {
		c := SlotUsage{
			Slot:      u.Slot,
			Queries:   u.Queries,
			Matches:   u.Matches,
			Operators: make(map[string]int, len(u.Operators)),
			LastSeen:  u.LastSeen,
		}
		for op, cnt := range u.Operators {
			c.Operators[op] = cnt
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Queries != out[j].Queries {
			return out[i].Queries > out[j].Queries
		}
		return out[i].Slot < out[j].Slot
	})
	if n > len(out) {
		n = len(out)
	}
	return out[:n]
}
