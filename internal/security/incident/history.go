package incident

import (
	"sync"
	"time"
)

// History tracks recent incident timestamps per client IP over a sliding
// window. The threat-intel gate consults it to decide whether an IP has
// enough local signal to justify an external reputation lookup.
type History struct {
	mu     sync.Mutex
	window time.Duration
	events map[string][]time.Time
}

// NewHistory creates a history with the given trailing window.
func NewHistory(window time.Duration) *History {
	return &History{
		window: window,
		events: make(map[string][]time.Time),
	}
}

// Record notes one incident for ip at time t.
func (h *History) Record(ip string, t time.Time) {
	if ip == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[ip] = append(h.prune(h.events[ip], t), t)
}

// CountRecent returns how many incidents ip accumulated within the trailing
// window ending at now.
func (h *History) CountRecent(ip string, now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	pruned := h.prune(h.events[ip], now)
	if len(pruned) == 0 {
		delete(h.events, ip)
	} else {
		h.events[ip] = pruned
	}
	return len(pruned)
}

// Sweep drops every IP whose events all fell out of the window. Called
// periodically so the map does not grow with distinct-IP cardinality.
func (h *History) Sweep(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ip, times := range h.events {
		pruned := h.prune(times, now)
		if len(pruned) == 0 {
			delete(h.events, ip)
		} else {
			h.events[ip] = pruned
		}
	}
}

func (h *History) prune(times []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-h.window)
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}
