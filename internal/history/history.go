// Package history keeps the most recent predictions in memory.
package history

import (
	"sync"
	"time"
)

// DefaultSize is the number of predictions retained.
const DefaultSize = 50

// Entry is one recorded prediction.
type Entry struct {
	Timestamp             time.Time `json:"timestamp"`
	Flight                string    `json:"flight"`
	Date                  string    `json:"date,omitempty"`
	DepartureTime         string    `json:"departureTime,omitempty"`
	ArrivalTime           string    `json:"arrivalTime,omitempty"`
	DepartureDelayMinutes float64   `json:"departureDelay"`
	DepartureProbability  float64   `json:"departureProbability"`
	ArrivalDelayMinutes   float64   `json:"arrivalDelay"`
	ArrivalProbability    float64   `json:"arrivalProbability"`
}

// Ring is a fixed-size, concurrency-safe buffer of entries.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewRing creates a ring holding up to size entries.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultSize
	}
	return &Ring{entries: make([]Entry, size)}
}

// Add records an entry, evicting the oldest when full.
func (r *Ring) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
}

// Len returns the number of stored entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.len()
}

func (r *Ring) len() int {
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Recent returns up to limit of the newest entries, oldest first. A
// non-positive limit returns everything.
func (r *Ring) Recent(limit int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.len()
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Entry, limit)
	start := r.next - limit
	if start < 0 {
		start += len(r.entries)
	}
	for i := range out {
		out[i] = r.entries[(start+i)%len(r.entries)]
	}
	return out
}
