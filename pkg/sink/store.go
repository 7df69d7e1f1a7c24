// Package sink is a development receiver for the qrscan form POST. It keeps
// the most recent submissions in memory so they can be inspected over HTTP.
package sink

import (
	"sync"
	"time"
)

// DefaultLimit is the number of submissions kept by a Store.
const DefaultLimit = 100

// Submission is one received form POST.
type Submission struct {
	ID            string    `json:"id"`
	Data          string    `json:"data"`
	WarehouseCode string    `json:"warehouseCode"`
	Products      []string  `json:"products"`
	RemoteAddr    string    `json:"remoteAddr,omitempty"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

// Store is a bounded, concurrency-safe ring of submissions.
type Store struct {
	mu    sync.Mutex
	limit int
	items []Submission
}

// NewStore creates a store keeping at most limit submissions.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{limit: limit}
}

// Add appends sub, evicting the oldest entry when full.
func (s *Store) Add(sub Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == s.limit {
		copy(s.items, s.items[1:])
		s.items = s.items[:len(s.items)-1]
	}
	s.items = append(s.items, sub)
}

// List returns the stored submissions, oldest first.
func (s *Store) List() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Submission, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of stored submissions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
