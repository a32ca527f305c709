package utils

import "sync"

// IDSet is a thread-safe set of document ids. The stores use it to track
// which rows changed since a consumer last drained the set.
type IDSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewIDSet creates an empty IDSet.
func NewIDSet() *IDSet {
	return &IDSet{ids: make(map[string]struct{})}
}

// Add inserts the given ids, ignoring ones already present.
func (s *IDSet) Add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Contains returns true if the id is in the set.
func (s *IDSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Drain returns the current contents and empties the set.
func (s *IDSet) Drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	s.ids = make(map[string]struct{})
	return out
}

// Size returns the number of ids tracked.
func (s *IDSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
