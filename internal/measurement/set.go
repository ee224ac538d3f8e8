package measurement

import (
	"fmt"
	"sync"
)

// Set holds the measurements of a session in creation order
type Set struct {
	mu    sync.RWMutex
	items map[Ref]*Measurement
	order []Ref
}

// NewSet creates an empty set
func NewSet() *Set {
	return &Set{items: make(map[Ref]*Measurement)}
}

// Add stores m. Adding an existing ref fails.
func (s *Set) Add(m *Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[m.Ref]; exists {
		return fmt.Errorf("measurement %s already exists", m.Ref)
	}
	s.items[m.Ref] = m
	s.order = append(s.order, m.Ref)
	return nil
}

// Remove deletes the measurement for ref and reports whether it existed
func (s *Set) Remove(ref Ref) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[ref]; !ok {
		return false
	}
	delete(s.items, ref)
	for i, r := range s.order {
		if r == ref {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the measurement for ref
func (s *Set) Get(ref Ref) (*Measurement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.items[ref]
	return m, ok
}

// List returns all measurements in creation order
func (s *Set) List() []*Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*Measurement, 0, len(s.order))
	for _, r := range s.order {
		list = append(list, s.items[r])
	}
	return list
}

// Len returns the number of measurements
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Clear removes every measurement
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[Ref]*Measurement)
	s.order = nil
}
