// Package mention turns chat messages that reference JIRA tickets into
// summary replies, rate limited per channel and ticket.
package mention

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCapacity is returned when a recency map is created with a
// capacity below one.
var ErrInvalidCapacity = errors.New("capacity must be greater than zero")

// RecencyMap maps ticket keys to the time they were last looked up. It holds
// at most capacity entries and evicts in insertion order: updating an
// existing key keeps its position. It is not safe for concurrent use.
type RecencyMap struct {
	capacity int
	order    []string
	entries  map[string]time.Time
}

// NewRecencyMap creates an empty map holding at most capacity entries.
func NewRecencyMap(capacity int) (*RecencyMap, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid recency map capacity %d: %w", capacity, ErrInvalidCapacity)
	}

	return &RecencyMap{
		capacity: capacity,
		order:    make([]string, 0, capacity+1),
		entries:  make(map[string]time.Time, capacity+1),
	}, nil
}

// Get returns the timestamp stored for key.
func (m *RecencyMap) Get(key string) (time.Time, bool) {
	ts, ok := m.entries[key]
	return ts, ok
}

// Set stores ts for key and evicts the oldest entries while the map is over
// capacity.
func (m *RecencyMap) Set(key string, ts time.Time) {
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = ts

	for len(m.order) > m.capacity {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
}

// Len returns the number of stored entries.
func (m *RecencyMap) Len() int {
	return len(m.order)
}

// Keys returns the stored keys, oldest first.
func (m *RecencyMap) Keys() []string {
	keys := make([]string, len(m.order))
	copy(keys, m.order)
	return keys
}
