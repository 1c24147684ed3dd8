package mention

import (
	"fmt"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// channelState is the per-channel lookup history.
type channelState struct {
	// seq serializes check-then-record sequences within the channel
	seq     sync.Mutex
	history *RecencyMap
}

// Timer tracks when tickets were last looked up in each channel and decides
// whether a ticket may be looked up again.
type Timer struct {
	capacity  int
	threshold time.Duration
	now       Clock

	mu       sync.Mutex
	channels map[string]*channelState
}

// NewTimer creates a Timer keeping up to capacity tickets per channel and
// suppressing repeat lookups for threshold.
func NewTimer(capacity int, threshold time.Duration, now Clock) (*Timer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid ticket cache size %d: %w", capacity, ErrInvalidCapacity)
	}
	if now == nil {
		now = time.Now
	}

	return &Timer{
		capacity:  capacity,
		threshold: threshold,
		now:       now,
		channels:  make(map[string]*channelState),
	}, nil
}

// channel returns the state for channelID, creating it on first use.
// Callers must hold t.mu.
func (t *Timer) channel(channelID string) *channelState {
	state, ok := t.channels[channelID]
	if !ok {
		// capacity was validated in NewTimer
		history, _ := NewRecencyMap(t.capacity)
		state = &channelState{history: history}
		t.channels[channelID] = state
	}
	return state
}

// Acquire locks channelID for a check-then-record sequence. The returned
// function releases the lock.
func (t *Timer) Acquire(channelID string) func() {
	t.mu.Lock()
	state := t.channel(channelID)
	t.mu.Unlock()

	state.seq.Lock()
	return state.seq.Unlock
}

// Check reports whether ticket may be looked up in channelID now. It does not
// record anything.
func (t *Timer) Check(channelID, ticket string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.channel(channelID).history.Get(ticket)
	if !ok {
		return true
	}
	return !t.now().Before(last.Add(t.threshold))
}

// Record stamps every ticket with the current time in channelID.
func (t *Timer) Record(channelID string, tickets []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	history := t.channel(channelID).history
	for _, ticket := range tickets {
		history.Set(ticket, now)
	}
}

// Tracked returns the tickets currently remembered for channelID, oldest
// first.
func (t *Timer) Tracked(channelID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.channels[channelID]
	if !ok {
		return nil
	}
	return state.history.Keys()
}
