package mention

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTimerCheckAndRecord(t *testing.T) {
	clock := newFakeClock()
	timer, err := NewTimer(5, 900*time.Second, clock.Now)
	require.NoError(t, err)

	assert.True(t, timer.Check("C1", "TICK-1"), "unseen ticket is eligible")

	timer.Record("C1", []string{"TICK-1"})
	assert.False(t, timer.Check("C1", "TICK-1"), "recorded ticket is suppressed")
	assert.True(t, timer.Check("C2", "TICK-1"), "suppression is per channel")
	assert.True(t, timer.Check("C1", "TICK-2"), "suppression is per ticket")

	clock.Advance(899 * time.Second)
	assert.False(t, timer.Check("C1", "TICK-1"))

	clock.Advance(time.Second)
	assert.True(t, timer.Check("C1", "TICK-1"), "eligible again once the threshold has passed")
}

func TestTimerCheckDoesNotRecord(t *testing.T) {
	timer, err := NewTimer(5, time.Minute, newFakeClock().Now)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.True(t, timer.Check("C1", "TICK-1"))
	}
	assert.Empty(t, timer.Tracked("C1"))
}

func TestTimerCapacityPressureLiftsSuppression(t *testing.T) {
	timer, err := NewTimer(2, time.Hour, newFakeClock().Now)
	require.NoError(t, err)

	timer.Record("C1", []string{"TICK-1", "TICK-2", "TICK-3"})

	assert.Equal(t, []string{"TICK-2", "TICK-3"}, timer.Tracked("C1"))
	assert.True(t, timer.Check("C1", "TICK-1"), "evicted ticket is eligible again")
	assert.False(t, timer.Check("C1", "TICK-3"))
}

func TestNewTimerRejectsInvalidCapacity(t *testing.T) {
	_, err := NewTimer(0, time.Minute, nil)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestTimerAcquireSerializesChannel(t *testing.T) {
	timer, err := NewTimer(5, time.Minute, newFakeClock().Now)
	require.NoError(t, err)

	release := timer.Acquire("C1")

	acquired := make(chan struct{})
	go func() {
		r := timer.Acquire("C1")
		close(acquired)
		r()
	}()

	// another channel is not blocked
	timer.Acquire("C2")()

	select {
	case <-acquired:
		t.Fatal("second acquire of the same channel did not block")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire did not proceed after release")
	}
}
