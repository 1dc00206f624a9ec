package ratelimit

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
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
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

func newTestLimiter(max int, window time.Duration) (*Limiter, *fakeClock) {
	clock := newFakeClock()
	l := New(max, window)
	l.SetClock(clock.Now)
	return l, clock
}

func TestAdmitExhaustsAndRecovers(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	require.True(t, l.CanRequest())
	ok, remaining, _ := l.Admit()
	require.True(t, ok)
	assert.Equal(t, 1, remaining)

	require.True(t, l.CanRequest())
	ok, remaining, _ = l.Admit()
	require.True(t, ok)
	assert.Equal(t, 0, remaining)

	assert.False(t, l.CanRequest())
	assert.Equal(t, 0, l.Remaining())

	ok, _, eta := l.Admit()
	require.False(t, ok)
	assert.Equal(t, time.Minute, eta)

	clock.Advance(61 * time.Second)
	assert.True(t, l.CanRequest())
	assert.Equal(t, 2, l.Remaining())
}

func TestRemainingNeverNegativeNorAboveMax(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)

	for i := 0; i < 10; i++ {
		l.Admit()
	}
	assert.Equal(t, 0, l.Remaining())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 3, l.Remaining())

	// Repeated reads with no elapsed time and no records are idempotent.
	first := l.Remaining()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, l.Remaining())
		assert.True(t, l.CanRequest())
	}
}

func TestWindowSlidesPerEntry(t *testing.T) {
	l, clock := newTestLimiter(2, time.Hour)

	ok, _, _ := l.Admit()
	require.True(t, ok)
	clock.Advance(30 * time.Minute)
	ok, _, _ = l.Admit()
	require.True(t, ok)

	// Quota exhausted; the first entry expires before the second.
	assert.False(t, l.CanRequest())
	eta, found := l.ResetETA()
	require.True(t, found)
	assert.Equal(t, 30*time.Minute, eta)

	clock.Advance(30 * time.Minute)
	assert.True(t, l.CanRequest())
	assert.Equal(t, 1, l.Remaining())
}

func TestResetETAEmptyWindow(t *testing.T) {
	l, _ := newTestLimiter(5, time.Hour)
	_, found := l.ResetETA()
	assert.False(t, found)
}

func TestAdmitLastSlotUnderContention(t *testing.T) {
	l, _ := newTestLimiter(5, time.Hour)
	for i := 0; i < 4; i++ {
		ok, _, _ := l.Admit()
		require.True(t, ok)
	}

	// Exactly one slot left; exactly one of the concurrent callers may win.
	const callers = 16
	var wg sync.WaitGroup
	var admitted sync.Map
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			<-start
			if ok, _, _ := l.Admit(); ok {
				admitted.Store(id, true)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	count := 0
	admitted.Range(func(_, _ any) bool {
		count++
		return true
	})
	assert.Equal(t, 1, count)
	assert.False(t, l.CanRequest())
}

func TestCanRequestRecordSplit(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	// Callers holding an external admission grant use the split sequence:
	// CanRequest answers without consuming, Record books the slot.
	require.True(t, l.CanRequest())
	l.Record()
	assert.Equal(t, 1, l.Remaining())

	require.True(t, l.CanRequest())
	l.Record()

	assert.False(t, l.CanRequest())
	assert.Equal(t, 0, l.Remaining())

	eta, ok := l.ResetETA()
	require.True(t, ok)
	assert.Equal(t, time.Minute, eta)

	clock.Advance(time.Minute)
	assert.True(t, l.CanRequest())
	assert.Equal(t, 2, l.Remaining())
}

func TestDefaults(t *testing.T) {
	l := New(0, 0)
	assert.Equal(t, DefaultMaxRequests, l.Max())
	assert.Equal(t, DefaultMaxRequests, l.Remaining())
}
