package sessions

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splashbot/core/unsplash"
)

func photos(n int) []unsplash.Photo {
	out := make([]unsplash.Photo, n)
	for i := range out {
		out[i] = unsplash.Photo{ID: fmt.Sprintf("p%d", i)}
	}
	return out
}

func TestPutAndNavigationWrap(t *testing.T) {
	s := NewStore(10, time.Hour)
	key := Key{ChatID: 1, UserID: 2}

	require.True(t, s.Put(key, "ocean", photos(3)))

	cur, ok := s.Current(key)
	require.True(t, ok)
	assert.Equal(t, "p0", cur.ID)

	next, ok := s.Next(key)
	require.True(t, ok)
	assert.Equal(t, "p1", next.ID)

	prev, ok := s.Prev(key)
	require.True(t, ok)
	assert.Equal(t, "p0", prev.ID)

	// Prev from cursor 0 wraps to the last element.
	prev, ok = s.Prev(key)
	require.True(t, ok)
	assert.Equal(t, "p2", prev.ID)
}

func TestNextNTimesReturnsToStart(t *testing.T) {
	s := NewStore(10, time.Hour)
	key := Key{ChatID: 7, UserID: 7}
	require.True(t, s.Put(key, "city", photos(5)))

	for i := 0; i < 5; i++ {
		_, ok := s.Next(key)
		require.True(t, ok)
	}
	sess, ok := s.Get(key)
	require.True(t, ok)
	assert.Equal(t, 0, sess.Cursor)
}

func TestEmptyResultsRejected(t *testing.T) {
	s := NewStore(10, time.Hour)
	key := Key{ChatID: 1, UserID: 1}

	require.True(t, s.Put(key, "ocean", photos(2)))
	assert.False(t, s.Put(key, "nothing", nil))

	// Prior session stays intact after a rejected put.
	sess, ok := s.Get(key)
	require.True(t, ok)
	assert.Equal(t, "ocean", sess.Query)
	assert.Len(t, sess.Results, 2)
}

func TestSearchReplacesSessionWholesale(t *testing.T) {
	s := NewStore(10, time.Hour)
	key := Key{ChatID: 1, UserID: 1}

	require.True(t, s.Put(key, "ocean", photos(3)))
	s.Next(key)
	require.True(t, s.Put(key, "forest", photos(2)))

	sess, ok := s.Get(key)
	require.True(t, ok)
	assert.Equal(t, "forest", sess.Query)
	assert.Equal(t, 0, sess.Cursor)
	assert.Len(t, sess.Results, 2)
}

func TestMissingKey(t *testing.T) {
	s := NewStore(10, time.Hour)
	_, ok := s.Next(Key{ChatID: 9, UserID: 9})
	assert.False(t, ok)
	_, ok = s.Query(Key{ChatID: 9, UserID: 9})
	assert.False(t, ok)
}

func TestLRUEviction(t *testing.T) {
	s := NewStore(2, time.Hour)

	k1 := Key{ChatID: 1, UserID: 1}
	k2 := Key{ChatID: 2, UserID: 2}
	k3 := Key{ChatID: 3, UserID: 3}

	require.True(t, s.Put(k1, "a", photos(1)))
	require.True(t, s.Put(k2, "b", photos(1)))

	// Touch k1 so k2 becomes the eviction candidate.
	_, ok := s.Current(k1)
	require.True(t, ok)

	require.True(t, s.Put(k3, "c", photos(1)))
	assert.Equal(t, 2, s.Len())

	_, ok = s.Get(k2)
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = s.Get(k1)
	assert.True(t, ok)
	_, ok = s.Get(k3)
	assert.True(t, ok)
}

func TestTTLExpiryIsLazy(t *testing.T) {
	s := NewStore(10, time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	s.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})

	key := Key{ChatID: 1, UserID: 1}
	require.True(t, s.Put(key, "ocean", photos(2)))

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	_, ok := s.Get(key)
	assert.False(t, ok, "expired entry behaves as missing")
	assert.Equal(t, 0, s.Len(), "expired entry reclaimed on access")
}

func TestConcurrentNavigationKeepsCursorInRange(t *testing.T) {
	s := NewStore(10, time.Hour)
	key := Key{ChatID: 1, UserID: 1}
	require.True(t, s.Put(key, "ocean", photos(3)))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Next(key)
			} else {
				s.Prev(key)
			}
		}(i)
	}
	wg.Wait()

	sess, ok := s.Get(key)
	require.True(t, ok)
	assert.GreaterOrEqual(t, sess.Cursor, 0)
	assert.Less(t, sess.Cursor, 3)
}
