// Package sessions keeps per-conversation browse state: the search query,
// its ordered result list, and a navigation cursor. Entries live in memory
// only; the store is bounded by capacity (LRU eviction) and per-entry TTL
// reclaimed lazily on access.
package sessions

import (
	"container/list"
	"sync"
	"time"

	"splashbot/core/unsplash"
)

const (
	// DefaultCapacity bounds the number of live sessions.
	DefaultCapacity = 512
	// DefaultTTL is how long an untouched session stays retrievable.
	DefaultTTL = 24 * time.Hour
)

// Key identifies a browse session: one per user per chat.
type Key struct {
	ChatID int64
	UserID int64
}

// Session pairs a search query with its frozen result list and cursor.
// Results are fixed at creation; navigation only moves the cursor.
type Session struct {
	Query   string
	Results []unsplash.Photo
	Cursor  int
}

type entry struct {
	key     Key
	session Session
	touched time.Time
}

// Store is a mutex-guarded session map with LRU ordering. A single lock is
// enough here: mutations are cheap cursor moves and expected concurrency is
// a handful of in-flight updates.
type Store struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[Key]*list.Element
	order    *list.List // front = most recently used

	now func() time.Time
}

// NewStore builds a store with the given capacity and TTL. Non-positive
// values fall back to defaults.
func NewStore(capacity int, ttl time.Duration) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[Key]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Put creates or wholesale-replaces the session under key with cursor 0.
// Empty result lists are rejected: a search with no matches never creates
// or disturbs a session.
func (s *Store) Put(key Key, query string, results []unsplash.Photo) bool {
	if len(results) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if el, ok := s.entries[key]; ok {
		ent := el.Value.(*entry)
		ent.session = Session{Query: query, Results: results}
		ent.touched = now
		s.order.MoveToFront(el)
		return true
	}

	el := s.order.PushFront(&entry{
		key:     key,
		session: Session{Query: query, Results: results},
		touched: now,
	})
	s.entries[key] = el

	for len(s.entries) > s.capacity {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.removeLocked(oldest)
	}
	return true
}

// Get returns a copy of the session under key. Expired entries behave as
// missing and are reclaimed on the spot.
func (s *Store) Get(key Key) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.lookupLocked(key)
	if !ok {
		return Session{}, false
	}
	return ent.session, true
}

// Current returns the photo under the cursor.
func (s *Store) Current(key Key) (unsplash.Photo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.lookupLocked(key)
	if !ok {
		return unsplash.Photo{}, false
	}
	return ent.session.Results[ent.session.Cursor], true
}

// Next advances the cursor with wrap-around and returns the new photo.
func (s *Store) Next(key Key) (unsplash.Photo, bool) {
	return s.advance(key, 1)
}

// Prev moves the cursor back with wrap-around and returns the new photo.
func (s *Store) Prev(key Key) (unsplash.Photo, bool) {
	return s.advance(key, -1)
}

func (s *Store) advance(key Key, delta int) (unsplash.Photo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.lookupLocked(key)
	if !ok {
		return unsplash.Photo{}, false
	}
	n := len(ent.session.Results)
	ent.session.Cursor = ((ent.session.Cursor+delta)%n + n) % n
	return ent.session.Results[ent.session.Cursor], true
}

// Query returns the search term the session was created from.
func (s *Store) Query(key Key) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.lookupLocked(key)
	if !ok {
		return "", false
	}
	return ent.session.Query, true
}

// Len reports the number of live (possibly expired) entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SetClock overrides the time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// lookupLocked resolves key, reclaiming it when expired and refreshing LRU
// position and TTL on a hit. Callers must hold s.mu.
func (s *Store) lookupLocked(key Key) (*entry, bool) {
	el, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	ent := el.Value.(*entry)
	now := s.now()
	if now.Sub(ent.touched) >= s.ttl {
		s.removeLocked(el)
		return nil, false
	}
	ent.touched = now
	s.order.MoveToFront(el)
	return ent, true
}

func (s *Store) removeLocked(el *list.Element) {
	ent := el.Value.(*entry)
	s.order.Remove(el)
	delete(s.entries, ent.key)
}
