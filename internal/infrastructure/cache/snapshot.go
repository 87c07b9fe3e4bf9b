package cache

import (
	"sync"
	"time"
)

// DefaultSnapshotTTL bounds how long a loaded collection may be served
// without reloading from the backend
const DefaultSnapshotTTL = 30 * time.Second

// Snapshot holds the last successfully loaded full collection for one entity
// type together with its load timestamp. Reads are served from the snapshot
// while its age is below the TTL; any write invalidates it so the next read
// reloads from the source of truth. The mutex guards the whole
// check-then-serve sequence so concurrent in-process callers never observe a
// half-updated entry.
type Snapshot[T any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	items    []T
	loadedAt time.Time
	valid    bool
}

// SnapshotOption is a functional option for configuring a snapshot
type SnapshotOption[T any] func(*Snapshot[T])

// WithClock overrides the snapshot's clock, used by tests to control aging
func WithClock[T any](now func() time.Time) SnapshotOption[T] {
	return func(s *Snapshot[T]) {
		s.now = now
	}
}

// NewSnapshot creates an empty, invalid snapshot with the given TTL.
// A zero or negative TTL falls back to DefaultSnapshotTTL.
func NewSnapshot[T any](ttl time.Duration, opts ...SnapshotOption[T]) *Snapshot[T] {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	s := &Snapshot[T]{
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the cached collection when it is still fresh.
// The second return value reports a cache hit.
func (s *Snapshot[T]) Get() ([]T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid || s.now().Sub(s.loadedAt) >= s.ttl {
		return nil, false
	}
	items := make([]T, len(s.items))
	copy(items, s.items)
	return items, true
}

// Set replaces the cached collection and stamps the load time
func (s *Snapshot[T]) Set(items []T) {
	copied := make([]T, len(items))
	copy(copied, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = copied
	s.loadedAt = s.now()
	s.valid = true
}

// Invalidate discards the cached collection, forcing the next read to reload
func (s *Snapshot[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.valid = false
}
