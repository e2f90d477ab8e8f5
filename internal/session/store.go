// Package session keeps interactive workflow state (quizzes, clinical
// encounters) keyed by id.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotFound is returned when an id is unknown or its entry was evicted.
var ErrNotFound = errors.New("session not found")

// Store holds values keyed by id. Update and View run their callback with
// the id locked, so mutations of one entry are serialized while different
// ids proceed in parallel.
type Store[T any] interface {
	Put(ctx context.Context, id string, value T) error
	// Update stores fn's result. When fn fails the stored value is kept, but
	// changes fn already made through a pointer T are not undone; callers
	// holding pointers should mutate a copy.
	Update(ctx context.Context, id string, fn func(T) (T, error)) (T, error)
	View(ctx context.Context, id string, fn func(T) error) error
	Delete(ctx context.Context, id string) error
	Range(ctx context.Context, fn func(id string, value T) bool) error
}

type entry[T any] struct {
	mu      sync.Mutex
	value   T
	touched atomic.Int64
	removed atomic.Bool
}

// MemoryStore is a process-local Store. Entries untouched for longer than
// the TTL are dropped lazily on Put; a zero TTL keeps entries forever.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		entries: make(map[string]*entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore[T]) Put(_ context.Context, id string, value T) error {
	e := &entry[T]{value: value}
	e.touched.Store(s.now().UnixNano())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	if old, ok := s.entries[id]; ok {
		old.removed.Store(true)
	}
	s.entries[id] = e
	return nil
}

func (s *MemoryStore[T]) Update(_ context.Context, id string, fn func(T) (T, error)) (T, error) {
	var zero T
	e, err := s.acquire(id)
	if err != nil {
		return zero, err
	}
	defer e.mu.Unlock()

	v, err := fn(e.value)
	if err != nil {
		return zero, err
	}
	e.value = v
	e.touched.Store(s.now().UnixNano())
	return v, nil
}

func (s *MemoryStore[T]) View(_ context.Context, id string, fn func(T) error) error {
	e, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	e.touched.Store(s.now().UnixNano())
	return fn(e.value)
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.removed.Store(true)
		delete(s.entries, id)
	}
	return nil
}

// Range visits a snapshot of live entries, each under its lock, until fn
// returns false.
func (s *MemoryStore[T]) Range(_ context.Context, fn func(id string, value T) bool) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	snapshot := make([]*entry[T], 0, len(s.entries))
	for id, e := range s.entries {
		ids = append(ids, id)
		snapshot = append(snapshot, e)
	}
	s.mu.RUnlock()

	for i, e := range snapshot {
		e.mu.Lock()
		if e.removed.Load() || s.expired(e) {
			e.mu.Unlock()
			continue
		}
		more := fn(ids[i], e.value)
		e.mu.Unlock()
		if !more {
			break
		}
	}
	return nil
}

// Len counts stored entries, including expired ones not yet swept.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// acquire returns the live entry for id with its lock held.
func (s *MemoryStore[T]) acquire(id string) (*entry[T], error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	if e.removed.Load() || s.expired(e) {
		e.mu.Unlock()
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore[T]) expired(e *entry[T]) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(time.Unix(0, e.touched.Load())) > s.ttl
}

func (s *MemoryStore[T]) sweepLocked() {
	if s.ttl <= 0 {
		return
	}
	for id, e := range s.entries {
		if s.expired(e) {
			e.removed.Store(true)
			delete(s.entries, id)
		}
	}
}
