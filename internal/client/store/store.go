// Package store holds the client-side copy of backend resources: a generic
// keyed Store and a Registry with one store per uploadable kind.
package store

import (
	"sort"
	"sync"
)

// Identifiable is anything keyed by a string id.
type Identifiable interface {
	GetID() string
}

// Store is a concurrency-safe keyed cache with change notification.
// Subscribers run synchronously after the write, outside the lock.
type Store[T Identifiable] struct {
	mu      sync.RWMutex
	items   map[string]T
	subs    map[int]func()
	nextSub int
}

func New[T Identifiable]() *Store[T] {
	return &Store[T]{
		items: make(map[string]T),
		subs:  make(map[int]func()),
	}
}

// Add inserts or overwrites obj by id.
func (s *Store[T]) Add(obj T) {
	s.mu.Lock()
	s.items[obj.GetID()] = obj
	s.mu.Unlock()
	s.notify()
}

// AddMany inserts each object by id, keeping entries absent from the batch.
// Subscribers are notified once.
func (s *Store[T]) AddMany(objs []T) {
	if len(objs) == 0 {
		return
	}
	s.mu.Lock()
	for _, o := range objs {
		s.items[o.GetID()] = o
	}
	s.mu.Unlock()
	s.notify()
}

// Remove deletes obj by id. Removing an absent id is a no-op.
func (s *Store[T]) Remove(obj T) {
	s.mu.Lock()
	_, ok := s.items[obj.GetID()]
	delete(s.items, obj.GetID())
	s.mu.Unlock()
	if ok {
		s.notify()
	}
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	return v, ok
}

// All returns every entry sorted by id.
func (s *Store[T]) All() []T {
	s.mu.RLock()
	out := make([]T, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].GetID() < out[j].GetID() })
	return out
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Subscribe registers fn to run after every change and returns a function
// that unregisters it.
func (s *Store[T]) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store[T]) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
