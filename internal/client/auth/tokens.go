// Package auth holds the session's tokens and refreshes them against the
// account API.
package auth

import (
	"sync"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
)

// TokenStore is the process-wide holder of the current access/refresh pair.
type TokenStore struct {
	mu      sync.RWMutex
	pair    models.TokenPair
	subs    map[int]func(models.TokenPair)
	nextSub int
}

func NewTokenStore() *TokenStore {
	return &TokenStore{subs: make(map[int]func(models.TokenPair))}
}

func (s *TokenStore) Get() models.TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

func (s *TokenStore) Set(pair models.TokenPair) {
	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()
	s.notify(pair)
}

// Reset forgets both tokens.
func (s *TokenStore) Reset() {
	s.Set(models.TokenPair{})
}

// Subscribe registers fn for every Set and Reset.
func (s *TokenStore) Subscribe(fn func(models.TokenPair)) (unsubscribe func()) {
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

func (s *TokenStore) notify(pair models.TokenPair) {
	s.mu.RLock()
	fns := make([]func(models.TokenPair), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(pair)
	}
}

// Blacklist remembers refresh tokens that were already sent once.
type Blacklist struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

func NewBlacklist() *Blacklist {
	return &Blacklist{tokens: make(map[string]struct{})}
}

func (b *Blacklist) Add(token string) {
	b.mu.Lock()
	b.tokens[token] = struct{}{}
	b.mu.Unlock()
}

func (b *Blacklist) Contains(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tokens[token]
	return ok
}
