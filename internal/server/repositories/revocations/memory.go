package revocations

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{tokens: make(map[string]time.Time), now: now}
}

func (s *MemoryStore) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	now := s.now()
	if !now.Before(expiresAt) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if exp, ok := s.tokens[token]; ok && now.Before(exp) {
		return common.ErrAlreadyRevoked
	}
	s.tokens[token] = expiresAt
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.tokens[token]
	return ok && s.now().Before(exp), nil
}

// Sweep removes entries whose token has expired anyway.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for token, exp := range s.tokens {
		if !now.Before(exp) {
			delete(s.tokens, token)
			n++
		}
	}
	return n, nil
}
