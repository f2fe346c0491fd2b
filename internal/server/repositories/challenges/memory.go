package challenges

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/domain"
)

type MemoryStore struct {
	mu    sync.Mutex
	items map[domain.Email]Challenge
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a store whose entries live for ttl. now may be nil.
func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if ttl <= 0 {
		ttl = common.ChallengeTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{items: make(map[domain.Email]Challenge), ttl: ttl, now: now}
}

func (s *MemoryStore) Issue(_ context.Context, email domain.Email, attemptID domain.LoginAttemptID, code domain.TwoFACode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[email] = Challenge{AttemptID: attemptID, Code: code, ExpiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) VerifyAndConsume(_ context.Context, email domain.Email, attemptID domain.LoginAttemptID, code domain.TwoFACode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.lookup(email)
	if err != nil {
		return err
	}
	if !matches(c, attemptID, code) {
		return common.ErrMismatch
	}
	delete(s.items, email)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, email domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(email); err != nil {
		return err
	}
	delete(s.items, email)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, email domain.Email) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lookup(email)
}

// Sweep drops every expired entry and returns how many were removed.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for email, c := range s.items {
		if !now.Before(c.ExpiresAt) {
			delete(s.items, email)
			n++
		}
	}
	return n, nil
}

// lookup must be called with mu held.
func (s *MemoryStore) lookup(email domain.Email) (Challenge, error) {
	c, ok := s.items[email]
	if !ok {
		return Challenge{}, common.ErrNotFound
	}
	if !s.now().Before(c.ExpiresAt) {
		delete(s.items, email)
		return Challenge{}, common.ErrNotFound
	}
	return c, nil
}
