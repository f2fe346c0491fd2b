package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/domain"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	users map[domain.Email]domain.User

	*validator
}

// NewMemoryRepository creates an empty store. A nil verifier checks
// passwords inline with the default hash parameters.
func NewMemoryRepository(v Verifier) *MemoryRepository {
	return &MemoryRepository{
		users:     make(map[domain.Email]domain.User),
		validator: newValidator(v),
	}
}

func (r *MemoryRepository) AddUser(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Email]; ok {
		return common.ErrAlreadyExists
	}
	r.users[user.Email] = user
	return nil
}

func (r *MemoryRepository) GetUser(_ context.Context, email domain.Email) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

// ValidateUser does not hold the lock while hashing.
func (r *MemoryRepository) ValidateUser(ctx context.Context, email domain.Email, password string) (*domain.User, error) {
	u, err := r.GetUser(ctx, email)
	return r.validate(ctx, u, err, password)
}
