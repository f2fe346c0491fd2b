package users

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = domain.HashParams{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newUser(t *testing.T, email, password string, requires2FA bool) domain.User {
	t.Helper()
	e, err := domain.ParseEmail(email)
	require.NoError(t, err)
	p, err := domain.ParsePassword(password)
	require.NoError(t, err)
	h, err := domain.HashPassword(p, fastParams)
	require.NoError(t, err)
	return domain.NewUser(e, h, requires2FA)
}

func mustEmail(t *testing.T, s string) domain.Email {
	t.Helper()
	e, err := domain.ParseEmail(s)
	require.NoError(t, err)
	return e
}

func TestMemory_AddAndGet(t *testing.T) {
	repo := NewMemoryRepository(InlineVerifier(fastParams))
	ctx := context.Background()
	u := newUser(t, "test@test.com", "password123", true)

	require.NoError(t, repo.AddUser(ctx, u))

	got, err := repo.GetUser(ctx, mustEmail(t, "TEST@test.com"))
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.True(t, got.Requires2FA)
	assert.Equal(t, u.Password.String(), got.Password.String())
}

func TestMemory_AddDuplicate(t *testing.T) {
	repo := NewMemoryRepository(InlineVerifier(fastParams))
	ctx := context.Background()

	require.NoError(t, repo.AddUser(ctx, newUser(t, "test@test.com", "password123", false)))
	err := repo.AddUser(ctx, newUser(t, "test@test.com", "otherpassword", true))
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	got, err := repo.GetUser(ctx, mustEmail(t, "test@test.com"))
	require.NoError(t, err)
	assert.False(t, got.Requires2FA, "existing record must be kept")
}

func TestMemory_GetMissing(t *testing.T) {
	repo := NewMemoryRepository(InlineVerifier(fastParams))
	_, err := repo.GetUser(context.Background(), mustEmail(t, "ghost@test.com"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemory_ValidateUser(t *testing.T) {
	repo := NewMemoryRepository(InlineVerifier(fastParams))
	ctx := context.Background()
	require.NoError(t, repo.AddUser(ctx, newUser(t, "test@test.com", "password123", false)))

	u, err := repo.ValidateUser(ctx, mustEmail(t, "test@test.com"), "password123")
	require.NoError(t, err)
	assert.Equal(t, "test@test.com", u.Email.String())

	u, err = repo.ValidateUser(ctx, mustEmail(t, "test@test.com"), "wrongpassword")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Nil(t, u)

	u, err = repo.ValidateUser(ctx, mustEmail(t, "ghost@test.com"), "password123")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Nil(t, u)
}

type countingVerifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (v *countingVerifier) Verify(_ context.Context, h domain.HashedPassword, c string) (bool, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	if v.err != nil {
		return false, v.err
	}
	return h.Verify(c), nil
}

func (v *countingVerifier) Params() domain.HashParams { return fastParams }

func TestMemory_ValidateUser_MissingUserStillVerifies(t *testing.T) {
	v := &countingVerifier{}
	repo := NewMemoryRepository(v)

	_, err := repo.ValidateUser(context.Background(), mustEmail(t, "ghost@test.com"), "password123")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, 1, v.calls)
}

func TestMemory_ValidateUser_VerifierError(t *testing.T) {
	v := &countingVerifier{err: errors.New("pool closed")}
	repo := NewMemoryRepository(v)
	ctx := context.Background()
	require.NoError(t, repo.AddUser(ctx, newUser(t, "test@test.com", "password123", false)))

	_, err := repo.ValidateUser(ctx, mustEmail(t, "test@test.com"), "password123")
	assert.EqualError(t, err, "pool closed")
}

func TestMemory_ConcurrentAddSameEmail(t *testing.T) {
	repo := NewMemoryRepository(InlineVerifier(fastParams))
	u := newUser(t, "race@test.com", "password123", false)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.AddUser(context.Background(), u); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
}
