package challenges

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func fixture(t *testing.T) (domain.Email, domain.LoginAttemptID, domain.TwoFACode) {
	t.Helper()
	e, err := domain.ParseEmail("test@test.com")
	require.NoError(t, err)
	id, err := domain.NewLoginAttemptID()
	require.NoError(t, err)
	code, err := domain.ParseTwoFACode("123456")
	require.NoError(t, err)
	return e, id, code
}

func TestMemory_IssueVerifyConsume(t *testing.T) {
	s := NewMemoryStore(time.Minute, nil)
	ctx := context.Background()
	email, id, code := fixture(t)

	require.NoError(t, s.Issue(ctx, email, id, code))

	got, err := s.Get(ctx, email)
	require.NoError(t, err)
	assert.True(t, got.AttemptID.Equal(id))
	assert.True(t, got.Code.Equal(code))

	require.NoError(t, s.VerifyAndConsume(ctx, email, id, code))
	assert.ErrorIs(t, s.VerifyAndConsume(ctx, email, id, code), common.ErrNotFound)
}

func TestMemory_Mismatch(t *testing.T) {
	s := NewMemoryStore(time.Minute, nil)
	ctx := context.Background()
	email, id, code := fixture(t)
	require.NoError(t, s.Issue(ctx, email, id, code))

	otherID, _ := domain.NewLoginAttemptID()
	otherCode, _ := domain.ParseTwoFACode("654321")

	assert.ErrorIs(t, s.VerifyAndConsume(ctx, email, otherID, code), common.ErrMismatch)
	assert.ErrorIs(t, s.VerifyAndConsume(ctx, email, id, otherCode), common.ErrMismatch)

	// a mismatch leaves the challenge in place
	assert.NoError(t, s.VerifyAndConsume(ctx, email, id, code))
}

func TestMemory_IssueReplaces(t *testing.T) {
	s := NewMemoryStore(time.Minute, nil)
	ctx := context.Background()
	email, id1, code1 := fixture(t)
	id2, _ := domain.NewLoginAttemptID()
	code2, _ := domain.ParseTwoFACode("000001")

	require.NoError(t, s.Issue(ctx, email, id1, code1))
	require.NoError(t, s.Issue(ctx, email, id2, code2))

	assert.ErrorIs(t, s.VerifyAndConsume(ctx, email, id1, code1), common.ErrMismatch)
	assert.NoError(t, s.VerifyAndConsume(ctx, email, id2, code2))
}

func TestMemory_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore(600*time.Second, clock.Now)
	ctx := context.Background()
	email, id, code := fixture(t)
	require.NoError(t, s.Issue(ctx, email, id, code))

	clock.Advance(599 * time.Second)
	_, err := s.Get(ctx, email)
	require.NoError(t, err)

	clock.Advance(time.Second)
	assert.ErrorIs(t, s.VerifyAndConsume(ctx, email, id, code), common.ErrNotFound)
}

func TestMemory_Remove(t *testing.T) {
	s := NewMemoryStore(time.Minute, nil)
	ctx := context.Background()
	email, id, code := fixture(t)

	assert.ErrorIs(t, s.Remove(ctx, email), common.ErrNotFound)

	require.NoError(t, s.Issue(ctx, email, id, code))
	require.NoError(t, s.Remove(ctx, email))
	_, err := s.Get(ctx, email)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemory_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore(time.Minute, clock.Now)
	ctx := context.Background()
	email, id, code := fixture(t)
	other, _ := domain.ParseEmail("other@test.com")

	require.NoError(t, s.Issue(ctx, email, id, code))
	clock.Advance(30 * time.Second)
	require.NoError(t, s.Issue(ctx, other, id, code))
	clock.Advance(45 * time.Second)

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, s.items, 1)
}

func TestMemory_ConcurrentConsumeOnce(t *testing.T) {
	s := NewMemoryStore(time.Minute, nil)
	ctx := context.Background()
	email, id, code := fixture(t)
	require.NoError(t, s.Issue(ctx, email, id, code))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.VerifyAndConsume(ctx, email, id, code) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
}
