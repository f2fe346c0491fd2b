package hasher

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/domain"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = domain.HashParams{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestPool_HashVerify(t *testing.T) {
	p := NewPool(2, fastParams, metrics.New())
	pw, err := domain.ParsePassword("password123")
	require.NoError(t, err)

	h, err := p.Hash(context.Background(), pw)
	require.NoError(t, err)

	ok, err := p.Verify(context.Background(), h, "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Verify(context.Background(), h, "password124")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPool(2, fastParams, nil)
	pw, _ := domain.ParsePassword("password123")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := p.Hash(context.Background(), pw)
			if err != nil {
				errs <- err
				return
			}
			if ok, err := p.Verify(context.Background(), h, "password123"); err != nil || !ok {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
}

func TestPool_CancelledWhileWaiting(t *testing.T) {
	p := NewPool(1, fastParams, nil)
	// occupy the only worker
	require.NoError(t, p.sem.Acquire(context.Background(), 1))
	defer p.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pw, _ := domain.ParsePassword("password123")
	_, err := p.Hash(ctx, pw)
	assert.ErrorIs(t, err, common.ErrInternal)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPool_DefaultWorkers(t *testing.T) {
	p := NewPool(0, fastParams, nil)
	assert.Equal(t, fastParams, p.Params())
	assert.True(t, p.sem.TryAcquire(1))
	p.sem.Release(1)
}
