// Package hasher runs Argon2id work on a bounded number of goroutines so
// password hashing cannot starve request handling.
package hasher

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/domain"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"golang.org/x/sync/semaphore"
)

type Pool struct {
	sem     *semaphore.Weighted
	params  domain.HashParams
	metrics *metrics.Metrics
}

// NewPool creates a pool with the given number of workers. Non-positive
// values fall back to runtime.NumCPU. m may be nil.
func NewPool(workers int, params domain.HashParams, m *metrics.Metrics) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		params:  params,
		metrics: m,
	}
}

func (p *Pool) Params() domain.HashParams { return p.params }

func (p *Pool) Hash(ctx context.Context, password domain.Password) (domain.HashedPassword, error) {
	var h domain.HashedPassword
	err := p.run(ctx, "hash", func() error {
		var err error
		h, err = domain.HashPassword(password, p.params)
		return err
	})
	return h, err
}

func (p *Pool) Verify(ctx context.Context, hash domain.HashedPassword, candidate string) (bool, error) {
	var ok bool
	err := p.run(ctx, "verify", func() error {
		ok = hash.Verify(candidate)
		return nil
	})
	return ok, err
}

func (p *Pool) run(ctx context.Context, op string, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: waiting for hash worker: %w", common.ErrInternal, err)
	}
	defer p.sem.Release(1)

	p.metrics.HashStarted()
	defer p.metrics.HashFinished()

	start := time.Now()
	err := fn()
	p.metrics.ObserveHash(op, time.Since(start))

	return err
}
