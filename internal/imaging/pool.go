package imaging

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Deriver produces a derivative of an original at a given height.
// key identifies the original; implementations that do not memoize ignore it.
type Deriver interface {
	Derive(ctx context.Context, key string, original []byte, height int) ([]byte, Format, error)
}

// Pool bounds the number of derivations running at once.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool returns a Pool that runs at most workers derivations concurrently.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers))}
}

// Derive waits for a free slot and runs Derive.
func (p *Pool) Derive(ctx context.Context, _ string, original []byte, height int) ([]byte, Format, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, "", fmt.Errorf("wait for derivation slot: %w", err)
	}
	defer p.sem.Release(1)
	return Derive(original, height)
}
