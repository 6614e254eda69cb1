// Package throttle bounds traffic towards a single external API.
package throttle

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Gate caps in-flight calls and their start rate. It is safe for concurrent use.
type Gate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// NewGate allows at most concurrency calls in flight and rps call starts per
// second. rps <= 0 disables rate limiting.
func NewGate(concurrency int, rps float64) *Gate {
	if concurrency <= 0 {
		concurrency = 1
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Gate{
		sem:     semaphore.NewWeighted(int64(concurrency)),
		limiter: rate.NewLimiter(limit, concurrency),
	}
}

// Do waits for a slot and a token, then runs fn.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if g == nil {
		return fn(ctx)
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	defer g.sem.Release(1)

	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return fn(ctx)
}
