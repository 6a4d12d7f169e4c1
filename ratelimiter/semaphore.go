package ratelimiter

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// generation wraps one instance of the concurrency semaphore along with
// the capacity it was built for. Resizing a RateLimiter replaces its
// current generation with a fresh one rather than mutating a shared
// semaphore in place — there's no portable way to grow or shrink a
// semaphore.Weighted after construction. Permits bind to the exact
// generation they acquired from (see Permit), so a release always credits
// the instance it came from even after the limiter has moved on to a new
// generation.
type generation struct {
	sem      *semaphore.Weighted
	capacity int
}

func newGeneration(capacity int) *generation {
	return &generation{sem: semaphore.NewWeighted(int64(capacity)), capacity: capacity}
}

func (g *generation) acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *generation) tryAcquire() bool {
	return g.sem.TryAcquire(1)
}

func (g *generation) release() {
	g.sem.Release(1)
}
