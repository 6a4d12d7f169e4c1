package ratelimiter

import "sync/atomic"

// Permit is a scoped acquisition returned by RateLimiter.Acquire. Callers
// MUST call Release exactly once, on every exit path, including after a
// failed or cancelled user operation. Release is idempotent after the
// first call so defer Release() composes safely with an explicit earlier
// call on a success path.
type Permit struct {
	gen      *generation
	released atomic.Bool
}

// Release returns the permit's slot to the exact semaphore generation it
// was acquired from. This is the fix for the latent under-count bug a
// naive implementation has: if Release looked up the limiter's *current*
// semaphore instead of the one captured at acquire time, a release
// happening after a resize would credit the new (possibly smaller)
// generation and never free the slot the permit actually holds.
func (p *Permit) Release() {
	if p.released.CompareAndSwap(false, true) {
		p.gen.release()
	}
}
