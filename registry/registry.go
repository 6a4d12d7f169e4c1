// Package registry implements the process-wide named rate limiter map:
// register/get/get_or_create/remove/reset/exists/list_names/list_all/stats
// over shared ratelimiter.RateLimiter instances, so independent executors
// targeting the same external service can share one budget.
package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/throttlegate/throttlegate/ratelimiter"
)

// ErrNotFound is returned by Get and Stats when no limiter is registered
// under the given name. Remove reports a missing name by returning false.
var ErrNotFound = errors.New("registry: limiter not found")

// ErrAlreadyExists is returned by Register when a limiter with the given
// name already exists and replace was not requested.
var ErrAlreadyExists = errors.New("registry: limiter already exists")

// Registry is a name-keyed map of shared rate limiters. It is safe for
// concurrent use; a single internal mutex guards the map, which is
// sufficient per its documented contract ("register at startup, read
// freely thereafter").
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*ratelimiter.RateLimiter
	configs  map[string]ratelimiter.Config
}

// New returns an empty Registry. Most callers should use the package-level
// Default instance and its mirrored functions instead of constructing their
// own registry, unless they specifically need an isolated namespace (e.g.
// in tests).
func New() *Registry {
	return &Registry{
		limiters: make(map[string]*ratelimiter.RateLimiter),
		configs:  make(map[string]ratelimiter.Config),
	}
}

// Register creates and stores a limiter under name, built from cfg. It
// fails with ErrAlreadyExists if name is already registered, unless replace
// is true.
func (r *Registry) Register(name string, cfg ratelimiter.Config, replace bool) (*ratelimiter.RateLimiter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.limiters[name]; exists && !replace {
		return nil, ErrAlreadyExists
	}
	rl, err := ratelimiter.New(cfg)
	if err != nil {
		return nil, err
	}
	r.limiters[name] = rl
	r.configs[name] = cfg
	return rl, nil
}

// Get returns the limiter registered under name, or ErrNotFound.
func (r *Registry) Get(name string) (*ratelimiter.RateLimiter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rl, ok := r.limiters[name]
	if !ok {
		return nil, ErrNotFound
	}
	return rl, nil
}

// GetOrCreate returns the existing limiter registered under name, ignoring
// cfg, or creates and registers one from cfg if none exists yet. This is
// idempotent: the first caller's configuration wins for the lifetime of
// the process (or until Remove/Reset).
func (r *Registry) GetOrCreate(name string, cfg ratelimiter.Config) (*ratelimiter.RateLimiter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rl, ok := r.limiters[name]; ok {
		return rl, nil
	}
	rl, err := ratelimiter.New(cfg)
	if err != nil {
		return nil, err
	}
	r.limiters[name] = rl
	r.configs[name] = cfg
	return rl, nil
}

// Remove deletes the limiter registered under name, reporting whether
// anything was removed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.limiters[name]; !ok {
		return false
	}
	delete(r.limiters, name)
	delete(r.configs, name)
	return true
}

// Reset removes the named limiter, or every limiter when name is empty.
// Matching the source this registry is modeled on, Reset removes entries
// rather than clearing their window history in place — a caller wanting to
// keep a limiter's identity but clear its window should call
// RateLimiter.Reset on the limiter itself instead.
func (r *Registry) Reset(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		r.limiters = make(map[string]*ratelimiter.RateLimiter)
		r.configs = make(map[string]ratelimiter.Config)
		return
	}
	delete(r.limiters, name)
	delete(r.configs, name)
}

// Exists reports whether a limiter is registered under name.
func (r *Registry) Exists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.limiters[name]
	return ok
}

// ListNames returns the names of all registered limiters, sorted for
// stable output.
func (r *Registry) ListNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.limiters))
	for name := range r.limiters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListAll returns every registered limiter's configuration, keyed by name.
func (r *Registry) ListAll() map[string]ratelimiter.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]ratelimiter.Config, len(r.configs))
	for name, cfg := range r.configs {
		out[name] = cfg
	}
	return out
}

// Stats returns a usage snapshot for the named limiter, or ErrNotFound.
func (r *Registry) Stats(name string) (ratelimiter.Stats, error) {
	r.mu.Lock()
	rl, ok := r.limiters[name]
	r.mu.Unlock()
	if !ok {
		return ratelimiter.Stats{}, ErrNotFound
	}
	return rl.StatsSnapshot(), nil
}
