package registry

import "github.com/throttlegate/throttlegate/ratelimiter"

// Default is the process-wide registry backing the package-level functions
// below. Most applications register their shared limiters against this
// instance during startup.
var Default = New()

// Register registers a limiter under name against Default.
func Register(name string, cfg ratelimiter.Config, replace bool) (*ratelimiter.RateLimiter, error) {
	return Default.Register(name, cfg, replace)
}

// Get looks up name against Default.
func Get(name string) (*ratelimiter.RateLimiter, error) {
	return Default.Get(name)
}

// GetOrCreate looks up or creates name against Default.
func GetOrCreate(name string, cfg ratelimiter.Config) (*ratelimiter.RateLimiter, error) {
	return Default.GetOrCreate(name, cfg)
}

// Remove deletes name from Default.
func Remove(name string) bool {
	return Default.Remove(name)
}

// Reset removes name (or every entry, if name is empty) from Default.
func Reset(name string) {
	Default.Reset(name)
}

// Exists reports whether name is registered in Default.
func Exists(name string) bool {
	return Default.Exists(name)
}

// ListNames lists all names registered in Default.
func ListNames() []string {
	return Default.ListNames()
}

// ListAll lists all configurations registered in Default.
func ListAll() map[string]ratelimiter.Config {
	return Default.ListAll()
}

// Stats returns a usage snapshot for name from Default.
func Stats(name string) (ratelimiter.Stats, error) {
	return Default.Stats(name)
}
