// Package presets provides a static catalog of named rate-limit
// configurations for popular LLM and API services. It is pure data: no
// behavior, no network calls. Always verify current limits with your
// specific provider and account tier before relying on these defaults.
package presets

import (
	"errors"
	"sort"
	"strings"

	"github.com/throttlegate/throttlegate/ratelimiter"
)

// ErrNotFound is returned by Get when name doesn't match any catalog entry.
var ErrNotFound = errors.New("presets: unknown preset name")

// Config is an immutable named rate-limit preset. MaxPerMinute of zero
// means unlimited throughput (concurrency-only limiting).
type Config struct {
	MaxConcurrent int
	MaxPerMinute  int
	Description   string
}

// ToRateLimiterConfig converts the preset into a ratelimiter.Config using a
// one-minute window.
func (c Config) ToRateLimiterConfig() ratelimiter.Config {
	return ratelimiter.Config{
		MaxConcurrent: c.MaxConcurrent,
		MaxPerWindow:  c.MaxPerMinute,
		Window:        ratelimiter.DefaultWindow,
	}
}

// catalog holds every named preset, keyed by its canonical (normalized)
// name. Values are drawn from the vendor documentation current as of the
// original catalog this was expanded from; treat them as a starting point,
// not a guarantee.
var catalog = map[string]Config{
	// OpenAI
	"openai_free":  {3, 3, "OpenAI Free Tier"},
	"openai_tier1": {5, 60, "OpenAI Tier 1"},
	"openai_tier2": {10, 500, "OpenAI Tier 2"},
	"openai_tier3": {15, 5000, "OpenAI Tier 3"},
	"openai_tier4": {20, 10000, "OpenAI Tier 4"},
	"openai_tier5": {30, 30000, "OpenAI Tier 5"},

	// Anthropic
	"anthropic_free":  {2, 5, "Anthropic Free Tier"},
	"anthropic_tier1": {5, 50, "Anthropic Build Tier 1"},
	"anthropic_tier2": {10, 1000, "Anthropic Build Tier 2"},
	"anthropic_tier3": {15, 2000, "Anthropic Build Tier 3"},
	"anthropic_tier4": {20, 4000, "Anthropic Build Tier 4"},

	// Google Gemini
	"google_free": {2, 15, "Google AI Free"},
	"google_paid": {10, 1000, "Google AI Pay-as-you-go"},

	// Generic / conservative defaults for unknown providers.
	"conservative": {2, 20, "Conservative - safe default"},
	"moderate":     {5, 60, "Moderate - balanced"},
	"aggressive":   {10, 200, "Aggressive - high throughput"},
	"unlimited":    {50, 0, "High concurrency, no throughput cap"},

	// Web scraping (be respectful to the servers on the other end).
	"scraping_polite":     {2, 10, "Polite web scraping"},
	"scraping_moderate":   {5, 30, "Moderate web scraping"},
	"scraping_aggressive": {10, 60, "Aggressive web scraping"},
}

// aliases maps convenience names onto canonical catalog entries.
var aliases = map[string]string{
	"anthropic_standard": "anthropic_tier1",
	"anthropic_scale":    "anthropic_tier3",
}

// normalize folds a preset name to the catalog's canonical key form:
// lowercase, with hyphens treated the same as underscores.
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "-", "_")
}

// Get looks up a preset by name, case-insensitively, accepting hyphens or
// underscores as word separators. Returns ErrNotFound if name doesn't
// match any catalog entry or alias.
func Get(name string) (Config, error) {
	key := normalize(name)
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	cfg, ok := catalog[key]
	if !ok {
		return Config{}, ErrNotFound
	}
	return cfg, nil
}

// Names returns every canonical preset name, sorted. Aliases are not
// included; resolve them with Get.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every canonical preset keyed by name.
func All() map[string]Config {
	out := make(map[string]Config, len(catalog))
	for name, cfg := range catalog {
		out[name] = cfg
	}
	return out
}
