// Package ratelimit implements the named quota buckets applied to inbound
// requests: a fixed window and threshold per bucket, counted per client
// identity, with path-prefix resolution into buckets.
package ratelimit

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/jmcardona/atalaya/backend/internal/logger"
)

// Result is the outcome of a quota check.
type Result struct {
	Allowed bool
	// Bucket is the quota that made the decision.
	Bucket string
	// RetryAfterSeconds populates the Retry-After header when limited.
	RetryAfterSeconds int
	// RetryHint is the human-readable wait text ("15 minutos", "1 hora").
	RetryHint string
}

// BucketConfig is the immutable definition of a quota bucket.
type BucketConfig struct {
	Window    time.Duration
	Max       int
	RetryHint string
}

type window struct {
	start time.Time
	count int
}

type bucket struct {
	cfg BucketConfig

	mu       sync.Mutex
	counters map[string]*window
}

// Registry owns all quota buckets for the process lifetime. Buckets are
// created at startup and never destroyed; only their per-identity counters
// mutate afterwards.
type Registry struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewRegistry creates the default buckets. Non-production builds relax the
// general api quota so local development is not throttled.
func NewRegistry(production bool) *Registry {
	apiMax := 1000
	if production {
		apiMax = 150
	}

	r := &Registry{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
	r.add("api", BucketConfig{Window: 15 * time.Minute, Max: apiMax, RetryHint: "15 minutos"})
	r.add("auth", BucketConfig{Window: 15 * time.Minute, Max: 10, RetryHint: "15 minutos"})
	r.add("comments", BucketConfig{Window: time.Hour, Max: 20, RetryHint: "1 hora"})
	r.add("contact", BucketConfig{Window: time.Hour, Max: 5, RetryHint: "1 hora"})
	r.add("security", BucketConfig{Window: 5 * time.Minute, Max: 50, RetryHint: "5 minutos"})
	r.add("account_creation", BucketConfig{Window: time.Hour, Max: 5, RetryHint: "1 hora"})
	return r
}

func (r *Registry) add(name string, cfg BucketConfig) {
	r.buckets[name] = &bucket{cfg: cfg, counters: make(map[string]*window)}
}

// RegisterCustom adds a bucket after startup. Registering an existing name is
// a no-op that returns the existing definition and logs a warning; it never
// overwrites.
func (r *Registry) RegisterCustom(name string, cfg BucketConfig) BucketConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.buckets[name]; ok {
		logger.Log().WithField("bucket", name).Warn("duplicate rate-limit bucket ignored")
		return existing.cfg
	}
	r.buckets[name] = &bucket{cfg: cfg, counters: make(map[string]*window)}
	return cfg
}

// ResolveBucket maps a request path to a bucket name. The tests are ordered:
// more specific prefixes shadow the general api bucket. Paths outside every
// rule (plain page loads, static assets) are not limited at all.
func (r *Registry) ResolveBucket(path string) (string, bool) {
	switch {
	case strings.Contains(path, "/api/auth/register"):
		return "account_creation", true
	case strings.Contains(path, "/api/auth/"):
		return "auth", true
	case strings.Contains(path, "/api/comentarios"):
		return "comments", true
	case strings.Contains(path, "/contacto"), strings.Contains(path, "/enviar-correo"):
		return "contact", true
	case strings.Contains(path, "/api/security"), strings.Contains(path, "/admin"):
		return "security", true
	case strings.Contains(path, "/api/"):
		return "api", true
	}
	return "", false
}

// CheckAndConsume counts one request for identity against the named bucket.
// The check-and-increment is a single atomic unit under the bucket lock. An
// unknown bucket falls back to the general api quota, mirroring resolver
// behavior for custom callers.
func (r *Registry) CheckAndConsume(name, identity string) Result {
	r.mu.RLock()
	b, ok := r.buckets[name]
	if !ok {
		logger.Log().WithField("bucket", name).Warn("unknown rate-limit bucket, using api quota")
		name = "api"
		b = r.buckets[name]
	}
	r.mu.RUnlock()

	now := r.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	w := b.counters[identity]
	if w == nil || now.Sub(w.start) >= b.cfg.Window {
		w = &window{start: now}
		b.counters[identity] = w
	}

	if w.count >= b.cfg.Max {
		return Result{
			Allowed:           false,
			Bucket:            name,
			RetryAfterSeconds: int(math.Ceil(b.cfg.Window.Seconds())),
			RetryHint:         b.cfg.RetryHint,
		}
	}

	w.count++
	return Result{Allowed: true, Bucket: name}
}

// Sweep drops expired per-identity windows so counters do not accumulate
// one entry per client forever. Run periodically.
func (r *Registry) Sweep() {
	now := r.now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.buckets {
		b.mu.Lock()
		for id, w := range b.counters {
			if now.Sub(w.start) >= b.cfg.Window {
				delete(b.counters, id)
			}
		}
		b.mu.Unlock()
	}
}

// Snapshot reports each bucket's configuration for the stats endpoint.
func (r *Registry) Snapshot() map[string]BucketConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[string]BucketConfig, len(r.buckets))
	for name, b := range r.buckets {
		snap[name] = b.cfg
	}
	return snap
}
