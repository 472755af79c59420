// Package threatintel wraps the AbuseIPDB reputation lookup in a time-bounded
// cache. The lookup is gated on local incident history and fails open: any
// error from the external service means "no escalation", never a block.
package threatintel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jmcardona/atalaya/backend/internal/logger"
	"github.com/jmcardona/atalaya/backend/internal/metrics"
)

const (
	defaultBaseURL = "https://api.abuseipdb.com/api/v2"
	cacheTTL       = time.Hour
	lookupTimeout  = 5 * time.Second

	// historyThreshold is how many recorded incidents in the trailing hour
	// an IP needs before the external lookup fires at all.
	historyThreshold = 5

	// escalateScore is the confidence score above which classification
	// escalates to a hard block.
	escalateScore = 50
)

// ReputationRecord is one cached reputation lookup, keyed by IP.
type ReputationRecord struct {
	IP                   string    `json:"ip"`
	AbuseConfidenceScore int       `json:"abuseConfidenceScore"`
	TotalReports         int       `json:"totalReports"`
	CountryCode          string    `json:"countryCode"`
	FetchedAt            time.Time `json:"timestamp"`
}

// ShouldBlock reports whether the record's score warrants a hard block.
func (r ReputationRecord) ShouldBlock() bool {
	return r.AbuseConfidenceScore > escalateScore
}

// RecentCounter supplies the local incident history for an IP; the incident
// package's History satisfies it.
type RecentCounter interface {
	CountRecent(ip string, now time.Time) int
}

// Cache performs reputation lookups with a per-IP TTL cache. A zero API key
// disables the subsystem entirely: Check always returns no escalation.
type Cache struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	history RecentCounter
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]ReputationRecord
}

// Option customizes a Cache.
type Option func(*Cache)

// WithBaseURL points lookups at an alternate endpoint.
func WithBaseURL(u string) Option {
	return func(c *Cache) { c.baseURL = u }
}

// New creates a cache. history may not be nil.
func New(apiKey string, history RecentCounter, opts ...Option) *Cache {
	c := &Cache{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: lookupTimeout},
		history: history,
		now:     time.Now,
		entries: make(map[string]ReputationRecord),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Cache) Enabled() bool {
	return c.apiKey != ""
}

// Check decides whether ip should be escalated to a hard block. It returns
// the reputation record and true only when the subsystem is enabled, the IP
// has enough recent incident history, the lookup succeeded, and the score
// crossed the threshold. Every failure path returns (zero, false).
func (c *Cache) Check(ctx context.Context, ip string) (ReputationRecord, bool) {
	if !c.Enabled() || ip == "" {
		return ReputationRecord{}, false
	}
	if c.history.CountRecent(ip, c.now()) <= historyThreshold {
		return ReputationRecord{}, false
	}

	rec, err := c.Lookup(ctx, ip)
	if err != nil {
		// Fail open: a dependency outage must not turn into a self-DoS.
		metrics.IncThreatIntelLookup("error")
		logger.WithFields(map[string]any{"ip": ip, "error": err.Error()}).Warn("reputation lookup unavailable")
		return ReputationRecord{}, false
	}
	if rec.ShouldBlock() {
		metrics.IncThreatIntelLookup("escalated")
		return rec, true
	}
	return rec, false
}

// Lookup returns the reputation record for ip, serving from cache while the
// entry is younger than the TTL. A stale entry is treated as absent and
// re-fetched.
func (c *Cache) Lookup(ctx context.Context, ip string) (ReputationRecord, error) {
	now := c.now()

	c.mu.Lock()
	cached, ok := c.entries[ip]
	c.mu.Unlock()
	if ok && now.Sub(cached.FetchedAt) < cacheTTL {
		metrics.IncThreatIntelLookup("hit")
		return cached, nil
	}

	rec, err := c.fetch(ctx, ip)
	if err != nil {
		return ReputationRecord{}, err
	}
	metrics.IncThreatIntelLookup("miss")

	c.mu.Lock()
	c.entries[ip] = rec
	c.mu.Unlock()
	return rec, nil
}

// Evict removes expired entries. The read path already ignores them; this
// keeps memory bounded by active IPs instead of all IPs ever seen. Run
// periodically.
func (c *Cache) Evict() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for ip, rec := range c.entries {
		if now.Sub(rec.FetchedAt) >= cacheTTL {
			delete(c.entries, ip)
		}
	}
}

type checkResponse struct {
	Data struct {
		IPAddress            string `json:"ipAddress"`
		AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
		TotalReports         int    `json:"totalReports"`
		CountryCode          string `json:"countryCode"`
	} `json:"data"`
}

func (c *Cache) fetch(ctx context.Context, ip string) (ReputationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/check?ipAddress=%s&maxAgeInDays=90", c.baseURL, url.QueryEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ReputationRecord{}, fmt.Errorf("build reputation request: %w", err)
	}
	req.Header.Set("Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return ReputationRecord{}, fmt.Errorf("reputation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ReputationRecord{}, fmt.Errorf("reputation service returned %d", resp.StatusCode)
	}

	var body checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ReputationRecord{}, fmt.Errorf("decode reputation response: %w", err)
	}

	return ReputationRecord{
		IP:                   ip,
		AbuseConfidenceScore: body.Data.AbuseConfidenceScore,
		TotalReports:         body.Data.TotalReports,
		CountryCode:          body.Data.CountryCode,
		FetchedAt:            c.now(),
	}, nil
}
