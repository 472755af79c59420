package threatintel

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct{ count int }

func (f fakeHistory) CountRecent(string, time.Time) int { return f.count }

func reputationServer(t *testing.T, score, reports int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		assert.Equal(t, "/check", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("Key"))
		assert.Equal(t, "90", r.URL.Query().Get("maxAgeInDays"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"ipAddress":%q,"abuseConfidenceScore":%d,"totalReports":%d,"countryCode":"ES"}}`,
			r.URL.Query().Get("ipAddress"), score, reports)
	}))
}

func TestCheck_DisabledWithoutKey(t *testing.T) {
	c := New("", fakeHistory{count: 100})
	assert.False(t, c.Enabled())

	_, escalate := c.Check(context.Background(), "1.2.3.4")
	assert.False(t, escalate)
}

func TestCheck_GatedOnHistory(t *testing.T) {
	var calls int32
	srv := reputationServer(t, 99, 42, &calls)
	defer srv.Close()

	c := New("key", fakeHistory{count: historyThreshold})
	c.baseURL = srv.URL

	_, escalate := c.Check(context.Background(), "1.2.3.4")
	assert.False(t, escalate)
	assert.Zero(t, atomic.LoadInt32(&calls), "lookup must not fire below the history gate")
}

func TestCheck_EscalatesHighScore(t *testing.T) {
	srv := reputationServer(t, 99, 42, nil)
	defer srv.Close()

	c := New("key", fakeHistory{count: historyThreshold + 1})
	c.baseURL = srv.URL

	rec, escalate := c.Check(context.Background(), "1.2.3.4")
	assert.True(t, escalate)
	assert.Equal(t, 99, rec.AbuseConfidenceScore)
	assert.Equal(t, 42, rec.TotalReports)
	assert.Equal(t, "ES", rec.CountryCode)
}

func TestCheck_LowScoreDoesNotEscalate(t *testing.T) {
	srv := reputationServer(t, escalateScore, 3, nil)
	defer srv.Close()

	c := New("key", fakeHistory{count: historyThreshold + 1})
	c.baseURL = srv.URL

	// Exactly the threshold is not enough; escalation needs a higher score.
	_, escalate := c.Check(context.Background(), "1.2.3.4")
	assert.False(t, escalate)
}

func TestCheck_FailsOpenOnServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("key", fakeHistory{count: historyThreshold + 1})
	c.baseURL = srv.URL

	_, escalate := c.Check(context.Background(), "1.2.3.4")
	assert.False(t, escalate)
}

func TestLookup_ServesFromCacheWithinTTL(t *testing.T) {
	var calls int32
	srv := reputationServer(t, 10, 1, &calls)
	defer srv.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New("key", fakeHistory{})
	c.baseURL = srv.URL
	c.now = func() time.Time { return now }

	_, err := c.Lookup(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	_, err = c.Lookup(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Stale entries are refetched.
	now = now.Add(cacheTTL + time.Minute)
	_, err = c.Lookup(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEvict_DropsExpiredEntries(t *testing.T) {
	srv := reputationServer(t, 10, 1, nil)
	defer srv.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New("key", fakeHistory{})
	c.baseURL = srv.URL
	c.now = func() time.Time { return now }

	_, err := c.Lookup(context.Background(), "1.2.3.4")
	require.NoError(t, err)

	now = now.Add(cacheTTL + time.Minute)
	c.Evict()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.entries)
}

func TestShouldBlock(t *testing.T) {
	assert.False(t, ReputationRecord{AbuseConfidenceScore: escalateScore}.ShouldBlock())
	assert.True(t, ReputationRecord{AbuseConfidenceScore: escalateScore + 1}.ShouldBlock())
}
