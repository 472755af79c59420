package incident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_StampsEnvironmentAndID(t *testing.T) {
	inc := New(LevelHigh, "FORBIDDEN_ROUTE_ACCESS", map[string]any{"ip": "1.2.3.4"}, "production")

	assert.Len(t, inc.IncidentID, 16)
	assert.Equal(t, LevelHigh, inc.Level)
	assert.Equal(t, "FORBIDDEN_ROUTE_ACCESS", inc.Category)
	assert.Equal(t, "production", inc.Details["environment"])
	assert.Equal(t, "1.2.3.4", inc.Details["ip"])
	assert.WithinDuration(t, time.Now().UTC(), inc.Timestamp, time.Minute)
}

func TestNew_NilDetails(t *testing.T) {
	inc := New(LevelMedium, "HONEYPOT_TRIGGERED", nil, "test")
	assert.Equal(t, "test", inc.Details["environment"])
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.Len(t, id, 16)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestHistory_CountRecent(t *testing.T) {
	h := NewHistory(time.Hour)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h.Record("9.9.9.9", base.Add(-90*time.Minute)) // outside window
	h.Record("9.9.9.9", base.Add(-30*time.Minute))
	h.Record("9.9.9.9", base.Add(-5*time.Minute))
	h.Record("8.8.8.8", base.Add(-1*time.Minute))

	assert.Equal(t, 2, h.CountRecent("9.9.9.9", base))
	assert.Equal(t, 1, h.CountRecent("8.8.8.8", base))
	assert.Equal(t, 0, h.CountRecent("7.7.7.7", base))
}

func TestHistory_IgnoresEmptyIP(t *testing.T) {
	h := NewHistory(time.Hour)
	h.Record("", time.Now())
	assert.Equal(t, 0, h.CountRecent("", time.Now()))
}

func TestHistory_Sweep(t *testing.T) {
	h := NewHistory(time.Hour)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h.Record("9.9.9.9", base.Add(-2*time.Hour))
	h.Record("8.8.8.8", base.Add(-10*time.Minute))
	h.Sweep(base)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.NotContains(t, h.events, "9.9.9.9")
	assert.Contains(t, h.events, "8.8.8.8")
}
