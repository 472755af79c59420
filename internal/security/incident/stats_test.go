package incident

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStats_MissingFileIsEmpty(t *testing.T) {
	stats, err := ReadStats(filepath.Join(t.TempDir(), "nope.log"), time.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.TopIPs)
}

func TestReadStats_Aggregates(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	lines := `{"incidentId":"a1","timestamp":"2026-03-01T11:00:00Z","level":"CRITICAL","type":"SQL_INJECTION_DETECTED","details":{"ip":"1.1.1.1"}}
{"incidentId":"a2","timestamp":"2026-03-01T10:00:00Z","level":"HIGH","type":"FORBIDDEN_ROUTE_ACCESS","details":{"ip":"1.1.1.1"}}
{"incidentId":"a3","timestamp":"2026-02-26T12:00:00Z","level":"MEDIUM","type":"HONEYPOT_TRIGGERED","details":{"ip":"2.2.2.2"}}
not json at all
{"incidentId":"a4","timestamp":"2026-03-01T09:00:00Z","level":"MEDIUM","type":"RATE_LIMIT_EXCEEDED","details":{"ip":"unknown"}}
`
	path := filepath.Join(dir, "security.log")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	stats, err := ReadStats(path, now)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Last24Hours)
	assert.Equal(t, 1, stats.ByLevel["CRITICAL"])
	assert.Equal(t, 2, stats.ByLevel["MEDIUM"])
	assert.Equal(t, 1, stats.ByCategory["HONEYPOT_TRIGGERED"])
	assert.Equal(t, 2, stats.TopIPs["1.1.1.1"])
	assert.Equal(t, 1, stats.TopIPs["2.2.2.2"])
	assert.NotContains(t, stats.TopIPs, "unknown")
}
