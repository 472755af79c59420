// Package incident defines the security-incident record and its append-only,
// size-rotated log store with console mirroring and best-effort external
// forwarding.
package incident

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Level is the severity assigned by the detector at creation time.
type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelHigh     Level = "HIGH"
	LevelMedium   Level = "MEDIUM"
	LevelLow      Level = "LOW"
	LevelInfo     Level = "INFO"
)

// Incident is one detected security event. Records are immutable once
// created and persisted append-only; they disappear only through log
// rotation and retention pruning.
type Incident struct {
	IncidentID string         `json:"incidentId"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      Level          `json:"level"`
	Category   string         `json:"type"`
	Details    map[string]any `json:"details"`
}

// New creates an incident with a fresh random id. The environment tag is
// stamped into details so archived lines identify the deployment they came
// from.
func New(level Level, category string, details map[string]any, environment string) Incident {
	if details == nil {
		details = make(map[string]any)
	}
	details["environment"] = environment
	return Incident{
		IncidentID: NewID(),
		Timestamp:  time.Now().UTC(),
		Level:      level,
		Category:   category,
		Details:    details,
	}
}

// NewID returns an opaque random hex token used as the incident identifier.
func NewID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// timestamp so an id is always present.
		return hex.EncodeToString([]byte(time.Now().Format("150405.000000000")))[:16]
	}
	return hex.EncodeToString(buf)
}
