package incident

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jmcardona/atalaya/backend/internal/logger"
)

const (
	logFileName = "security.log"
	// Rotation threshold and retention match the log store contract:
	// rotate past 10MB, keep at most 10 timestamp-suffixed archives.
	maxSizeMB  = 10
	maxBackups = 10

	webhookTimeout = 5 * time.Second
)

// Logger appends incident records to a rotating JSON-lines file, mirrors them
// to the process log, and forwards copies to an optional webhook and shoutrrr
// services. File appends are serialized by the underlying rotator; forwarding
// is best-effort and never blocks the request path.
type Logger struct {
	out         io.WriteCloser
	environment string
	webhookURL  string
	notifyURLs  []string
	httpc       *http.Client
}

// Option customizes a Logger.
type Option func(*Logger)

// WithWebhook forwards a JSON copy of every incident to the given URL.
func WithWebhook(url string) Option {
	return func(l *Logger) { l.webhookURL = url }
}

// WithNotifyURLs forwards a short summary to shoutrrr service URLs
// (comma-separated), e.g. discord://token@id.
func WithNotifyURLs(urls string) Option {
	return func(l *Logger) {
		for _, u := range strings.Split(urls, ",") {
			if u = strings.TrimSpace(u); u != "" {
				l.notifyURLs = append(l.notifyURLs, u)
			}
		}
	}
}

// NewLogger opens the incident store under dir.
func NewLogger(dir, environment string, opts ...Option) *Logger {
	l := &Logger{
		out: &lumberjack.Logger{
			Filename:   filepath.Join(dir, logFileName),
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		},
		environment: environment,
		httpc:       &http.Client{Timeout: webhookTimeout},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record creates and persists an incident, returning its id. A failed file
// write degrades to a console warning; the incident is still mirrored to the
// process log and the caller's response proceeds.
func (l *Logger) Record(level Level, category string, details map[string]any) string {
	inc := New(level, category, details, l.environment)
	l.mirror(inc)

	line, err := json.Marshal(inc)
	if err != nil {
		logger.Log().WithField("error", err.Error()).Warn("marshal incident")
		return inc.IncidentID
	}
	if _, err := l.out.Write(append(line, '\n')); err != nil {
		logger.WithFields(map[string]any{
			"error":    err.Error(),
			"incident": inc.IncidentID,
		}).Warn("persist incident")
	}

	go l.forward(inc, line)

	return inc.IncidentID
}

// Close releases the underlying log file.
func (l *Logger) Close() error {
	return l.out.Close()
}

// LogPath returns the active log file path for a given directory.
func LogPath(dir string) string {
	return filepath.Join(dir, logFileName)
}

func (l *Logger) mirror(inc Incident) {
	entry := logger.WithFields(map[string]any{
		"incident_id": inc.IncidentID,
		"category":    inc.Category,
		"details":     inc.Details,
	})
	switch inc.Level {
	case LevelCritical, LevelHigh:
		entry.Error("security incident")
	case LevelMedium:
		entry.Warn("security incident")
	default:
		entry.Info("security incident")
	}
}

// forward pushes copies to the webhook and shoutrrr services. Failures are
// warned and swallowed.
func (l *Logger) forward(inc Incident, line []byte) {
	if l.webhookURL != "" {
		resp, err := l.httpc.Post(l.webhookURL, "application/json", bytes.NewReader(line))
		if err != nil {
			logger.Log().WithField("error", err.Error()).Warn("incident webhook unreachable")
		} else {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode >= 300 {
				logger.Log().WithField("status", resp.StatusCode).Warn("incident webhook rejected payload")
			}
		}
	}

	msg := string(inc.Level) + " " + inc.Category + " (" + inc.IncidentID + ")"
	for _, url := range l.notifyURLs {
		if err := shoutrrr.Send(url, msg); err != nil {
			logger.Log().WithField("error", err.Error()).Warn("incident notification failed")
		}
	}
}
