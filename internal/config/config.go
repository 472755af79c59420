package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	PublicDir    string
	LogDir       string

	// Security subsystem settings.
	Security SecurityConfig

	// SMTP settings for the contact form.
	SMTP SMTPConfig

	// Session signing secret for issued JWTs.
	SessionSecret string

	// OAuth entry point settings; the provider handles the actual flow.
	GoogleClientID    string
	GoogleRedirectURL string
}

// SecurityConfig holds the inputs consumed by the request-security pipeline.
type SecurityConfig struct {
	// AbuseIPDBKey enables the external reputation lookup. Empty disables
	// the threat-intel subsystem entirely.
	AbuseIPDBKey string
	// WebhookURL receives a JSON copy of every incident, best-effort.
	WebhookURL string
	// NotifyURLs is a comma-separated list of shoutrrr service URLs that
	// receive a short incident summary.
	NotifyURLs string
}

// SMTPConfig holds the SMTP server configuration for outbound mail.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	ToAddress   string
	Encryption  string // "none", "ssl", "starttls"
}

// Load reads env vars and falls back to defaults so the server can boot with
// zero configuration. A .env file in the working directory is honored when
// present, matching how deployments ship secrets.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:  getEnv("ATALAYA_ENV", "development"),
		HTTPPort:     getEnv("ATALAYA_HTTP_PORT", "3000"),
		DatabasePath: getEnv("ATALAYA_DB_PATH", filepath.Join("data", "atalaya.db")),
		PublicDir:    getEnv("ATALAYA_PUBLIC_DIR", "public"),
		LogDir:       getEnv("ATALAYA_LOG_DIR", filepath.Join("data", "logs")),
		Security: SecurityConfig{
			AbuseIPDBKey: os.Getenv("ABUSEIPDB_API_KEY"),
			WebhookURL:   os.Getenv("SECURITY_WEBHOOK_URL"),
			NotifyURLs:   os.Getenv("SECURITY_NOTIFY_URLS"),
		},
		SMTP: SMTPConfig{
			Host:        os.Getenv("SMTP_HOST"),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    os.Getenv("SMTP_USERNAME"),
			Password:    os.Getenv("SMTP_PASSWORD"),
			FromAddress: os.Getenv("SMTP_FROM"),
			ToAddress:   os.Getenv("CONTACT_TO"),
			Encryption:  getEnv("SMTP_ENCRYPTION", "starttls"),
		},
		SessionSecret:     getEnv("SESSION_SECRET", "default_secret_dev"),
		GoogleClientID:    os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleRedirectURL: os.Getenv("GOOGLE_REDIRECT_URL"),
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure log directory: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production hardening
// (tight rate limits, secure cookies).
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
