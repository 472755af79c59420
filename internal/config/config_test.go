package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir replicates testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "3000", cfg.HTTPPort)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "starttls", cfg.SMTP.Encryption)
	assert.DirExists(t, cfg.LogDir)
	assert.DirExists(t, filepath.Dir(cfg.DatabasePath))
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("ATALAYA_ENV", "production")
	t.Setenv("ATALAYA_HTTP_PORT", "8080")
	t.Setenv("ABUSEIPDB_API_KEY", "clave-abuseipdb")
	t.Setenv("SECURITY_WEBHOOK_URL", "https://hooks.example.com/security")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_ENCRYPTION", "ssl")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "clave-abuseipdb", cfg.Security.AbuseIPDBKey)
	assert.Equal(t, "https://hooks.example.com/security", cfg.Security.WebhookURL)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, "ssl", cfg.SMTP.Encryption)
}

func TestLoad_BadPortFallsBack(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("SMTP_PORT", "no-es-numero")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 587, cfg.SMTP.Port)
}
