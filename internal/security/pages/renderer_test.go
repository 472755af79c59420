package pages

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRender_HoneypotPage(t *testing.T) {
	out := Render(KindHoneypot, Details{
		IncidentID: "abc123",
		IP:         "1.2.3.4",
		Path:       "/admin/login",
	})

	assert.Contains(t, out, "ACCESO RESTRINGIDO")
	assert.Contains(t, out, "Honeypot")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "1.2.3.4")
	assert.Contains(t, out, "/admin/login")
	assert.Contains(t, out, `lang="es"`)
}

func TestRender_RateLimitPageShowsHint(t *testing.T) {
	out := Render(KindRateLimit, Details{
		IncidentID: "abc123",
		IP:         "1.2.3.4",
		RetryHint:  "15 minutos",
	})

	assert.Contains(t, out, "LÍMITE DE SOLICITUDES EXCEDIDO")
	assert.Contains(t, out, "15 minutos")
}

func TestRender_TruncatesPatternAndURL(t *testing.T) {
	out := Render(KindInjection, Details{
		IncidentID: "abc123",
		Pattern:    strings.Repeat("p", 80),
	})
	assert.Contains(t, out, strings.Repeat("p", 50)+"...")
	assert.NotContains(t, out, strings.Repeat("p", 51))

	out = Render(KindMaliciousURL, Details{
		IncidentID: "abc123",
		URL:        "/x?" + strings.Repeat("u", 300),
	})
	assert.NotContains(t, out, strings.Repeat("u", 250))
}

func TestRender_EscapesHostileInput(t *testing.T) {
	out := Render(KindForbidden, Details{
		IncidentID: "abc123",
		Path:       `/<script>alert(1)</script>`,
	})
	assert.NotContains(t, out, "<script>alert(1)</script>")
}

func TestRender_UnknownKindFallsBack(t *testing.T) {
	out := Render(Kind("nope"), Details{IncidentID: "abc123"})
	assert.Contains(t, out, "INCIDENTE DE SEGURIDAD")
}

func TestRender_DefaultsTimestamp(t *testing.T) {
	out := Render(KindGeneric, Details{IncidentID: "abc123"})
	assert.Contains(t, out, time.Now().Format("02/01/2006"))
}

func TestNormalizeIP(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "127.0.0.1 (Localhost)"},
		{"::1", "127.0.0.1 (Localhost)"},
		{"127.0.0.1", "127.0.0.1 (Localhost)"},
		{"::ffff:127.0.0.1", "127.0.0.1 (Localhost)"},
		{"::ffff:203.0.113.9", "203.0.113.9"},
		{"203.0.113.9", "203.0.113.9"},
		{"2001:db8::1", "2001:db8::1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeIP(tc.in), "input %q", tc.in)
	}
}

func TestPrefersHTML(t *testing.T) {
	assert.True(t, PrefersHTML(""))
	assert.True(t, PrefersHTML("text/html,application/xhtml+xml"))
	assert.True(t, PrefersHTML("*/*"))
	assert.False(t, PrefersHTML("application/json"))
	assert.False(t, PrefersHTML("text/plain"))
}
