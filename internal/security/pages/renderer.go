// Package pages renders the themed security/error responses shown to
// browsers, each carrying the incident id that correlates to the log line.
package pages

import (
	"html/template"
	"strings"
	"time"
)

// Kind selects which themed page is rendered.
type Kind string

const (
	KindHoneypot     Kind = "honeypot_triggered"
	KindInjection    Kind = "injection_attempt"
	KindMaliciousURL Kind = "malicious_url"
	KindForbidden    Kind = "forbidden_route"
	KindAccessDenied Kind = "access_denied"
	KindNotFound     Kind = "not_found"
	KindRateLimit    Kind = "rate_limit"
	KindGeneric      Kind = "generic"
)

// Details carries the request context embedded into a page.
type Details struct {
	IncidentID string
	IP         string
	Path       string
	URL        string
	Pattern    string
	RetryHint  string
	Timestamp  time.Time
}

type pageCopy struct {
	Icon     string
	Title    string
	Subtitle string
	Message  string
}

var copyByKind = map[Kind]pageCopy{
	KindHoneypot: {
		Icon:     "🐝",
		Title:    "ACCESO RESTRINGIDO",
		Subtitle: "Sistema Honeypot Activado - Protección Avanzada",
		Message:  "Se ha bloqueado el acceso a una ruta protegida por nuestro sistema de seguridad. Esta actividad ha sido registrada para análisis.",
	},
	KindInjection: {
		Icon:     "🛡️",
		Title:    "PROTECCIÓN ACTIVADA",
		Subtitle: "Sistema de Seguridad OWASP - Intento de Inyección Bloqueado",
		Message:  "Se ha detectado y bloqueado automáticamente un intento de inyección maliciosa.",
	},
	KindMaliciousURL: {
		Icon:     "🚫",
		Title:    "URL BLOQUEADA POR SEGURIDAD",
		Subtitle: "Protección contra enlaces maliciosos activada",
		Message:  "Esta URL contiene patrones que coinciden con técnicas de ataque conocidas. Por tu seguridad, el acceso ha sido bloqueado.",
	},
	KindForbidden: {
		Icon:     "⛔",
		Title:    "ACCESO DENEGADO",
		Subtitle: "Recurso protegido por razones de seguridad",
		Message:  "Este recurso está protegido y no puede servirse públicamente. El intento de acceso ha quedado registrado.",
	},
	KindAccessDenied: {
		Icon:     "⛔",
		Title:    "ACCESO DENEGADO",
		Subtitle: "No tienes permisos para acceder a este recurso",
		Message:  "El acceso a este recurso ha sido restringido por políticas de seguridad.",
	},
	KindNotFound: {
		Icon:     "🔍",
		Title:    "PÁGINA NO ENCONTRADA",
		Subtitle: "Error 404 - El recurso solicitado no existe",
		Message:  "La página que estás buscando no existe o ha sido movida.",
	},
	KindRateLimit: {
		Icon:     "⏳",
		Title:    "LÍMITE DE SOLICITUDES EXCEDIDO",
		Subtitle: "Demasiadas solicitudes desde tu dirección IP",
		Message:  "Por favor, espera unos minutos antes de intentar nuevamente.",
	},
	KindGeneric: {
		Icon:     "⚠️",
		Title:    "INCIDENTE DE SEGURIDAD",
		Subtitle: "Sistema de protección activado",
		Message:  "Se ha detectado una actividad inusual y se ha aplicado protección automática.",
	},
}

var pageTmpl = template.Must(template.New("security").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Copy.Title}} - Sistema de Seguridad</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: 'Segoe UI', system-ui, sans-serif; background: linear-gradient(135deg, #0a0a0a 0%, #1a1a1a 100%);
  color: #fff; min-height: 100vh; display: flex; align-items: center; justify-content: center; padding: 20px; line-height: 1.6; }
.security-container { background: rgba(25, 25, 25, 0.97); border: 2px solid #ffcc00; border-radius: 20px;
  padding: 3rem; max-width: 760px; width: 100%; text-align: center; box-shadow: 0 20px 60px rgba(255, 204, 0, 0.3); }
.warning-icon { font-size: 4rem; margin-bottom: 1.5rem; }
h1 { color: #ffcc00; font-size: 2.4rem; margin-bottom: 1rem; }
.subtitle { color: #e9ecef; font-size: 1.3rem; margin-bottom: 2rem; font-weight: 300; }
.incident-card { background: rgba(255, 204, 0, 0.1); border: 1px solid rgba(255, 204, 0, 0.3);
  border-radius: 12px; padding: 1.5rem; margin: 2rem 0; text-align: left; }
.detail-item { display: flex; justify-content: space-between; margin: 0.5rem 0; padding: 0.5rem 0;
  border-bottom: 1px solid rgba(255, 255, 255, 0.1); }
.incident-id { background: rgba(255, 255, 255, 0.1); padding: 0.4rem 0.9rem; border-radius: 8px;
  font-family: 'Courier New', monospace; color: #ffcc00; word-break: break-all; }
.path-display { background: rgba(0, 0, 0, 0.3); padding: 0.8rem; border-radius: 8px;
  border-left: 4px solid #ffcc00; margin: 1rem 0; word-break: break-all; font-family: 'Courier New', monospace; }
.btn { display: inline-block; padding: 0.75rem 2rem; border-radius: 8px; font-weight: 600; text-decoration: none;
  background: linear-gradient(135deg, #ffcc00 0%, #ffaa00 100%); color: #000; margin-top: 1.5rem; }
.security-footer { margin-top: 2rem; padding-top: 1rem; border-top: 1px solid rgba(255, 255, 255, 0.1);
  color: #adb5bd; font-size: 0.9rem; }
code { background: rgba(0, 0, 0, 0.3); padding: 0.2rem 0.4rem; border-radius: 4px;
  font-family: 'Courier New', monospace; color: #ff6b6b; }
</style>
</head>
<body>
<div class="security-container">
  <div class="warning-icon">{{.Copy.Icon}}</div>
  <h1>{{.Copy.Title}}</h1>
  <p class="subtitle">{{.Copy.Subtitle}}</p>
  <div class="incident-card">
    <p>{{.Copy.Message}}</p>
    {{if .Details.Path}}<div class="path-display"><strong>Ruta solicitada:</strong><br>{{.Details.Path}}</div>{{end}}
    {{if .Details.URL}}<div class="path-display"><strong>URL detectada:</strong><br><code>{{.Details.URL}}</code></div>{{end}}
    <div class="detail-item"><strong>ID del Incidente:</strong> <span class="incident-id">{{.Details.IncidentID}}</span></div>
    <div class="detail-item"><strong>Timestamp:</strong> <span>{{.Details.Timestamp.Format "02/01/2006 15:04:05"}}</span></div>
    <div class="detail-item"><strong>Dirección IP:</strong> <span>{{.Details.IP}}</span></div>
    {{if .Details.Pattern}}<div class="detail-item"><strong>Patrón Detectado:</strong> <code>{{.Details.Pattern}}</code></div>{{end}}
    {{if .Details.RetryHint}}<div class="detail-item"><strong>Reintentar en:</strong> <span>{{.Details.RetryHint}}</span></div>{{end}}
  </div>
  <a class="btn" href="/">Ir al Inicio Seguro</a>
  <div class="security-footer">
    <p>Sistema de seguridad activo &middot; Incidente: {{.Details.IncidentID}}</p>
  </div>
</div>
</body>
</html>
`))

// Render produces the themed HTML page for a kind. Unknown kinds fall back to
// the generic page.
func Render(kind Kind, d Details) string {
	copySet, ok := copyByKind[kind]
	if !ok {
		copySet = copyByKind[KindGeneric]
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	if d.Pattern != "" && len(d.Pattern) > 50 {
		d.Pattern = d.Pattern[:50] + "..."
	}
	if len(d.URL) > 200 {
		d.URL = d.URL[:200]
	}

	var sb strings.Builder
	if err := pageTmpl.Execute(&sb, struct {
		Copy    pageCopy
		Details Details
	}{copySet, d}); err != nil {
		// Template data is all value types; execution cannot realistically
		// fail, but degrade to a plain message rather than an empty body.
		return "<!DOCTYPE html><html><body><h1>" + string(kind) + "</h1><p>Incidente: " + template.HTMLEscapeString(d.IncidentID) + "</p></body></html>"
	}
	return sb.String()
}

// NormalizeIP rewrites loopback and IPv6-mapped addresses into the display
// form the pages and the error-429 view expose.
func NormalizeIP(ip string) string {
	switch ip {
	case "", "::1", "::ffff:127.0.0.1", "127.0.0.1":
		return "127.0.0.1 (Localhost)"
	}
	return strings.TrimPrefix(ip, "::ffff:")
}

// PrefersHTML reports whether the client's Accept header asks for a browser
// page rather than a JSON payload. Wildcards count as HTML, matching how
// browsers and generic clients negotiate.
func PrefersHTML(accept string) bool {
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html") ||
		strings.Contains(accept, "application/xhtml") ||
		strings.Contains(accept, "*/*")
}
