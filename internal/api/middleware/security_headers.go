package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets hardening headers on every response. Development
// builds skip HSTS so plain-HTTP local runs keep working.
func SecurityHeaders(isDevelopment bool) gin.HandlerFunc {
	permissions := strings.Join([]string{
		"geolocation=()",
		"microphone=()",
		"camera=()",
		"payment=()",
		"usb=()",
	}, ", ")

	return func(c *gin.Context) {
		if !isDevelopment {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", permissions)
		c.Next()
	}
}
