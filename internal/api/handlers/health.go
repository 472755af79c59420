package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcardona/atalaya/backend/internal/version"
)

var startedAt = time.Now()

// Health reports liveness plus basic process info.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   version.Name,
		"version":   version.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(startedAt).Round(time.Second).String(),
	})
}
