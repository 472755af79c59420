package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/jmcardona/atalaya/backend/internal/api/middleware"
	"github.com/jmcardona/atalaya/backend/internal/api/routes"
	"github.com/jmcardona/atalaya/backend/internal/config"
	"github.com/jmcardona/atalaya/backend/internal/security/incident"
	"github.com/jmcardona/atalaya/backend/internal/security/pages"
	"github.com/jmcardona/atalaya/backend/internal/security/pipeline"
	"github.com/jmcardona/atalaya/backend/internal/security/ratelimit"
)

// Server wraps the HTTP engine and shared dependencies for easier testing.
type Server struct {
	Engine *gin.Engine
	cfg    config.Config
}

// New wires up the HTTP router: request plumbing first, then the security
// pipeline in front of every route, then the API and the static site.
func New(db *gorm.DB, cfg config.Config, sec *pipeline.Pipeline, incidents *incident.Logger, limits *ratelimit.Registry, registry *prometheus.Registry) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.ErrorBoundary(incidents, !cfg.IsProduction()),
		middleware.SecurityHeaders(!cfg.IsProduction()),
	)
	router.Use(sec.Middlewares()...)

	if err := routes.Register(router, db, cfg, limits); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	attachStatic(router, cfg.PublicDir)

	return &Server{Engine: router, cfg: cfg}, nil
}

// attachStatic serves the portfolio site out of publicDir. Anything the API
// did not claim falls through here: existing files are served as-is, unknown
// paths get the themed 404 page for browsers and a JSON payload otherwise.
func attachStatic(router *gin.Engine, publicDir string) {
	serveFiles := false
	if publicDir != "" {
		if info, err := os.Stat(publicDir); err == nil && info.IsDir() {
			serveFiles = true
		}
	}

	router.NoRoute(func(c *gin.Context) {
		if serveFiles && c.Request.Method == http.MethodGet && !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			rel := strings.TrimPrefix(filepath.Clean(c.Request.URL.Path), "/")
			if rel == "" || rel == "." {
				rel = "index.html"
			}
			candidate := filepath.Join(publicDir, rel)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				c.File(candidate)
				return
			}
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api/") || !pages.PrefersHTML(c.GetHeader("Accept")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ruta no encontrada"})
			return
		}

		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusNotFound, pages.Render(pages.KindNotFound, pages.Details{
			IncidentID: incident.NewID(),
			IP:         pages.NormalizeIP(c.ClientIP()),
			Path:       c.Request.URL.Path,
		}))
	})
}

// Run starts the HTTP server with proper shutdown semantics.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.HTTPPort),
		Handler: s.Engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
