package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jmcardona/atalaya/backend/internal/config"
	"github.com/jmcardona/atalaya/backend/internal/database"
	"github.com/jmcardona/atalaya/backend/internal/logger"
	"github.com/jmcardona/atalaya/backend/internal/metrics"
	"github.com/jmcardona/atalaya/backend/internal/security/incident"
	"github.com/jmcardona/atalaya/backend/internal/security/pipeline"
	"github.com/jmcardona/atalaya/backend/internal/security/ratelimit"
	"github.com/jmcardona/atalaya/backend/internal/security/threatintel"
	"github.com/jmcardona/atalaya/backend/internal/server"
	"github.com/jmcardona/atalaya/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "atalaya.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(!cfg.IsProduction(), io.MultiWriter(os.Stdout, rotator))

	logger.WithFields(map[string]any{
		"version":     version.Full(),
		"environment": cfg.Environment,
	}).Infof("starting %s backend", version.Name)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	incidents := incident.NewLogger(cfg.LogDir, cfg.Environment,
		incident.WithWebhook(cfg.Security.WebhookURL),
		incident.WithNotifyURLs(cfg.Security.NotifyURLs),
	)
	defer incidents.Close()

	history := incident.NewHistory(time.Hour)
	limits := ratelimit.NewRegistry(cfg.IsProduction())
	intel := threatintel.New(cfg.Security.AbuseIPDBKey, history)
	if intel.Enabled() {
		logger.Log().Info("threat-intel escalation enabled")
	}

	sec := pipeline.New(incidents, history, limits, intel)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics.Register(registry)

	// Periodic housekeeping: expired reputation entries, stale rate-limit
	// windows and aged-out incident history all get swept so in-memory
	// state stays bounded by active clients.
	jobs := cron.New()
	if _, err := jobs.AddFunc("@every 10m", func() {
		intel.Evict()
		limits.Sweep()
		history.Sweep(time.Now())
	}); err != nil {
		log.Fatalf("schedule housekeeping: %v", err)
	}
	jobs.Start()
	defer jobs.Stop()

	srv, err := server.New(db, cfg, sec, incidents, limits, registry)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log().Infof("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	logger.Log().Info("shutdown complete")
}
