package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jmcardona/atalaya/backend/internal/api/handlers"
	"github.com/jmcardona/atalaya/backend/internal/api/middleware"
	"github.com/jmcardona/atalaya/backend/internal/config"
	"github.com/jmcardona/atalaya/backend/internal/models"
	"github.com/jmcardona/atalaya/backend/internal/security/incident"
	"github.com/jmcardona/atalaya/backend/internal/security/ratelimit"
	"github.com/jmcardona/atalaya/backend/internal/services"
)

// Register wires up API routes and performs automatic migrations. The limits
// registry is shared with the security pipeline so the stats endpoint reports
// the live bucket configuration.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config, limits *ratelimit.Registry) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Comment{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	authService := services.NewAuthService(db, cfg)
	commentService := services.NewCommentService(db)
	mailService := services.NewMailService(cfg.SMTP)

	authHandler := handlers.NewAuthHandler(authService, cfg.IsProduction())
	commentsHandler := handlers.NewCommentsHandler(commentService)
	contactHandler := handlers.NewContactHandler(mailService)
	securityHandler := handlers.NewSecurityHandler(incident.LogPath(cfg.LogDir), limits)
	requireAuth := middleware.RequireAuth(authService)

	// Health lives outside /api so no quota bucket ever throttles the probe.
	router.GET("/health", handlers.Health)
	router.GET("/error-429", securityHandler.RateLimitPage)
	router.POST("/api/csp-violation-report", securityHandler.CSPReport)

	api := router.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/auth/google", authHandler.GoogleEntry)

		api.GET("/comentarios", commentsHandler.List)
		api.POST("/comentarios", requireAuth, commentsHandler.Create)

		api.GET("/security/stats", securityHandler.Stats)
	}

	router.POST("/enviar-correo", contactHandler.Send)
	router.POST("/contacto", contactHandler.Send)

	return nil
}
