package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cvforge/internal/analytics"
	"cvforge/internal/api/middleware"
	"cvforge/internal/auth"
	"cvforge/internal/config"
	"cvforge/internal/subscription"
)

// Deps 汇总路由需要的外部依赖。
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Queue     TaskQueue
	Auth      *auth.AuthService
	Redis     redis.UniversalClient
	Storage   ObjectStorage
	Scanner   VirusScanner
	Analytics *analytics.Aggregator
	Logger    *slog.Logger
}

// RegisterRoutes 注册 /v1 下的全部业务路由。
func RegisterRoutes(router *gin.Engine, d Deps) {
	gate := subscription.NewGate(d.DB)
	subscriptions := subscription.NewService(d.DB)

	authHandler := NewAuthHandler(d.DB, d.Auth, d.Redis, d.Logger,
		d.Config.Auth.LoginRatePerHour, d.Config.Auth.LoginLockThreshold, d.Config.Auth.LoginLockTTL, d.Config.Auth.CookieDomain)
	documentHandler := NewDocumentHandler(d.DB, d.Queue, d.Storage, gate, d.Config.API.MaxDocuments)
	subscriptionHandler := NewSubscriptionHandler(gate)
	templateHandler := NewTemplateHandler(d.DB, d.Storage)
	assetHandler := NewAssetHandler(d.Storage, d.Scanner, d.Redis)
	analyticsHandler := NewAnalyticsHandler(d.Analytics)
	adminHandler := NewAdminHandler(subscriptions, d.Queue)
	webhookHandler := NewWebhookHandler(subscriptions)
	wsHandler := NewWsHandler(d.Redis, d.Auth, d.Logger, d.Config.API.AllowedOrigins())

	authMiddleware := middleware.AuthMiddleware(d.Auth)
	passwordGate := middleware.RequirePasswordChangeCompletedMiddleware()

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		templateGroup := v1.Group("/templates")
		{
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.GET("/:name/preview", templateHandler.PreviewTemplate)
		}

		webhookGroup := v1.Group("/webhooks")
		webhookGroup.Use(middleware.WebhookSecretMiddleware(d.Config.Payments.WebhookSecret))
		{
			webhookGroup.POST("/payments", webhookHandler.PaymentCompleted)
		}

		protected := v1.Group("")
		protected.Use(authMiddleware, passwordGate)

		documentGroup := protected.Group("/documents")
		{
			documentGroup.POST("/track-download", documentHandler.TrackDownload)
			documentGroup.GET("/:type", documentHandler.ListDocuments)
			documentGroup.POST("/:type", documentHandler.CreateDocument)
			documentGroup.GET("/:type/:id", documentHandler.GetDocument)
			documentGroup.PUT("/:type/:id", documentHandler.UpdateDocument)
			documentGroup.DELETE("/:type/:id", documentHandler.DeleteDocument)
			documentGroup.GET("/:type/:id/preview", documentHandler.PreviewDocument)
			documentGroup.POST("/:type/:id/preview", documentHandler.PreviewDraft)
			documentGroup.POST("/:type/:id/export", documentHandler.ExportDocument)
			documentGroup.GET("/:type/:id/download-link", documentHandler.GetDownloadLink)
		}

		subscriptionGroup := protected.Group("/subscription")
		{
			subscriptionGroup.GET("/status", subscriptionHandler.GetStatus)
			subscriptionGroup.POST("/verify-download", subscriptionHandler.VerifyDownload)
		}

		assetGroup := protected.Group("/assets")
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
		}

		admin := protected.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/analytics/:report", analyticsHandler.GetReport)
			admin.PUT("/admin/subscriptions/:id/status", adminHandler.SetSubscriptionStatus)
			admin.POST("/admin/templates/:name/thumbnail", adminHandler.RegenerateThumbnail)
		}
	}
}
