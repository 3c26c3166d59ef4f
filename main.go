package main

import (
	"log"

	"evara-backend/config"
	"evara-backend/database"
	"evara-backend/handlers"
	"evara-backend/middleware"
	"evara-backend/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.Load()

	// Connect to database
	database.Connect()

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis()

	// Build services; the WhatsApp adapter is constructed once and injected
	// everywhere so nothing reads provider config behind our back.
	whatsapp := services.NewWhatsAppService(config.AppConfig)
	email := services.NewEmailService(config.AppConfig)
	analytics := services.NewAnalyticsService(database.DB)
	versions := services.NewVersionService(database.DB, analytics)
	dispatcher := services.NewDispatcher(database.DB, whatsapp, analytics)
	reconciler := services.NewReconciler(database.DB, whatsapp, analytics, database.Redis)

	inviteHandler := &handlers.InviteHandler{
		DB:         database.DB,
		Versions:   versions,
		Dispatcher: dispatcher,
		Reconciler: reconciler,
		Analytics:  analytics,
		WhatsApp:   whatsapp,
		Email:      email,
	}

	// Setup router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": config.AppConfig.AppName,
		})
	})

	// Uploaded invite media
	r.Static("/uploads/invites", config.AppConfig.UploadDir)

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	// ==========================================
	// WHATSAPP WEBHOOK (public, provider-facing)
	// ==========================================
	r.GET("/api/invites/webhook", inviteHandler.VerifyWebhook)
	r.POST("/api/invites/webhook", inviteHandler.ReceiveWebhook)

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		// Collaborators: clients, events, guests
		api.POST("/clients", handlers.CreateClient)
		api.POST("/events", handlers.CreateEvent)
		api.GET("/events", handlers.GetEvents)
		api.POST("/guests", handlers.CreateGuest)
		api.GET("/guests/by-event/:eventId", handlers.GetGuestsByEvent)

		// Invites and versions
		api.GET("/invites/by-event/:eventId", inviteHandler.GetInvitesByEvent)
		api.GET("/invites/:id/versions", inviteHandler.GetInviteVersions)
		api.POST("/invites", inviteHandler.CreateInvite)
		api.POST("/invites/:id/versions", inviteHandler.CreateVersion)
		api.POST("/invites/upload-media", inviteHandler.UploadMedia)

		// Sending
		api.POST("/invites/send-preview", inviteHandler.SendPreview)
		api.POST("/invites/send-email-preview", inviteHandler.SendEmailPreview)
		api.POST("/invites/send-whatsapp", inviteHandler.SendWhatsApp)
		api.POST("/invites/:id/send", inviteHandler.SendInvites)

		// Analytics
		api.GET("/invites/:id/analytics", inviteHandler.GetAnalytics)
	}

	// Start server
	port := config.AppConfig.Port
	log.Printf("🚀 %s server starting on port %s", config.AppConfig.AppName, port)

	addr := "0.0.0.0:" + port
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
