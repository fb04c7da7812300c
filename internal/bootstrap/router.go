package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lumenquiz/session-runtime/internal/config"
)

// SetupRouter configures the HTTP router.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup routes
	setupRoutes(router, handlers)

	return router
}

// setupRoutes configures all API routes.
func setupRoutes(router *gin.Engine, handlers *Handlers) {
	// API routes base group
	apiV1 := router.Group("/api/v1")

	// ========== Session lifecycle ==========
	sessionRoutes := apiV1.Group("/sessions")
	{
		sessionRoutes.GET("/:id", handlers.SessionHandler.GetState)
		sessionRoutes.POST("/:id/start", handlers.SessionHandler.Start)
		sessionRoutes.POST("/:id/resume", handlers.SessionHandler.Resume)
		sessionRoutes.POST("/:id/next", handlers.SessionHandler.Next)
		sessionRoutes.POST("/:id/manual", handlers.SessionHandler.SetManual)
		sessionRoutes.POST("/:id/reset", handlers.SessionHandler.Reset)
		sessionRoutes.POST("/:id/reveal_scores", handlers.SessionHandler.RevealScores)
		sessionRoutes.DELETE("/:id", handlers.SessionHandler.Delete)
	}

	// ========== WebSocket observers ==========
	// Observer routes (outside API versioning)
	router.GET("/ws/sessions/:id/admin", handlers.WSHandler.HandleAdmin)
	router.GET("/ws/sessions/:id/player", handlers.WSHandler.HandlePlayer)
}
