package routes

import (
	"net/http"
	"time"

	"aerovoice/handlers"
	"aerovoice/middleware"
	"aerovoice/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterDialogRoutes sets up the endpoints for the conversation flow engine.
func RegisterDialogRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/dialog")
	{
		// Opening a session is public; it issues the session token.
		api.POST("/session", hb.StartSessionHandler)

		// Turn processing requires the token bound to the session.
		protected := api.Group("")
		protected.Use(middleware.SessionAuthMiddleware())
		protected.POST("/session/:sessionID/turn", hb.ProcessTurnHandler)
		protected.POST("/session/:sessionID/voice-turn", hb.VoiceTurnHandler)
		protected.POST("/session/:sessionID/utterance", hb.RecordUtteranceHandler)
		protected.GET("/session/:sessionID", hb.GetSessionHandler)
		protected.POST("/session/:sessionID/reset", hb.ResetSessionHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "dependencies": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterDialogRoutes(r, hb)
	RegisterHealthRoute(r)
}
