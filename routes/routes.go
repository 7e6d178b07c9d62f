package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"concierge/handlers"
	"concierge/middleware"
	"concierge/utils"
)

// RegisterSessionRoutes registers voice session lifecycle endpoints.
func RegisterSessionRoutes(r *gin.Engine, sh *handlers.SessionHandler, ch *handlers.ConversationHandler) {
	api := r.Group("/api/sessions")
	{
		api.POST("", sh.CreateSession)

		// Everything addressed to an existing session requires its token.
		protected := api.Group("/:id")
		protected.Use(middleware.SessionAuthMiddleware())
		protected.DELETE("", sh.EndSession)

		protected.POST("/listen", sh.StartListening)
		protected.DELETE("/listen", sh.StopListening)
		protected.PUT("/listen", sh.PushFragment)
		protected.GET("/replies", sh.PendingReplies)

		protected.POST("/utterance", ch.PostUtterance)
		protected.POST("/audio", ch.PostAudioUtterance)
		protected.GET("/context", ch.GetContext)
		protected.GET("/transcript", ch.GetTranscript)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"mongo":     status.Mongo,
			"redis":     status.Redis,
			"checkedAt": status.CheckedAt,
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, sh *handlers.SessionHandler, ch *handlers.ConversationHandler) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterSessionRoutes(r, sh, ch)
	RegisterHealthRoute(r)
}
