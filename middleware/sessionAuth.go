package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"concierge/utils"
)

// SessionAuthMiddleware validates the bearer token issued at session creation
// and rejects requests whose token does not belong to the addressed session.
func SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}

		sessionID, err := utils.ExtractSessionIDFromToken(tokenString)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}

		// Tokens are scoped to a single session.
		if pathID := c.Param("id"); pathID != "" && pathID != sessionID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Token does not match session",
			})
			return
		}

		c.Set("sessionID", sessionID)
		c.Next()
	}
}
