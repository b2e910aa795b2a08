package middleware

import (
	"net/http"
	"strings"

	"aerovoice/utils"

	"github.com/gin-gonic/gin"
)

// SessionAuthMiddleware validates the bearer token issued at session start
// and checks that it is bound to the session being addressed. Turn requests
// carry the session ID as a path parameter.
func SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
					"code":  500,
				})
			}
		}()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		sessionID, err := utils.ExtractSessionIDFromToken(tokenString)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		if pathID := c.Param("sessionID"); pathID != "" && pathID != sessionID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Token not valid for this session",
				"code":  0,
			})
			return
		}

		c.Set("sessionID", sessionID)
		c.Next()
	}
}
