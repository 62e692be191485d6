package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interntrack/internal/auth"
	"interntrack/internal/handler"
)

// AuthMiddleware validates the bearer token (or session cookie) and stores
// user_id and role on the context for handlers and RequirePermission.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := auth.ParseJWT(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		handler.SetActor(c, claims.UserID, claims.Role)

		c.Next()
	}
}
