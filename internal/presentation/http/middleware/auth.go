package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alumnet/alumnet-go/internal/application/services"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	// Websocket clients cannot set headers from the browser; fall back to
	// a query parameter for the upgrade request.
	return c.Query("token")
}

// RequireUser validates the session token and stores the identity on the
// context. Requests without a valid token are rejected.
func RequireUser(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateSession(token)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid session"})
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("userName", claims.UserName)
		c.Next()
	}
}
