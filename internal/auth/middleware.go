package auth

import (
	"net/http"
	"strings"
	"time"

	"mse-engine/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Middleware verifies the bearer token, cross-checks it against the active
// Redis session (so a deleted session fails closed before the JWT expires),
// and refreshes the session's inactivity window on every authenticated call.
func Middleware(cfg *config.Config, rdb *redis.Client, requireOperator bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Missing or invalid Authorization header"}})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := ParseJWT(cfg.Server.JWTSecret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid or expired token"}})
			return
		}

		sessionToken, err := GetSession(rdb, claims.AgentID)
		if err != nil || sessionToken != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Session expired or invalid"}})
			return
		}
		_ = SetSession(rdb, claims.AgentID, tokenStr, 30*time.Minute)

		c.Set("agentId", claims.AgentID)
		c.Set("role", claims.Role)

		if requireOperator && claims.Role != RoleOperator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "Operator only"}})
			return
		}
		c.Next()
	}
}
