package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"mse-engine/internal/auth"
	"mse-engine/internal/config"
	"mse-engine/internal/operator"
)

const sessionDuration = 30 * time.Minute

// LoginHandler is POST /v1/auth/login: the optional operator login path,
// issuing a role=operator JWT on successful username/password auth.
func LoginHandler(cfg *config.Config, rdb *redis.Client, operators *operator.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request body"}})
			return
		}
		op, err := operators.Authenticate(req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "invalid username or password"}})
			return
		}
		token, err := auth.GenerateJWT(cfg.Server.JWTSecret, operatorAgentID(op.ID), auth.RoleOperator, sessionDuration)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "failed to issue token"}})
			return
		}
		if err := auth.SetSession(rdb, operatorAgentID(op.ID), token, sessionDuration); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "failed to persist session"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "username": op.Username})
	}
}

// LogoutHandler is POST /v1/auth/logout.
func LogoutHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		agentID := agentIDFromContext(c)
		if agentID != "" {
			_ = auth.DeleteSession(rdb, agentID)
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// MeHandler is GET /v1/auth/me.
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		c.JSON(http.StatusOK, gin.H{"agent_id": agentIDFromContext(c), "role": role})
	}
}

// OnlineAgentCountHandler is GET /v1/online.
func OnlineAgentCountHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := auth.OnlineAgentCount(rdb)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"message": "redis unavailable"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"online": count})
	}
}

func operatorAgentID(id uint) string {
	return "operator:" + strconv.FormatUint(uint64(id), 10)
}
