package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mse-engine/internal/operator"
)

type SetupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SetupHandler is POST /v1/setup: bootstraps the first operator account.
// Refuses once any operator already exists.
func SetupHandler(operators *operator.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := operators.Count()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "DB error"}})
			return
		}
		if count != 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "setup not allowed; an operator already exists"}})
			return
		}
		var req SetupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request"}})
			return
		}
		if req.Username == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "username and password required"}})
			return
		}
		op, err := operators.Create(req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "username already exists"}})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": op.ID, "username": op.Username, "setup_complete": true})
	}
}
