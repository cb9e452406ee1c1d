package api

import (
	"net/http"
	"mse-engine/internal/config"
	"github.com/gin-gonic/gin"
)

// GET /health
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GET /config
func configHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only return non-sensitive config fields
		llmProviders := make([]gin.H, 0, len(cfg.LLMProviders))
		for _, p := range cfg.LLMProviders {
			llmProviders = append(llmProviders, gin.H{"name": p.Name, "kind": p.Kind, "model": p.Model})
		}
		c.JSON(http.StatusOK, gin.H{
			"server": gin.H{
				"host": cfg.Server.Host,
				"port": cfg.Server.Port,
			},
			"llm_providers": llmProviders,
			"engine":        cfg.Engine,
			"rate_limit":    cfg.RateLimit,
		})
	}
}
