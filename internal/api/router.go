package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"mse-engine/internal/auth"
	"mse-engine/internal/config"
	"mse-engine/internal/engine"
	"mse-engine/internal/operator"
	"mse-engine/internal/ratelimit"
)

// rateLimitMiddleware enforces the Redis-backed token bucket, keyed by
// authenticated agent ID when available and falling back to client IP
// otherwise. It is mounted only on the authenticated /v1 group, so /health,
// /config and /v1/setup are not rate limited.
func rateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := agentIDFromContext(c)
		if key == "" {
			key = c.ClientIP()
		}
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"message": "rate limiter unavailable"}})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": gin.H{"message": "rate limit exceeded"}})
			return
		}
		c.Next()
	}
}

// SetupRouter wires the public engine surface and session surface (§6) onto
// a gin.Engine, in the teacher's flat route-group style.
func SetupRouter(cfg *config.Config, rdb *redis.Client, eng *engine.Engine, limiter *ratelimit.Limiter, operators *operator.Store) *gin.Engine {
	r := gin.Default()

	r.GET("/health", healthHandler)
	r.GET("/config", configHandler(cfg))
	r.POST("/v1/setup", SetupHandler(operators))

	group := r.Group("/v1")
	group.Use(auth.Middleware(cfg, rdb, false))
	if limiter != nil {
		group.Use(rateLimitMiddleware(limiter))
	}
	{
		group.GET("/axes", GetAxesHandler(eng))
		group.GET("/axes/:axisId/items", GetAxisItemsHandler(eng))

		group.POST("/evaluations", StartEvaluationHandler(eng))
		group.POST("/evaluations/:runId/resume", ResumeEvaluationHandler(eng))
		group.GET("/evaluations/:runId", GetRunDetailsHandler(eng))
		group.GET("/evaluations/:runId/next", GetNextDilemmaHandler(eng))
		group.POST("/evaluations/:runId/responses", SubmitResponseHandler(eng))
		group.GET("/evaluations/:runId/progress", GetEvaluationProgressHandler(eng))
		group.GET("/evaluations/:runId/profile", GetEvaluationProfileHandler(eng))
		group.POST("/evaluations/:runId/complete", CompleteEvaluationHandler(eng))
		group.POST("/evaluations/:runId/cancel", CancelEvaluationHandler(eng))
		group.GET("/evaluations/:runId/stream", WSProgressHandler(eng))

		group.GET("/agents/:agentId/profile", GetAgentProfileHandler(eng))
		group.GET("/agents/:agentId/profile/partial", GetPartialProfileHandler(eng))
		group.GET("/agents/:agentId/profile/enriched", GetEnrichedProfileHandler(eng))
		group.GET("/agents/:agentId/profile/history", GetProfileHistoryHandler(eng))
		group.GET("/agents/:agentId/sophistication", GetSophisticationScoreHandler(eng))
		group.GET("/agents/:agentId/sophistication/history", GetSophisticationHistoryHandler(eng))
		group.GET("/agents/:agentId/runs", GetAgentRunsHandler(eng))
		// compareAgents runs a matrix + cluster computation across many
		// agents' histories; restricted to operators, like the teacher never
		// exposes its engine unauthenticated for evaluator-facing routes.
		group.POST("/agents/compare", auth.Middleware(cfg, rdb, true), CompareAgentsHandler(eng))

		group.GET("/auth/me", MeHandler())
		group.GET("/online", OnlineAgentCountHandler(rdb))
	}

	authGroup := r.Group("/v1/auth")
	{
		authGroup.POST("/login", LoginHandler(cfg, rdb, operators))
		authGroup.POST("/logout", auth.Middleware(cfg, rdb, false), LogoutHandler(rdb))
	}

	return r
}
