package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mse-engine/internal/engine"
)

// startEvaluationRequest accepts both snake_case and camelCase config keys
// (§6). gin's JSON binding matches keys case-insensitively, so single-word
// keys (version, adaptive, seed, model, temperature) bind in either style;
// each multi-word key has a camelCase alias field that the handler merges in.
type startEvaluationRequest struct {
	AgentID       string  `json:"agent_id"`
	Version       string  `json:"version"`
	ItemsPerAxis  int     `json:"items_per_axis"`
	TargetSE      float64 `json:"target_se"`
	Adaptive      bool    `json:"adaptive"`
	Seed          string  `json:"seed"`
	Model         string  `json:"model"`
	Temperature   float64 `json:"temperature"`
	MemoryEnabled bool    `json:"memory_enabled"`

	AgentIDCamel       string  `json:"agentId"`
	ItemsPerAxisCamel  int     `json:"itemsPerAxis"`
	TargetSECamel      float64 `json:"targetSe"`
	MemoryEnabledCamel bool    `json:"memoryEnabled"`
}

// StartEvaluationHandler is POST /evaluations.
func StartEvaluationHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startEvaluationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request body"}})
			return
		}
		if req.ItemsPerAxis == 0 {
			req.ItemsPerAxis = req.ItemsPerAxisCamel
		}
		if req.TargetSE == 0 {
			req.TargetSE = req.TargetSECamel
		}
		req.MemoryEnabled = req.MemoryEnabled || req.MemoryEnabledCamel
		agentID := req.AgentID
		if agentID == "" {
			agentID = req.AgentIDCamel
		}
		if agentID == "" {
			agentID = agentIDFromContext(c)
		}
		if agentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "agent_id is required"}})
			return
		}

		cfg := engine.RunConfig{
			ExamVersionCode: req.Version, ItemsPerAxis: req.ItemsPerAxis, TargetSE: req.TargetSE,
			Adaptive: req.Adaptive, Seed: req.Seed, Model: req.Model, Temperature: req.Temperature,
			MemoryEnabled: req.MemoryEnabled,
		}
		sess, err := eng.StartEvaluation(c.Request.Context(), agentID, cfg)
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"run_id": sess.RunID(), "progress": sess.GetProgress()})
	}
}

// ResumeEvaluationHandler is POST /evaluations/:runId/resume.
func ResumeEvaluationHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := eng.ResumeEvaluation(c.Request.Context(), c.Param("runId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"run_id": sess.RunID(), "progress": sess.GetProgress()})
	}
}

// GetAgentProfileHandler is GET /agents/:agentId/profile.
func GetAgentProfileHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := eng.GetAgentProfile(c.Request.Context(), c.Param("agentId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		if profile == nil {
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

// GetPartialProfileHandler is GET /agents/:agentId/profile/partial.
func GetPartialProfileHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := eng.GetPartialProfile(c.Request.Context(), c.Param("agentId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

// GetEnrichedProfileHandler is GET /agents/:agentId/profile/enriched.
func GetEnrichedProfileHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := eng.GetEnrichedProfile(c.Request.Context(), c.Param("agentId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

// GetProfileHistoryHandler is GET /agents/:agentId/profile/history.
func GetProfileHistoryHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		history, err := eng.GetProfileHistory(c.Request.Context(), c.Param("agentId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

// GetSophisticationScoreHandler is GET /agents/:agentId/sophistication.
func GetSophisticationScoreHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		score, err := eng.GetSophisticationScore(c.Request.Context(), c.Param("agentId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, score)
	}
}

// GetSophisticationHistoryHandler is GET /agents/:agentId/sophistication/history.
func GetSophisticationHistoryHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		hist, err := eng.GetSophisticationHistory(c.Request.Context(), c.Param("agentId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, hist)
	}
}

// GetAgentRunsHandler is GET /agents/:agentId/runs.
func GetAgentRunsHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		runs, err := eng.GetAgentRuns(c.Request.Context(), c.Param("agentId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, runs)
	}
}

// GetRunDetailsHandler is GET /evaluations/:runId.
func GetRunDetailsHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := eng.GetRunDetails(c.Request.Context(), c.Param("runId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

// CompareAgentsHandler is POST /agents/compare.
func CompareAgentsHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			AgentIDs []string `json:"agent_ids"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || len(req.AgentIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "agent_ids is required"}})
			return
		}
		cmp, err := eng.CompareAgents(c.Request.Context(), req.AgentIDs)
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, cmp)
	}
}

// GetAxesHandler is GET /axes?version=.
func GetAxesHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		axes, err := eng.GetAxes(c.Request.Context(), c.Query("version"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, axes)
	}
}

// GetAxisItemsHandler is GET /axes/:axisId/items?version=.
func GetAxisItemsHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := eng.GetAxisItems(c.Request.Context(), c.Query("version"), c.Param("axisId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}
