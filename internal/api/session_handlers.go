package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mse-engine/internal/engine"
)

// sessionFromRequest resolves the Session surface (§6) for runId, reusing
// the resident in-memory Session when one exists.
func sessionFromRequest(c *gin.Context, eng *engine.Engine) (*engine.Session, bool) {
	sess, err := eng.ResumeEvaluation(c.Request.Context(), c.Param("runId"))
	if err != nil {
		writeEngineError(c, err)
		return nil, false
	}
	return sess, true
}

// GetNextDilemmaHandler is GET /evaluations/:runId/next.
func GetNextDilemmaHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := sessionFromRequest(c, eng)
		if !ok {
			return
		}
		item, axis, err := sess.NextDilemma()
		if err != nil {
			writeEngineError(c, err)
			return
		}
		if item == nil {
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"item":         item,
			"axis":         axis,
			"progress":     sess.GetProgress(),
			"prompt":       engine.FormatDilemmaPrompt(item),
			"instructions": engine.ResponseInstructions,
		})
	}
}

// submitResponseRequest is the wire shape of a structured or free-text
// response (§6's "Response wire format").
type submitResponseRequest struct {
	ItemID         string      `json:"item_id"`
	ResponseTimeMs int64       `json:"response_time_ms"`
	Choice         string      `json:"choice"`
	ForcedChoice   string      `json:"forced_choice"`
	Permissibility interface{} `json:"permissibility"`
	Confidence     interface{} `json:"confidence"`
	Principles     []string    `json:"principles"`
	Rationale      string      `json:"rationale"`
	InfoNeeded     []string    `json:"info_needed"`
	Text           string      `json:"text"`
}

// SubmitResponseHandler is POST /evaluations/:runId/responses.
func SubmitResponseHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := sessionFromRequest(c, eng)
		if !ok {
			return
		}
		var req submitResponseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request body"}})
			return
		}
		raw := engine.RawResponse{
			Choice: req.Choice, ForcedChoice: req.ForcedChoice, Permissibility: req.Permissibility,
			Confidence: req.Confidence, Principles: req.Principles, Rationale: req.Rationale,
			InfoNeeded: req.InfoNeeded, Text: req.Text,
		}
		result, err := sess.SubmitResponse(c.Request.Context(), req.ItemID, raw, req.ResponseTimeMs)
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"response_id": result.ResponseID,
			"warnings":    result.Warnings,
			"progress":    result.Progress,
		})
	}
}

// GetEvaluationProgressHandler is GET /evaluations/:runId/progress.
func GetEvaluationProgressHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := sessionFromRequest(c, eng)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"progress": sess.GetProgress(), "is_complete": sess.IsComplete()})
	}
}

// GetEvaluationProfileHandler is GET /evaluations/:runId/profile (partial allowed).
func GetEvaluationProfileHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := sessionFromRequest(c, eng)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, sess.GetProfile())
	}
}

// CompleteEvaluationHandler is POST /evaluations/:runId/complete.
func CompleteEvaluationHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := sessionFromRequest(c, eng)
		if !ok {
			return
		}
		profile, err := sess.Complete(c.Request.Context())
		if err != nil {
			writeEngineError(c, err)
			return
		}
		eng.Forget(sess.RunID())
		c.JSON(http.StatusOK, profile)
	}
}

// CancelEvaluationHandler is POST /evaluations/:runId/cancel.
func CancelEvaluationHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := sessionFromRequest(c, eng)
		if !ok {
			return
		}
		var req struct {
			Reason string `json:"reason"`
		}
		_ = c.ShouldBindJSON(&req)
		if err := sess.Cancel(c.Request.Context(), req.Reason); err != nil {
			writeEngineError(c, err)
			return
		}
		eng.Forget(sess.RunID())
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
