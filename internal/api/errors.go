package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mse-engine/internal/engine"
)

// writeEngineError maps the engine's error taxonomy (§7) onto HTTP status
// codes, in the teacher's gin.H{"error": ...} response shape.
func writeEngineError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, new(*engine.ValidationError)), errors.Is(err, engine.ErrValidation):
		status = http.StatusBadRequest
	case errors.As(err, new(*engine.StateViolationError)), errors.Is(err, engine.ErrStateViolation):
		status = http.StatusConflict
	case errors.As(err, new(*engine.NotFoundError)), errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, new(*engine.VersionError)), errors.Is(err, engine.ErrVersion):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrStorage):
		status = http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrProvider):
		status = http.StatusBadGateway
	case errors.As(err, new(*engine.NumericalError)), errors.Is(err, engine.ErrNumerical):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": gin.H{"message": err.Error()}})
}

func agentIDFromContext(c *gin.Context) string {
	v, _ := c.Get("agentId")
	id, _ := v.(string)
	return id
}
