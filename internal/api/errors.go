package api

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealdesk/server/internal/analysis"
	"dealdesk/server/internal/database"
	"dealdesk/server/internal/photos"
)

// respondError maps domain errors onto HTTP responses. Unexpected errors are
// logged and answered with a generic message.
func (h *Handler) respondError(c *gin.Context, err error, message string) {
	if kind := analysis.KindOf(err); kind != "" {
		body := gin.H{
			"error":  err.Error(),
			"kind":   kind,
			"fields": analysis.Fields(err),
		}
		var se *analysis.ScenarioError
		if errors.As(err, &se) {
			body["scenario_id"] = se.ScenarioID
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
	case errors.Is(err, photos.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, photos.ErrUnsupportedType), errors.Is(err, photos.ErrEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
