package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"market-alert-service/internal/batch"
	"market-alert-service/internal/logging"
	"market-alert-service/internal/models"
)

// Trigger starts an evaluation run and reports its outcome.
type Trigger interface {
	HandleTrigger(ctx context.Context, event batch.TriggerEvent) batch.Response
}

var frequencyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

type Handler struct {
	trigger Trigger
	logger  *logging.Logger
}

func NewHandler(trigger Trigger, logger *logging.Logger) *Handler {
	return &Handler{trigger: trigger, logger: logger}
}

type runRequest struct {
	Source string `json:"source"`
}

func (h *Handler) TriggerRun(c *gin.Context) {
	frequency := strings.ToUpper(c.Param("frequency"))
	if !frequencyPattern.MatchString(frequency) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid frequency"})
		return
	}

	var req runRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.logger.Errorf("Invalid request body for run: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
			return
		}
	}
	if req.Source == "" {
		req.Source = "http"
	}

	resp := h.trigger.HandleTrigger(c.Request.Context(), batch.TriggerEvent{
		Frequency: models.Frequency(frequency),
		Source:    req.Source,
	})
	c.JSON(resp.StatusCode, resp.Body)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
