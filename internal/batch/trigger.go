package batch

import (
	"context"
	"net/http"

	"market-alert-service/internal/models"
)

// TriggerEvent starts a run. An empty Frequency falls back to the configured default.
type TriggerEvent struct {
	Frequency models.Frequency `json:"frequency"`
	Source    string           `json:"source,omitempty"`
}

type Response struct {
	StatusCode int
	Body       Result
}

// Handler adapts an Orchestrator to the trigger entry point.
type Handler struct {
	orchestrator *Orchestrator
	defaultFreq  models.Frequency
}

func NewHandler(o *Orchestrator, defaultFrequency models.Frequency) *Handler {
	return &Handler{orchestrator: o, defaultFreq: defaultFrequency}
}

// HandleTrigger answers 200 whenever the run completed, even with per-alert errors,
// and 500 only when the alerts could not be listed.
func (h *Handler) HandleTrigger(ctx context.Context, event TriggerEvent) Response {
	frequency := event.Frequency
	if frequency == "" {
		frequency = h.defaultFreq
	}
	if event.Source != "" {
		h.orchestrator.logger.WithFields(map[string]interface{}{
			"frequency": string(frequency),
			"source":    event.Source,
		}).Infof("Run triggered")
	}

	result := h.orchestrator.Run(ctx, frequency)
	if !result.Success {
		return Response{StatusCode: http.StatusInternalServerError, Body: result}
	}
	return Response{StatusCode: http.StatusOK, Body: result}
}
