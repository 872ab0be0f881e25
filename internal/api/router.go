package api

import (
	"github.com/gin-gonic/gin"

	"market-alert-service/internal/config"
	"market-alert-service/internal/logging"
)

func NewRouter(logger *logging.Logger, cfg config.Config, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	r.GET("/health", h.Health)

	api := r.Group(cfg.API.BasePath)
	{
		api.POST("/runs/:frequency", h.TriggerRun)
	}
	return r
}
