package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/utils"
)

// SystemHandler serves the liveness endpoint.
type SystemHandler struct{}

func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

func (h *SystemHandler) HealthCheck(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"status":  "ok",
		"service": "stagewatch",
		"time":    biztime.NowUTC(),
	})
}
