package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
	"stagewatch/internal/shared/utils"
)

// refreshTrigger starts one link's poll cycle ahead of schedule.
type refreshTrigger interface {
	Trigger(ctx context.Context, source vo.Source, sourceID string) (uint, error)
}

// RefreshHandler lets operators refresh a single source link out of band.
type RefreshHandler struct {
	refresh refreshTrigger
	logger  logger.Interface
}

func NewRefreshHandler(refresh refreshTrigger, log logger.Interface) *RefreshHandler {
	return &RefreshHandler{
		refresh: refresh,
		logger:  log.Named("refresh_handler"),
	}
}

type refreshRequest struct {
	Source   string `json:"source" binding:"required"`
	SourceID string `json:"source_id" binding:"required"`
}

// TriggerRefresh handles POST /refresh. The cycle runs in the background;
// the caller gets 202 with the link ID.
func (h *RefreshHandler) TriggerRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("source and source_id are required"))
		return
	}

	source, err := vo.NewSource(req.Source)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError(err.Error()))
		return
	}

	linkID, err := h.refresh.Trigger(c.Request.Context(), source, req.SourceID)
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.Errorw("refresh trigger failed",
				"source", req.Source, "source_id", req.SourceID, "error", err)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "refresh scheduled", gin.H{
		"link_id": linkID,
	})
}
