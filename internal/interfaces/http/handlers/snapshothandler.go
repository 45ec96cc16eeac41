package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stagewatch/internal/application/ingest"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
	"stagewatch/internal/shared/normalize"
	"stagewatch/internal/shared/utils"
)

// snapshotReader is the read side this handler needs from the ingest layer.
type snapshotReader interface {
	Get(ctx context.Context, playID uint, cityNorm string) (*ingest.SnapshotView, error)
}

// SnapshotHandler serves the current provider snapshot for a (play, city)
// pair.
type SnapshotHandler struct {
	reader snapshotReader
	logger logger.Interface
}

func NewSnapshotHandler(reader snapshotReader, log logger.Interface) *SnapshotHandler {
	return &SnapshotHandler{
		reader: reader,
		logger: log.Named("snapshot_handler"),
	}
}

// GetSnapshot handles GET /plays/:id/snapshot?city=...
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	playID, err := utils.ParseUintParam(c, "id", "play")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	city := c.Query("city")
	if city == "" {
		utils.ErrorResponseWithError(c, errors.NewValidationError("city query parameter is required"))
		return
	}

	view, err := h.reader.Get(c.Request.Context(), playID, normalize.City(city))
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.Errorw("snapshot read failed", "play_id", playID, "city", city, "error", err)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", view)
}
