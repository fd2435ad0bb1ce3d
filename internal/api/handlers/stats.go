package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/tubefetch/internal/models"
	"github.com/your-org/tubefetch/internal/videourl"
	"github.com/your-org/tubefetch/pkg/dto"
)

// CountReader reads per-video download counters.
type CountReader interface {
	Counts(ctx context.Context, id models.VideoID) (map[string]int64, error)
}

type StatsHandler struct {
	counts CountReader
}

// NewStatsHandler returns a handler answering 404 when counts is nil.
func NewStatsHandler(counts CountReader) *StatsHandler {
	return &StatsHandler{counts: counts}
}

// Get handles GET /v1/stats/:video_id.
func (h *StatsHandler) Get(c *gin.Context) {
	if h.counts == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "download statistics are disabled"})
		return
	}

	id := c.Param("video_id")
	if len(id) != videourl.IDLength {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid video id"})
		return
	}

	counts, err := h.counts.Counts(c.Request.Context(), models.VideoID(id))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "download statistics are unavailable"})
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, dto.StatsResponse{VideoID: id, Downloads: counts, Total: total})
}
