package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kalshinews/internal/service"
)

type IngestHandler struct {
	Ingest *service.IngestService
	Query  *service.QueryService
	Logger *zap.Logger
}

func (h *IngestHandler) Register(r *gin.Engine) {
	group := r.Group("/api")
	group.POST("/ingest/run", h.runIngest)
	group.POST("/refresh", h.refresh)
}

// @Summary Run one ingestion cycle
// @Description Fetches markets and news, persists them and links articles to events.
// @Tags ingest
// @Success 200 {object} apiResponse
// @Router /api/ingest/run [post]
func (h *IngestHandler) runIngest(c *gin.Context) {
	if h.Ingest == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	result, err := h.Ingest.Run(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("manual ingestion failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if h.Query != nil {
		h.Query.Refresh()
	}
	Ok(c, result, nil)
}

// @Summary Drop the serving cache
// @Tags ingest
// @Success 200 {object} apiResponse
// @Router /api/refresh [post]
func (h *IngestHandler) refresh(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	h.Query.Refresh()
	Ok(c, gin.H{"refreshed": true}, nil)
}
