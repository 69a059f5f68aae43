package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kalshinews/internal/service"
)

type MarketHandler struct {
	Query  *service.QueryService
	Logger *zap.Logger
}

func (h *MarketHandler) Register(r *gin.Engine) {
	group := r.Group("/api")
	group.GET("/topics", h.listTopics)
	group.GET("/markets", h.listMarkets)
	group.GET("/markets/search", h.searchMarkets)
	group.GET("/markets/:ticker", h.getMarket)
	group.GET("/hot", h.listHot)
}

// @Summary List topics
// @Description Markets grouped by category, ordered by total heat.
// @Tags markets
// @Success 200 {object} apiResponse
// @Router /api/topics [get]
func (h *MarketHandler) listTopics(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	topics, err := h.Query.Topics(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list topics failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, topics, map[string]any{"count": len(topics)})
}

// @Summary List ranked markets
// @Tags markets
// @Param category query string false "category filter"
// @Param min_heat query number false "minimum heat score"
// @Param limit query int false "limit"
// @Success 200 {object} apiResponse
// @Router /api/markets [get]
func (h *MarketHandler) listMarkets(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	category := strings.TrimSpace(c.Query("category"))
	minHeat := floatQuery(c, "min_heat", 0)
	limit := intQuery(c, "limit", 50)

	markets, err := h.Query.Markets(c.Request.Context(), category, minHeat, limit)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list markets failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, markets, map[string]any{"count": len(markets)})
}

// @Summary Get one market with its news context
// @Tags markets
// @Param ticker path string true "market ticker"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/markets/{ticker} [get]
func (h *MarketHandler) getMarket(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	ticker := strings.TrimSpace(c.Param("ticker"))
	if ticker == "" {
		Error(c, http.StatusBadRequest, "ticker required", nil)
		return
	}
	view, err := h.Query.MarketDetail(c.Request.Context(), ticker)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("get market failed", zap.String("ticker", ticker), zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if view == nil {
		Error(c, http.StatusNotFound, "market not found", nil)
		return
	}
	Ok(c, view, nil)
}

// @Summary List hot markets
// @Description Markets ranked by heat plus news pressure, deduplicated by title.
// @Tags markets
// @Param limit query int false "limit"
// @Success 200 {object} apiResponse
// @Router /api/hot [get]
func (h *MarketHandler) listHot(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 20)
	markets, err := h.Query.Hot(c.Request.Context(), limit)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list hot markets failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, markets, map[string]any{"count": len(markets)})
}

// @Summary Full-text market search
// @Tags markets
// @Param q query string true "search query"
// @Param status query string false "status filter"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/markets/search [get]
func (h *MarketHandler) searchMarkets(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		Error(c, http.StatusBadRequest, "q required", nil)
		return
	}
	status := strQueryPtr(c, "status")
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	markets, err := h.Query.Search(c.Request.Context(), query, status, limit, offset)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("market search failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, markets, map[string]any{"count": len(markets)})
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func floatQuery(c *gin.Context, key string, def float64) float64 {
	if val := c.Query(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return def
}

func strQueryPtr(c *gin.Context, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}
