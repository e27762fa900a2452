package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmayman/shopify-notion-sync/internal/service"
)

type SyncHandler struct {
	Service *service.SyncService
	Logger  *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync")
	group.GET("", h.get)
	group.POST("", h.runSync)
	group.POST("/reset", h.reset)
}

// get multiplexes on the endpoint query parameter: status when requested,
// connection test otherwise.
func (h *SyncHandler) get(c *gin.Context) {
	if strings.EqualFold(c.Query("endpoint"), "status") {
		h.status(c)
		return
	}
	h.testConnections(c)
}

// @Summary Test Shopify and Notion connections
// @Tags sync
// @Success 200 {object} apiResponse
// @Router /api/sync [get]
func (h *SyncHandler) testConnections(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	result := h.Service.TestConnections(c.Request.Context())
	Ok(c, result, nil)
}

// @Summary Sync statistics and next-strategy preview
// @Tags sync
// @Param endpoint query string true "must be status"
// @Success 200 {object} apiResponse
// @Router /api/sync [get]
func (h *SyncHandler) status(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	report, err := h.Service.Status(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("status read failed", zap.Error(err))
		}
		Error(c, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}
	Ok(c, report, nil)
}

// @Summary Run one sync
// @Tags sync
// @Param mode query string false "sync mode (initial|single)"
// @Param limit query int false "max orders to fetch (1-1000)"
// @Param order_id query string false "order id for single mode"
// @Success 200 {object} apiResponse
// @Router /api/sync [post]
func (h *SyncHandler) runSync(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}

	opts := service.RunOptions{
		Mode:    parseMode(c.Query("mode")),
		Limit:   intQuery(c, "limit", 0),
		OrderID: strings.TrimSpace(c.Query("order_id")),
	}
	if opts.Limit == 0 {
		var body struct {
			Limit int `json:"limit"`
		}
		if err := c.ShouldBindJSON(&body); err == nil && body.Limit > 0 {
			opts.Limit = body.Limit
		}
	}

	summary, err := h.Service.Run(c.Request.Context(), opts)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("sync run failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), map[string]any{"summary": summary})
		return
	}
	switch summary.Status {
	case service.StatusBusy:
		c.JSON(http.StatusConflict, apiResponse{Code: http.StatusConflict, Message: summary.Message, Data: summary})
	case service.StatusUnavailable:
		c.JSON(http.StatusServiceUnavailable, apiResponse{Code: http.StatusServiceUnavailable, Message: summary.Message, Data: summary})
	default:
		Ok(c, summary, nil)
	}
}

// @Summary Wipe all sync state
// @Tags sync
// @Success 200 {object} apiResponse
// @Router /api/sync/reset [post]
func (h *SyncHandler) reset(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	report, err := h.Service.Reset(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("reset failed", zap.Error(err))
		}
		Error(c, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("sync state wiped",
			zap.Int64("orders_removed", report.Before.TotalSyncedOrders),
			zap.Int64("failed_removed", report.Before.FailedOrdersCount))
	}
	Ok(c, report, nil)
}

func parseMode(raw string) service.SyncMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "initial":
		return service.ModeInitial
	case "single":
		return service.ModeSingle
	default:
		return service.ModeAuto
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
