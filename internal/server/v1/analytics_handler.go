package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/unillm/internal/analytics"
	"github.com/nulzo/unillm/pkg/api"
)

type AnalyticsHandler struct {
	service analytics.Service
}

func NewAnalyticsHandler(service analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

// GetUsage returns daily cost totals.
//
// GET /v1/analytics/usage?days=7
func (h *AnalyticsHandler) GetUsage(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil {
		_ = c.Error(api.ValidationError(map[string]string{"days": "must be an integer"}))
		return
	}

	stats, err := h.service.GetUsageOverview(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch analytics", err))
		return
	}

	c.JSON(http.StatusOK, api.NewList(stats))
}

// GetCosts returns the most recent ledger entries.
//
// GET /v1/analytics/costs?model=gpt-4o&limit=50
func (h *AnalyticsHandler) GetCosts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		_ = c.Error(api.ValidationError(map[string]string{"limit": "must be an integer"}))
		return
	}

	recs, err := h.service.GetRecent(c.Request.Context(), c.Query("model"), limit)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch cost records", err))
		return
	}

	c.JSON(http.StatusOK, api.NewList(recs))
}
