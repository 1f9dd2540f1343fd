package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/unillm/internal/analytics"
	"github.com/nulzo/unillm/internal/server/validation"
	"github.com/nulzo/unillm/pkg/api"
	"github.com/nulzo/unillm/pkg/pricing"
)

type CostHandler struct {
	catalog  Catalog
	ingestor analytics.Ingestor
}

// NewCostHandler builds the handler. A nil ingestor disables recording.
func NewCostHandler(catalog Catalog, ingestor analytics.Ingestor) *CostHandler {
	return &CostHandler{catalog: catalog, ingestor: ingestor}
}

// EstimateCost prices one usage report.
//
// POST /v1/cost
func (h *CostHandler) EstimateCost(c *gin.Context) {
	var req api.CostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validation.Parse(err)))
		return
	}

	resp, err := h.estimate(c, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BatchCost prices several usage reports and totals them per currency.
//
// POST /v1/cost/batch
func (h *CostHandler) BatchCost(c *gin.Context) {
	var req api.BatchCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validation.Parse(err)))
		return
	}

	out := api.BatchCostResponse{
		Items: make([]api.CostResponse, 0, len(req.Items)),
		Total: map[string]float64{},
	}
	for _, item := range req.Items {
		resp, err := h.estimate(c, item)
		if err != nil {
			_ = c.Error(err)
			return
		}
		out.Items = append(out.Items, *resp)
		out.Total[resp.Currency] += resp.Cost
	}
	c.JSON(http.StatusOK, out)
}

func (h *CostHandler) estimate(c *gin.Context, req api.CostRequest) (*api.CostResponse, error) {
	usage := pricing.UsageTokens{
		PromptTokens:     req.Usage.PromptTokens,
		CompletionTokens: req.Usage.CompletionTokens,
	}
	res, err := h.catalog.EstimateCost(c.Request.Context(), req.Model, usage)
	if err != nil {
		return nil, err
	}

	resp := &api.CostResponse{
		Model:    req.Model,
		Cost:     res.Cost,
		Currency: res.Currency,
		Usage:    req.Usage,
		Breakdown: api.CostBreakdown{
			InputRate:  res.Breakdown.InputRate,
			OutputRate: res.Breakdown.OutputRate,
			InputCost:  res.Breakdown.InputCost,
			OutputCost: res.Breakdown.OutputCost,
		},
	}
	if req.Record && h.ingestor != nil {
		rec := analytics.NewRecord(req.Model, res, c.ClientIP())
		h.ingestor.Record(rec)
		resp.RecordID = rec.ID
	}
	return resp, nil
}
