package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/unillm/internal/server/validation"
	"github.com/nulzo/unillm/pkg/api"
	"github.com/nulzo/unillm/pkg/pricing"
)

type AdminHandler struct {
	catalog Catalog
}

func NewAdminHandler(catalog Catalog) *AdminHandler {
	return &AdminHandler{catalog: catalog}
}

// Reload re-reads catalog files and stored overrides.
//
// POST /v1/admin/reload
func (h *AdminHandler) Reload(c *gin.Context) {
	stats, err := h.catalog.Reload(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PutPricing stores a pricing override for a model.
//
// PUT /v1/admin/pricing/:name
func (h *AdminHandler) PutPricing(c *gin.Context) {
	var req api.PricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validation.Parse(err)))
		return
	}

	name := c.Param("name")
	p, err := toPricing(name, req)
	if err != nil {
		_ = c.Error(api.InvalidRequestError("invalid pricing", err))
		return
	}
	if err := h.catalog.SetPricing(c.Request.Context(), name, p); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePricing drops a stored override so the model falls back to its
// file or built-in pricing.
//
// DELETE /v1/admin/pricing/:name
func (h *AdminHandler) DeletePricing(c *gin.Context) {
	if err := h.catalog.DeletePricing(c.Request.Context(), c.Param("name")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toPricing(name string, req api.PricingRequest) (*pricing.ModelPricing, error) {
	tiers := make([]pricing.PricingTier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		tier := pricing.PricingTier{
			MinTokens: t.MinTokens,
			MaxTokens: t.MaxTokens,
			Prices: pricing.TierPrices{
				Base: &pricing.Rates{Input: t.InputRate, Output: t.OutputRate},
			},
		}
		if t.CachedInputRate != nil {
			tier.Prices.Cached = &pricing.Rates{Input: t.CachedInputRate}
		}
		tiers = append(tiers, tier)
	}
	return pricing.NewModelPricing(name, req.Currency, tiers)
}
