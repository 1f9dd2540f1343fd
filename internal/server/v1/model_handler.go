package v1

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/unillm/internal/catalog"
	"github.com/nulzo/unillm/pkg/api"
	"github.com/nulzo/unillm/pkg/configitem"
	"github.com/nulzo/unillm/pkg/modelschema"
	"github.com/nulzo/unillm/pkg/pricing"
)

type ModelHandler struct {
	catalog Catalog
}

func NewModelHandler(catalog Catalog) *ModelHandler {
	return &ModelHandler{catalog: catalog}
}

// ModelDetail is a model's summary plus its config item defs and pricing.
type ModelDetail struct {
	modelschema.Summary
	Config        map[string]configitem.Def `json:"config"`
	Pricing       *pricing.ModelPricing     `json:"pricing,omitempty"`
	PricingSource catalog.Source            `json:"pricingSource,omitempty"`
}

// ListModels supports ?kind=chat|embedding and ?modality=image filters.
//
// GET /v1/models
func (h *ModelHandler) ListModels(c *gin.Context) {
	kind := modelschema.Kind(c.Query("kind"))
	modality := modelschema.Modality(c.Query("modality"))

	all := h.catalog.Models()
	out := make([]modelschema.Summary, 0, len(all))
	for _, m := range all {
		if kind != "" && m.Kind != kind {
			continue
		}
		if modality != "" && !slices.Contains(m.Modalities, modality) {
			continue
		}
		out = append(out, m)
	}

	c.JSON(http.StatusOK, api.NewList(out))
}

// GetModel returns one model with its config defs.
//
// GET /v1/models/:name
func (h *ModelHandler) GetModel(c *gin.Context) {
	name := c.Param("name")
	m, err := h.catalog.Model(name)
	if err != nil {
		_ = c.Error(err)
		return
	}

	detail := ModelDetail{
		Summary:       m.Summary(),
		Config:        m.ModelConfig().Def,
		PricingSource: h.catalog.PricingSource(name),
	}
	if detail.Config == nil {
		detail.Config = map[string]configitem.Def{}
	}
	if p, err := m.Pricing(); err == nil {
		detail.Pricing = p
	}

	c.JSON(http.StatusOK, detail)
}

// PrepareConfig validates user-facing config keys and returns provider
// wire params.
//
// POST /v1/models/:name/config
func (h *ModelHandler) PrepareConfig(c *gin.Context) {
	var req api.ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(map[string]string{"body": err.Error()}))
		return
	}
	if req.Config == nil {
		req.Config = map[string]any{}
	}

	name := c.Param("name")
	params, err := h.catalog.PrepareConfig(c.Request.Context(), name, req.Config)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, api.ConfigResponse{Model: name, Params: params})
}
