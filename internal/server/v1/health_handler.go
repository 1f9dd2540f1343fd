package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/unillm/internal/version"
	"github.com/nulzo/unillm/pkg/api"
)

type HealthHandler struct {
	catalog Catalog
}

func NewHealthHandler(catalog Catalog) *HealthHandler {
	return &HealthHandler{catalog: catalog}
}

// Health returns liveness plus the number of models served.
//
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:  "ok",
		Version: version.AppVersion,
		Models:  len(h.catalog.Models()),
	})
}
