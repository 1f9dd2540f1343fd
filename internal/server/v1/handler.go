package v1

import (
	"context"

	"github.com/nulzo/unillm/internal/catalog"
	"github.com/nulzo/unillm/pkg/modelschema"
	"github.com/nulzo/unillm/pkg/pricing"
)

// Catalog is the part of catalog.Service the handlers use.
type Catalog interface {
	Models() []modelschema.Summary
	Model(name string) (modelschema.Model, error)
	PricingSource(name string) catalog.Source
	EstimateCost(ctx context.Context, name string, usage pricing.UsageTokens) (*pricing.CostResult, error)
	PrepareConfig(ctx context.Context, name string, raw map[string]any) (map[string]any, error)
	Reload(ctx context.Context) (*catalog.ReloadStats, error)
	SetPricing(ctx context.Context, name string, p *pricing.ModelPricing) error
	DeletePricing(ctx context.Context, name string) error
}

var _ Catalog = (*catalog.Service)(nil)
