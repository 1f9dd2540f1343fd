package store

import (
	"context"
	"errors"

	"github.com/nulzo/unillm/internal/store/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Repository is the main contract for the data layer.
type Repository interface {
	Pricing() PricingRepository
	Costs() CostRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

// PricingRepository holds pricing overrides that take precedence over the built-in catalog.
type PricingRepository interface {
	Upsert(ctx context.Context, rec *model.PricingRecord) error
	Get(ctx context.Context, modelName string) (*model.PricingRecord, error)
	List(ctx context.Context) ([]model.PricingRecord, error)
	Delete(ctx context.Context, modelName string) error
}

// CostRepository is the append-only ledger of computed costs.
type CostRepository interface {
	// Log stores a computed cost.
	Log(ctx context.Context, rec *model.CostRecord) error
	GetByID(ctx context.Context, id string) (*model.CostRecord, error)
	// GetRecent returns the last N records, optionally filtered by model.
	GetRecent(ctx context.Context, modelName string, limit int) ([]model.CostRecord, error)
	// GetDailyStats returns aggregated stats grouped by day and currency.
	GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error)
}
