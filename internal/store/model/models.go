package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nulzo/unillm/pkg/pricing"
)

// PricingRecord is a persisted pricing override for one model.
type PricingRecord struct {
	Model     string    `db:"model" json:"model"`
	Currency  string    `db:"currency" json:"currency"`
	TiersJSON string    `db:"tiers_json" json:"-"`
	Source    string    `db:"source" json:"source"` // file path, "api", "seed"
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewPricingRecord flattens p for storage.
func NewPricingRecord(p *pricing.ModelPricing, source string) (*PricingRecord, error) {
	tiers, err := json.Marshal(p.Tiers())
	if err != nil {
		return nil, fmt.Errorf("encode tiers for %s: %w", p.Model(), err)
	}
	now := time.Now().UTC()
	return &PricingRecord{
		Model:     p.Model(),
		Currency:  p.Currency(),
		TiersJSON: string(tiers),
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Pricing rebuilds and validates the stored schedule.
func (r *PricingRecord) Pricing() (*pricing.ModelPricing, error) {
	var tiers []pricing.PricingTier
	if err := json.Unmarshal([]byte(r.TiersJSON), &tiers); err != nil {
		return nil, fmt.Errorf("decode tiers for %s: %w", r.Model, err)
	}
	return pricing.NewModelPricing(r.Model, r.Currency, tiers)
}

// CostRecord is one entry of the cost ledger.
type CostRecord struct {
	ID               string    `db:"id" json:"id"`
	Model            string    `db:"model" json:"model"`
	PromptTokens     int64     `db:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens int64     `db:"completion_tokens" json:"completion_tokens"`
	InputRate        float64   `db:"input_rate" json:"input_rate"`
	OutputRate       float64   `db:"output_rate" json:"output_rate"`
	Cost             float64   `db:"cost" json:"cost"`
	Currency         string    `db:"currency" json:"currency"`
	ClientIP         string    `db:"client_ip" json:"client_ip,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// DailyStats represents aggregated usage data for a specific day.
type DailyStats struct {
	Date             string  `db:"date" json:"date"`
	Currency         string  `db:"currency" json:"currency"`
	TotalRequests    int     `db:"total_requests" json:"total_requests"`
	PromptTokens     int64   `db:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens int64   `db:"completion_tokens" json:"completion_tokens"`
	TotalCost        float64 `db:"total_cost" json:"total_cost"`
}
