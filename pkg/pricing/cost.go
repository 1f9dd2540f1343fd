package pricing

import (
	"fmt"
	"reflect"

	"github.com/nulzo/unillm/pkg/api"
	"go.uber.org/zap"
)

const tokensPerUnit = 1_000_000

// Kind selects which side of a rate set is read.
type Kind string

const (
	KindInput  Kind = "input"
	KindOutput Kind = "output"
)

// UsageTokens is the token usage of one completion.
type UsageTokens struct {
	PromptTokens     int64 `json:"promptTokens" yaml:"prompt_tokens" binding:"gte=0"`
	CompletionTokens int64 `json:"completionTokens" yaml:"completion_tokens" binding:"gte=0"`
}

// Breakdown splits a cost into its input and output parts.
type Breakdown struct {
	InputRate  float64 `json:"inputRate"`
	OutputRate float64 `json:"outputRate"`
	InputCost  float64 `json:"inputCost"`
	OutputCost float64 `json:"outputCost"`
}

// CostResult is the computed cost of one completion.
type CostResult struct {
	Cost         float64       `json:"cost"`
	Currency     string        `json:"currency"`
	PricingModel *ModelPricing `json:"pricingModel"`
	UsageTokens  UsageTokens   `json:"usageTokens"`
	Breakdown    Breakdown     `json:"breakdown"`
}

// Provider is anything able to produce a pricing schedule: an explicit
// *ModelPricing, or a model schema that carries one.
type Provider interface {
	Pricing() (*ModelPricing, error)
}

// ResolveTierRate returns the per-million rate of the first tier containing
// tokenCount, reading Prices.Base for kind. A tier without a base rate yields
// zero. ok is false when no tier matches.
func ResolveTierRate(tiers []PricingTier, tokenCount int64, kind Kind) (rate float64, ok bool) {
	idx, ok := MatchTier(tiers, tokenCount)
	if !ok {
		return 0, false
	}
	return baseRate(tiers[idx].Prices.Base, kind), true
}

// MatchTier returns the index of the first tier containing tokenCount.
func MatchTier(tiers []PricingTier, tokenCount int64) (int, bool) {
	for i, t := range tiers {
		if t.Contains(tokenCount) {
			return i, true
		}
	}
	return -1, false
}

func baseRate(r *Rates, kind Kind) float64 {
	if r == nil {
		return 0
	}
	var v *float64
	switch kind {
	case KindInput:
		v = r.Input
	case KindOutput:
		v = r.Output
	}
	if v == nil {
		return 0
	}
	return *v
}

// Calculator computes costs. The zero value is not usable; use NewCalculator.
type Calculator struct {
	logger *zap.Logger
	strict bool
}

type Option func(*Calculator)

// WithLogger sets the logger used for tier-miss warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStrict makes a tier miss fail the calculation instead of pricing the
// token category at zero.
func WithStrict(strict bool) Option {
	return func(c *Calculator) {
		c.strict = strict
	}
}

func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Strict reports whether tier misses are fatal.
func (c *Calculator) Strict() bool { return c.strict }

// ResolveRate resolves the rate for tokenCount. In lenient mode a miss is
// logged and priced at zero.
func (c *Calculator) ResolveRate(p *ModelPricing, tokenCount int64, kind Kind) (float64, error) {
	rate, ok := ResolveTierRate(p.tiers, tokenCount, kind)
	if ok {
		return rate, nil
	}

	if c.strict {
		return 0, api.ConfigurationError("pricing tier lookup failed",
			fmt.Errorf("%w: %d %s tokens for model %q", ErrNoTierMatch, tokenCount, kind, p.model))
	}

	c.logger.Warn("No pricing tier matches token count, using zero rate",
		zap.String("model", p.model),
		zap.Int64("tokens", tokenCount),
		zap.String("kind", string(kind)),
	)
	return 0, nil
}

// ComputeCost prices usage against the schedule produced by source.
// A nil source, or one that yields no schedule, is a configuration error.
func (c *Calculator) ComputeCost(usage UsageTokens, source Provider) (*CostResult, error) {
	p, err := resolveSource(source)
	if err != nil {
		return nil, err
	}

	inRate, err := c.ResolveRate(p, usage.PromptTokens, KindInput)
	if err != nil {
		return nil, err
	}
	outRate, err := c.ResolveRate(p, usage.CompletionTokens, KindOutput)
	if err != nil {
		return nil, err
	}

	b := Breakdown{
		InputRate:  inRate,
		OutputRate: outRate,
		InputCost:  float64(usage.PromptTokens) / tokensPerUnit * inRate,
		OutputCost: float64(usage.CompletionTokens) / tokensPerUnit * outRate,
	}

	currency := p.currency
	if currency == "" {
		currency = DefaultCurrency
	}

	return &CostResult{
		Cost:         b.InputCost + b.OutputCost,
		Currency:     currency,
		PricingModel: p,
		UsageTokens:  usage,
		Breakdown:    b,
	}, nil
}

func resolveSource(source Provider) (*ModelPricing, error) {
	if source == nil {
		return nil, api.ConfigurationError("pricing is required to compute cost", ErrMissingPricing)
	}
	// a typed nil pointer inside the interface, e.g. a registry miss
	if v := reflect.ValueOf(source); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, api.ConfigurationError("pricing is required to compute cost", ErrMissingPricing)
	}

	p, err := source.Pricing()
	if err != nil {
		return nil, api.ConfigurationError("could not derive pricing", fmt.Errorf("%w: %v", ErrMissingPricing, err))
	}
	if p == nil {
		return nil, api.ConfigurationError("pricing is required to compute cost", ErrMissingPricing)
	}
	return p, nil
}

var defaultCalculator = NewCalculator()

// ComputeCost prices usage with a lenient calculator that discards warnings.
func ComputeCost(usage UsageTokens, source Provider) (*CostResult, error) {
	return defaultCalculator.ComputeCost(usage, source)
}
