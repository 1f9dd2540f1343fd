// Package pricing resolves tiered per-million-token rates and computes the
// cost of a completion from its token usage.
package pricing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultCurrency is used when a schedule does not name one.
const DefaultCurrency = "USD"

var (
	ErrInvalidPricing = errors.New("invalid model pricing")
	ErrMissingPricing = errors.New("no model pricing supplied")
	ErrNoTierMatch    = errors.New("no pricing tier matches token count")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Rates are prices per 1,000,000 tokens. A nil rate is treated as zero.
type Rates struct {
	Input  *float64 `json:"input,omitempty" yaml:"input,omitempty" validate:"omitempty,gte=0"`
	Output *float64 `json:"output,omitempty" yaml:"output,omitempty" validate:"omitempty,gte=0"`
}

// TierPrices groups the rate sets a tier may carry.
type TierPrices struct {
	Base      *Rates `json:"base,omitempty" yaml:"base,omitempty"`
	Cached    *Rates `json:"cached,omitempty" yaml:"cached,omitempty"`
	Reasoning *Rates `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// PricingTier is one band of a stepped schedule. MaxTokens is exclusive; nil
// means the band is open-ended.
type PricingTier struct {
	MinTokens int64      `json:"minTokens" yaml:"minTokens" validate:"gte=0"`
	MaxTokens *int64     `json:"maxTokens" yaml:"maxTokens"`
	Prices    TierPrices `json:"prices" yaml:"prices"`
}

// Contains reports whether tokenCount falls inside the band.
func (t PricingTier) Contains(tokenCount int64) bool {
	return tokenCount >= t.MinTokens && (t.MaxTokens == nil || tokenCount < *t.MaxTokens)
}

// ModelPricing is an immutable, validated tier schedule. Build it with
// NewModelPricing or by unmarshalling JSON/YAML; both enforce the same rules.
type ModelPricing struct {
	model    string
	currency string
	tiers    []PricingTier
}

type pricingDoc struct {
	Model    string        `json:"model,omitempty" yaml:"model,omitempty"`
	Currency string        `json:"currency,omitempty" yaml:"currency,omitempty"`
	Tiers    []PricingTier `json:"tiers" yaml:"tiers" validate:"required,min=1,dive"`
}

// NewModelPricing validates tiers and returns the schedule. The tiers must
// start at zero, be contiguous, and end with exactly one open-ended tier.
func NewModelPricing(model, currency string, tiers []PricingTier) (*ModelPricing, error) {
	doc := pricingDoc{Model: model, Currency: currency, Tiers: tiers}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPricing, err)
	}
	if err := checkTiers(tiers); err != nil {
		return nil, err
	}

	if currency == "" {
		currency = DefaultCurrency
	}

	cloned := make([]PricingTier, len(tiers))
	for i, t := range tiers {
		cloned[i] = cloneTier(t)
	}

	return &ModelPricing{model: model, currency: currency, tiers: cloned}, nil
}

// MustModelPricing is NewModelPricing for static tables; it panics on error.
func MustModelPricing(model, currency string, tiers []PricingTier) *ModelPricing {
	p, err := NewModelPricing(model, currency, tiers)
	if err != nil {
		panic(err)
	}
	return p
}

// Flat is a single open-ended tier charging input/output per million tokens.
func Flat(model string, input, output float64) *ModelPricing {
	return MustModelPricing(model, DefaultCurrency, []PricingTier{
		{MinTokens: 0, Prices: TierPrices{Base: &Rates{Input: Rate(input), Output: Rate(output)}}},
	})
}

func checkTiers(tiers []PricingTier) error {
	if tiers[0].MinTokens != 0 {
		return fmt.Errorf("%w: first tier must start at 0 tokens, got %d", ErrInvalidPricing, tiers[0].MinTokens)
	}

	for i, t := range tiers {
		if t.MaxTokens != nil && *t.MaxTokens <= t.MinTokens {
			return fmt.Errorf("%w: tier %d: maxTokens %d must be greater than minTokens %d",
				ErrInvalidPricing, i, *t.MaxTokens, t.MinTokens)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if prev.MaxTokens == nil {
			return fmt.Errorf("%w: tier %d follows an open-ended tier", ErrInvalidPricing, i)
		}
		if t.MinTokens != *prev.MaxTokens {
			return fmt.Errorf("%w: tier %d starts at %d but tier %d ends at %d",
				ErrInvalidPricing, i, t.MinTokens, i-1, *prev.MaxTokens)
		}
	}

	if tiers[len(tiers)-1].MaxTokens != nil {
		return fmt.Errorf("%w: last tier must be open-ended", ErrInvalidPricing)
	}

	return nil
}

func (p *ModelPricing) Model() string    { return p.model }
func (p *ModelPricing) Currency() string { return p.currency }

// Tiers returns a copy of the schedule.
func (p *ModelPricing) Tiers() []PricingTier {
	out := make([]PricingTier, len(p.tiers))
	for i, t := range p.tiers {
		out[i] = cloneTier(t)
	}
	return out
}

// Pricing makes an explicit schedule usable wherever a Provider is expected.
func (p *ModelPricing) Pricing() (*ModelPricing, error) {
	return p, nil
}

// WithModel returns a copy of the schedule labelled with another model name.
func (p *ModelPricing) WithModel(model string) *ModelPricing {
	return &ModelPricing{model: model, currency: p.currency, tiers: p.Tiers()}
}

func (p *ModelPricing) doc() pricingDoc {
	return pricingDoc{Model: p.model, Currency: p.currency, Tiers: p.tiers}
}

func (p *ModelPricing) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.doc())
}

func (p *ModelPricing) UnmarshalJSON(data []byte) error {
	var doc pricingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return p.fromDoc(doc)
}

func (p *ModelPricing) MarshalYAML() (interface{}, error) {
	return p.doc(), nil
}

func (p *ModelPricing) UnmarshalYAML(value *yaml.Node) error {
	var doc pricingDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	return p.fromDoc(doc)
}

func (p *ModelPricing) fromDoc(doc pricingDoc) error {
	built, err := NewModelPricing(doc.Model, doc.Currency, doc.Tiers)
	if err != nil {
		return err
	}
	*p = *built
	return nil
}

// Rate returns a pointer to v, for building tier literals.
func Rate(v float64) *float64 { return &v }

// Limit returns a pointer to n, for building tier literals.
func Limit(n int64) *int64 { return &n }

func cloneTier(t PricingTier) PricingTier {
	out := PricingTier{MinTokens: t.MinTokens}
	if t.MaxTokens != nil {
		out.MaxTokens = Limit(*t.MaxTokens)
	}
	out.Prices = TierPrices{
		Base:      cloneRates(t.Prices.Base),
		Cached:    cloneRates(t.Prices.Cached),
		Reasoning: cloneRates(t.Prices.Reasoning),
	}
	return out
}

func cloneRates(r *Rates) *Rates {
	if r == nil {
		return nil
	}
	out := &Rates{}
	if r.Input != nil {
		out.Input = Rate(*r.Input)
	}
	if r.Output != nil {
		out.Output = Rate(*r.Output)
	}
	return out
}
