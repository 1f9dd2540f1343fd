package api

// Usage mirrors the token counts a provider reports back for one call.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens" binding:"gte=0"`
	CompletionTokens int64 `json:"completion_tokens" binding:"gte=0"`
}

type CostRequest struct {
	// model name as listed by GET /v1/models
	Model string `json:"model" binding:"required"`
	Usage Usage  `json:"usage"`

	// Record appends the computed cost to the ledger.
	Record bool `json:"record,omitempty"`
}

type BatchCostRequest struct {
	Items []CostRequest `json:"items" binding:"required,min=1,max=100,dive"`
}

// ConfigRequest carries user-facing config keys, e.g. {"maxTokens": 512}.
type ConfigRequest struct {
	Config map[string]any `json:"config"`
}

// TierRequest is one band of a pricing override, in USD (or Currency) per
// million tokens.
type TierRequest struct {
	MinTokens       int64    `json:"min_tokens" binding:"gte=0"`
	MaxTokens       *int64   `json:"max_tokens,omitempty"`
	InputRate       *float64 `json:"input,omitempty" binding:"omitempty,gte=0"`
	OutputRate      *float64 `json:"output,omitempty" binding:"omitempty,gte=0"`
	CachedInputRate *float64 `json:"cached_input,omitempty" binding:"omitempty,gte=0"`
}

type PricingRequest struct {
	Currency string        `json:"currency,omitempty" binding:"omitempty,len=3"`
	Tiers    []TierRequest `json:"tiers" binding:"required,min=1,dive"`
}
