package modeldata

import "github.com/nulzo/unillm/pkg/pricing"

// USD per million tokens.

func rates(in, out float64) *pricing.Rates {
	return &pricing.Rates{Input: pricing.Rate(in), Output: pricing.Rate(out)}
}

func cachedInput(in float64) *pricing.Rates {
	return &pricing.Rates{Input: pricing.Rate(in)}
}

func flat(in, out, cached float64) *pricing.ModelPricing {
	tier := pricing.PricingTier{MinTokens: 0, Prices: pricing.TierPrices{Base: rates(in, out)}}
	if cached > 0 {
		tier.Prices.Cached = cachedInput(cached)
	}
	return pricing.MustModelPricing("", "", []pricing.PricingTier{tier})
}

// longContext is a two-tier schedule that switches rates at boundary prompt tokens.
func longContext(boundary int64, short, long pricing.TierPrices) *pricing.ModelPricing {
	return pricing.MustModelPricing("", "", []pricing.PricingTier{
		{MinTokens: 0, MaxTokens: pricing.Limit(boundary), Prices: short},
		{MinTokens: boundary, Prices: long},
	})
}

func embedding(in float64) *pricing.ModelPricing {
	return pricing.MustModelPricing("", "", []pricing.PricingTier{
		{MinTokens: 0, Prices: pricing.TierPrices{Base: &pricing.Rates{Input: pricing.Rate(in), Output: pricing.Rate(0)}}},
	})
}
