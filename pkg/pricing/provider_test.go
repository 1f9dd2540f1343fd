package pricing_test

import (
	"testing"

	"github.com/nulzo/unillm/pkg/modelschema"
	"github.com/nulzo/unillm/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCost_NilSchemaProviders(t *testing.T) {
	reg, err := modelschema.NewRegistry()
	require.NoError(t, err)
	missing, ok := reg.Chat("absent")
	assert.False(t, ok)

	sources := map[string]pricing.Provider{
		"registry miss":        missing,
		"nil chat schema":      (*modelschema.ChatModelSchema)(nil),
		"nil embedding schema": (*modelschema.EmbeddingModelSchema)(nil),
		"nil pricing":          (*pricing.ModelPricing)(nil),
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := pricing.ComputeCost(pricing.UsageTokens{PromptTokens: 10}, src)
				assert.ErrorIs(t, err, pricing.ErrMissingPricing)
			})
		})
	}
}
