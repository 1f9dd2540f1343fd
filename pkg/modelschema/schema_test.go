package modelschema

import (
	"errors"
	"sync"
	"testing"

	"github.com/nulzo/unillm/pkg/api"
	"github.com/nulzo/unillm/pkg/configitem"
	"github.com/nulzo/unillm/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() configitem.ModelConfig {
	return configitem.Compose(map[string]configitem.Item{
		"temperature": configitem.MustRange(configitem.RangeSpec{
			Param: "temperature", Title: "Temperature", Min: 0, Max: 1, Step: 0.01, Default: configitem.Float(1),
		}),
		"maxTokens": configitem.MustRange(configitem.RangeSpec{
			Param: "max_tokens", Title: "Max tokens", Min: 1, Max: 8192, Step: 1,
		}),
		"stop": configitem.MustMultiString(configitem.MultiStringSpec{
			Param: "stop_sequences", Title: "Stop sequences", Max: 4,
		}),
	})
}

func testChat(t *testing.T) *ChatModelSchema {
	t.Helper()
	s, err := NewChatModelSchema(ChatModelSchema{
		Name:            "claude-test",
		Description:     "A test model",
		Roles:           []Role{RoleSystem, RoleUser, RoleAssistant},
		Modalities:      []Modality{ModalityText, ModalityImage},
		MaxInputTokens:  200_000,
		MaxOutputTokens: 8192,
		Config:          testConfig(),
		PricingModel:    pricing.Flat("", 3, 15),
	})
	require.NoError(t, err)
	return s
}

func TestNewChatModelSchema(t *testing.T) {
	s := testChat(t)

	sum := s.Summary()
	assert.Equal(t, KindChat, sum.Kind)
	assert.Equal(t, []string{"maxTokens", "stop", "temperature"}, sum.ConfigKeys)
	assert.True(t, sum.HasPricing)

	p, err := s.Pricing()
	require.NoError(t, err)
	assert.Equal(t, "claude-test", p.Model())
}

func TestNewChatModelSchema_Invalid(t *testing.T) {
	mismatched := testConfig()
	delete(mismatched.Schema, "stop")

	dupParam := testConfig().Extend(map[string]configitem.Item{
		"stopSequences": configitem.MustMultiString(configitem.MultiStringSpec{Param: "stop_sequences", Title: "Stop", Max: 1}),
	})

	tests := []struct {
		name   string
		schema ChatModelSchema
		want   error
	}{
		{"Missing name", ChatModelSchema{Modalities: []Modality{ModalityText}, MaxInputTokens: 1, MaxOutputTokens: 1}, ErrInvalidSchema},
		{"No modalities", ChatModelSchema{Name: "m", MaxInputTokens: 1, MaxOutputTokens: 1}, ErrInvalidSchema},
		{"Zero output tokens", ChatModelSchema{Name: "m", Modalities: []Modality{ModalityText}, MaxInputTokens: 1}, ErrInvalidSchema},
		{"Bad role", ChatModelSchema{Name: "m", Roles: []Role{"narrator"}, Modalities: []Modality{ModalityText}, MaxInputTokens: 1, MaxOutputTokens: 1}, ErrInvalidSchema},
		{"Key mismatch", ChatModelSchema{Name: "m", Modalities: []Modality{ModalityText}, MaxInputTokens: 1, MaxOutputTokens: 1, Config: mismatched}, configitem.ErrKeyParity},
		{"Shared param", ChatModelSchema{Name: "m", Modalities: []Modality{ModalityText}, MaxInputTokens: 1, MaxOutputTokens: 1, Config: dupParam}, ErrInvalidSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChatModelSchema(tt.schema)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Panics(t, func() {
		MustChatModelSchema(ChatModelSchema{Name: "m", Modalities: []Modality{ModalityText}, MaxInputTokens: 1, MaxOutputTokens: 1, Config: mismatched})
	})
}

func TestEmbeddingModelSchema(t *testing.T) {
	e := MustEmbeddingModelSchema(EmbeddingModelSchema{
		Name:            "embed-test",
		Modalities:      []Modality{ModalityText},
		MaxInputTokens:  8191,
		MaxOutputTokens: 1,
		Dimensions:      1536,
		Config: configitem.Compose(map[string]configitem.Item{
			"dimensions": configitem.MustRange(configitem.RangeSpec{Param: "dimensions", Title: "Dimensions", Min: 256, Max: 1536, Step: 256}),
		}),
	})

	assert.Equal(t, KindEmbedding, e.Summary().Kind)
	assert.False(t, e.Summary().HasPricing)

	_, err := pricing.ComputeCost(pricing.UsageTokens{PromptTokens: 10}, e)
	assert.ErrorIs(t, err, pricing.ErrMissingPricing)

	priced := e.WithPricing(pricing.Flat("", 0.02, 0))
	res, err := pricing.ComputeCost(pricing.UsageTokens{PromptTokens: 1_000_000}, priced)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, res.Cost, 1e-12)
	assert.Nil(t, e.PricingModel)

	_, err = NewEmbeddingModelSchema(EmbeddingModelSchema{Name: "e", Modalities: []Modality{ModalityText}, MaxInputTokens: 1})
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestTransformConfig(t *testing.T) {
	s := testChat(t)

	out, err := TransformConfig(map[string]any{"maxTokens": 1024, "stop": []string{"END"}}, s)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"max_tokens": 1024, "stop_sequences": []string{"END"}}, out)
}

func TestTransformConfig_InvalidKey(t *testing.T) {
	s := testChat(t)

	_, err := TransformConfig(map[string]any{"doesNotExist": 1, "temperature": 0.1}, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfigKey)

	var keyErr *InvalidConfigKeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, []string{"doesNotExist"}, keyErr.Keys)
	assert.Equal(t, []string{"maxTokens", "stop", "temperature"}, keyErr.Valid)
	assert.Contains(t, err.Error(), "maxTokens, stop, temperature")

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, "invalid config key", apiErr.Info)
}

func TestPrepareConfig(t *testing.T) {
	s := testChat(t)

	out, err := PrepareConfig(map[string]any{"maxTokens": 512}, s)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"max_tokens":     512.0,
		"temperature":    1.0,
		"stop_sequences": []string{},
	}, out)

	_, err = PrepareConfig(map[string]any{"temperature": 3}, s)
	assert.ErrorIs(t, err, configitem.ErrInvalidValue)

	_, err = PrepareConfig(map[string]any{"topK": 3}, s)
	assert.ErrorIs(t, err, ErrInvalidConfigKey)
}

func TestRegistry(t *testing.T) {
	chat := testChat(t)
	embed := MustEmbeddingModelSchema(EmbeddingModelSchema{Name: "embed", Modalities: []Modality{ModalityText}, MaxInputTokens: 1, MaxOutputTokens: 1})

	r, err := NewRegistry(chat, embed)
	require.NoError(t, err)
	assert.Equal(t, []string{"claude-test", "embed"}, r.Names())

	got, ok := r.Chat("claude-test")
	require.True(t, ok)
	assert.Same(t, chat, got)

	_, ok = r.Chat("embed")
	assert.False(t, ok)
	_, ok = r.Embedding("embed")
	assert.True(t, ok)

	_, err = NewRegistry(chat, chat)
	assert.ErrorIs(t, err, ErrInvalidSchema)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = r.Get("claude-test")
			}
		}()
	}
	require.NoError(t, r.Replace(embed))
	wg.Wait()

	assert.Equal(t, []string{"embed"}, r.Names())
	assert.Len(t, r.Models(), 1)
}

func TestPricing_NilSchema(t *testing.T) {
	var chat *ChatModelSchema
	_, err := chat.Pricing()
	assert.ErrorIs(t, err, pricing.ErrMissingPricing)

	var emb *EmbeddingModelSchema
	_, err = emb.Pricing()
	assert.ErrorIs(t, err, pricing.ErrMissingPricing)
}
