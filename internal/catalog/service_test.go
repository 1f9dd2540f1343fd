package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nulzo/unillm/internal/store"
	"github.com/nulzo/unillm/internal/store/cache/memory"
	"github.com/nulzo/unillm/internal/store/model"
	"github.com/nulzo/unillm/pkg/api"
	"github.com/nulzo/unillm/pkg/configitem"
	"github.com/nulzo/unillm/pkg/modelschema"
	"github.com/nulzo/unillm/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository implements store.Repository for testing
type MockRepository struct {
	mock.Mock
	pricing *MockPricingRepository
}

func (m *MockRepository) Pricing() store.PricingRepository { return m.pricing }
func (m *MockRepository) Costs() store.CostRepository     { return nil }
func (m *MockRepository) Close() error                    { return nil }

func (m *MockRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	return fn(m)
}

type MockPricingRepository struct {
	mock.Mock
}

func (m *MockPricingRepository) Upsert(ctx context.Context, rec *model.PricingRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockPricingRepository) Get(ctx context.Context, name string) (*model.PricingRecord, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PricingRecord), args.Error(1)
}

func (m *MockPricingRepository) List(ctx context.Context) ([]model.PricingRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.PricingRecord), args.Error(1)
}

func (m *MockPricingRepository) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func testModels() []modelschema.Model {
	cfg := configitem.Compose(map[string]configitem.Item{
		"temperature": configitem.MustRange(configitem.RangeSpec{
			Param: "temperature", Title: "Temperature", Min: 0, Max: 2, Step: 0.1, Default: configitem.Float(1),
		}),
		"maxTokens": configitem.MustRange(configitem.RangeSpec{
			Param: "max_tokens", Title: "Max Tokens", Min: 1, Max: 4096, Step: 1,
		}),
	})
	tiered := pricing.MustModelPricing("", "", []pricing.PricingTier{
		{MinTokens: 0, MaxTokens: pricing.Limit(200_000), Prices: pricing.TierPrices{Base: &pricing.Rates{Input: pricing.Rate(3), Output: pricing.Rate(15)}}},
		{MinTokens: 200_000, Prices: pricing.TierPrices{Base: &pricing.Rates{Input: pricing.Rate(6), Output: pricing.Rate(22.5)}}},
	})
	return []modelschema.Model{
		modelschema.MustChatModelSchema(modelschema.ChatModelSchema{
			Name: "chat-a", Modalities: []modelschema.Modality{modelschema.ModalityText},
			MaxInputTokens: 200_000, MaxOutputTokens: 4096, Config: cfg, PricingModel: tiered,
		}),
		modelschema.MustEmbeddingModelSchema(modelschema.EmbeddingModelSchema{
			Name: "embed-a", Modalities: []modelschema.Modality{modelschema.ModalityText},
			MaxInputTokens: 8191, MaxOutputTokens: 1, Dimensions: 256,
			PricingModel: pricing.Flat("", 0.02, 0),
		}),
	}
}

func TestService_EstimateCost(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ctx, testModels())
	require.NoError(t, err)

	res, err := svc.EstimateCost(ctx, "chat-a", pricing.UsageTokens{PromptTokens: 100_000, CompletionTokens: 50_000})
	require.NoError(t, err)
	assert.InDelta(t, 1.05, res.Cost, 1e-9)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, "chat-a", res.PricingModel.Model())

	res, err = svc.EstimateCost(ctx, "chat-a", pricing.UsageTokens{PromptTokens: 250_000})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, res.Cost, 1e-9)

	_, err = svc.EstimateCost(ctx, "nope", pricing.UsageTokens{})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Code)
}

func TestService_PrepareConfig(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ctx, testModels())
	require.NoError(t, err)

	out, err := svc.PrepareConfig(ctx, "chat-a", map[string]any{"maxTokens": 512})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"max_tokens": 512.0, "temperature": 1.0}, out)

	_, err = svc.PrepareConfig(ctx, "chat-a", map[string]any{"bogus": 1})
	assert.ErrorIs(t, err, modelschema.ErrInvalidConfigKey)

	out, err = svc.PrepareConfig(ctx, "embed-a", map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestService_StoreOverrides(t *testing.T) {
	ctx := context.Background()
	pr := &MockPricingRepository{}
	repo := &MockRepository{pricing: pr}

	rec, err := model.NewPricingRecord(pricing.Flat("chat-a", 1, 1), "seed")
	require.NoError(t, err)
	ghost, err := model.NewPricingRecord(pricing.Flat("ghost", 1, 1), "seed")
	require.NoError(t, err)
	pr.On("List", mock.Anything).Return([]model.PricingRecord{*rec, *ghost}, nil).Once()

	svc, err := NewService(ctx, testModels(), WithStore(repo), WithCache(memory.NewMemoryCache(), 0))
	require.NoError(t, err)
	assert.Equal(t, SourceStore, svc.PricingSource("chat-a"))
	assert.Equal(t, SourceBuiltin, svc.PricingSource("embed-a"))

	res, err := svc.EstimateCost(ctx, "chat-a", pricing.UsageTokens{PromptTokens: 1_000_000, CompletionTokens: 1_000_000})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, res.Cost, 1e-9)

	// cached pricing is dropped on reload
	pr.On("List", mock.Anything).Return([]model.PricingRecord{}, nil).Once()
	stats, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Models)
	assert.Equal(t, SourceBuiltin, svc.PricingSource("chat-a"))

	res, err = svc.EstimateCost(ctx, "chat-a", pricing.UsageTokens{PromptTokens: 100_000})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, res.Cost, 1e-9)

	pr.AssertExpectations(t)
}

func TestService_SetPricing(t *testing.T) {
	ctx := context.Background()
	pr := &MockPricingRepository{}
	repo := &MockRepository{pricing: pr}
	pr.On("List", mock.Anything).Return([]model.PricingRecord{}, nil).Once()

	svc, err := NewService(ctx, testModels(), WithStore(repo))
	require.NoError(t, err)

	pr.On("Upsert", mock.Anything, mock.MatchedBy(func(rec *model.PricingRecord) bool {
		return rec.Model == "chat-a" && rec.Source == "api"
	})).Return(nil).Once()
	rec, err := model.NewPricingRecord(pricing.Flat("chat-a", 9, 9), "api")
	require.NoError(t, err)
	pr.On("List", mock.Anything).Return([]model.PricingRecord{*rec}, nil).Once()

	require.NoError(t, svc.SetPricing(ctx, "chat-a", pricing.Flat("", 9, 9)))
	p, err := svc.Pricing(ctx, "chat-a")
	require.NoError(t, err)
	assert.Equal(t, SourceStore, svc.PricingSource("chat-a"))
	assert.Equal(t, 9.0, *p.Tiers()[0].Prices.Base.Input)

	assert.Error(t, svc.SetPricing(ctx, "nope", pricing.Flat("", 1, 1)))

	pr.On("Delete", mock.Anything, "embed-a").Return(store.ErrNotFound).Once()
	err = svc.DeletePricing(ctx, "embed-a")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Code)

	pr.AssertExpectations(t)
}

// interleavingCache runs beforeSet once, just before the first write lands.
type interleavingCache struct {
	*memory.MemoryCache
	once      sync.Once
	beforeSet func()
}

func (c *interleavingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.once.Do(c.beforeSet)
	return c.MemoryCache.Set(ctx, key, value, ttl)
}

func TestService_LookupRacingSetPricing(t *testing.T) {
	ctx := context.Background()
	pr := &MockPricingRepository{}
	repo := &MockRepository{pricing: pr}
	pr.On("List", mock.Anything).Return([]model.PricingRecord{}, nil).Once()

	c := &interleavingCache{MemoryCache: memory.NewMemoryCache()}
	svc, err := NewService(ctx, testModels(), WithStore(repo), WithCache(c, 0))
	require.NoError(t, err)

	rec, err := model.NewPricingRecord(pricing.Flat("chat-a", 9, 9), "api")
	require.NoError(t, err)
	pr.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()
	pr.On("List", mock.Anything).Return([]model.PricingRecord{*rec}, nil).Once()

	// the lookup has read the old schedule; the override and its reload land
	// before the lookup writes that schedule to the cache
	c.beforeSet = func() {
		require.NoError(t, svc.SetPricing(ctx, "chat-a", pricing.Flat("", 9, 9)))
	}

	stale, err := svc.Pricing(ctx, "chat-a")
	require.NoError(t, err)
	assert.Equal(t, 3.0, *stale.Tiers()[0].Prices.Base.Input)

	fresh, err := svc.Pricing(ctx, "chat-a")
	require.NoError(t, err)
	assert.Equal(t, 9.0, *fresh.Tiers()[0].Prices.Base.Input)
	assert.Equal(t, SourceStore, svc.PricingSource("chat-a"))

	pr.AssertExpectations(t)
}

func TestService_ConcurrentLookupsDuringReload(t *testing.T) {
	ctx := context.Background()
	pr := &MockPricingRepository{}
	pr.On("List", mock.Anything).Return([]model.PricingRecord{}, nil)

	svc, err := NewService(ctx, testModels(), WithStore(&MockRepository{pricing: pr}), WithCache(memory.NewMemoryCache(), 0))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := svc.EstimateCost(ctx, "chat-a", pricing.UsageTokens{PromptTokens: 1000})
				assert.NoError(t, err)
				assert.Equal(t, SourceBuiltin, svc.PricingSource("chat-a"))
			}
		}()
	}
	for i := 0; i < 10; i++ {
		_, err := svc.Reload(ctx)
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestService_StoreFailure(t *testing.T) {
	pr := &MockPricingRepository{}
	pr.On("List", mock.Anything).Return([]model.PricingRecord{}, errors.New("disk on fire"))

	_, err := NewService(context.Background(), testModels(), WithStore(&MockRepository{pricing: pr}))
	assert.ErrorContains(t, err, "disk on fire")
}

func TestService_CatalogDir(t *testing.T) {
	dir := t.TempDir()
	yamlCatalog := `
requires: ">= 0.1"
pricing:
  - model: chat-a
    tiers:
      - minTokens: 0
        prices:
          base: {input: 10, output: 20}
`
	jsonCatalog := `{"pricing":[{"model":"embed-a","currency":"EUR","tiers":[{"minTokens":0,"prices":{"base":{"input":0.5}}}]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-chat.yaml"), []byte(yamlCatalog), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20-embed.json"), []byte(jsonCatalog), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600))

	svc, err := NewService(context.Background(), testModels(), WithCatalogDir(dir))
	require.NoError(t, err)
	assert.Equal(t, SourceFile, svc.PricingSource("chat-a"))

	p, err := svc.Pricing(context.Background(), "embed-a")
	require.NoError(t, err)
	assert.Equal(t, "EUR", p.Currency())

	summaries := svc.Models()
	require.Len(t, summaries, 2)
	assert.Equal(t, "chat-a", summaries[0].Name)
}

func TestLoadFile_Rejects(t *testing.T) {
	dir := t.TempDir()

	tooNew := filepath.Join(dir, "new.yaml")
	require.NoError(t, os.WriteFile(tooNew, []byte("requires: \">= 99.0\"\npricing: []\n"), 0o600))
	_, err := LoadFile(tooNew)
	assert.ErrorIs(t, err, ErrIncompatibleCatalog)

	gap := filepath.Join(dir, "gap.yaml")
	require.NoError(t, os.WriteFile(gap, []byte(`
pricing:
  - model: m
    tiers:
      - {minTokens: 0, maxTokens: 10}
      - {minTokens: 20}
`), 0o600))
	_, err = LoadFile(gap)
	assert.ErrorIs(t, err, pricing.ErrInvalidPricing)

	unnamed := filepath.Join(dir, "unnamed.json")
	require.NoError(t, os.WriteFile(unnamed, []byte(`{"pricing":[{"tiers":[{"minTokens":0}]}]}`), 0o600))
	_, err = LoadFile(unnamed)
	assert.ErrorContains(t, err, "has no model")

	_, err = LoadFile(filepath.Join(dir, "catalog.toml"))
	assert.Error(t, err)
}

func TestSaveFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	original := pricing.MustModelPricing("m", "USD", []pricing.PricingTier{
		{MinTokens: 0, MaxTokens: pricing.Limit(100), Prices: pricing.TierPrices{Base: &pricing.Rates{Input: pricing.Rate(1)}}},
		{MinTokens: 100, Prices: pricing.TierPrices{Base: &pricing.Rates{Input: pricing.Rate(2)}}},
	})
	require.NoError(t, SaveFile(path, &File{Requires: ">= 0.1", Pricing: []*pricing.ModelPricing{original}}))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Pricing, 1)
	assert.Equal(t, original.Tiers(), f.Pricing[0].Tiers())
}
