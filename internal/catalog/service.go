// Package catalog serves the model schemas the gateway knows about, with
// pricing overrides layered from catalog files and the store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/unillm/internal/store"
	"github.com/nulzo/unillm/internal/store/cache"
	"github.com/nulzo/unillm/internal/store/model"
	"github.com/nulzo/unillm/pkg/api"
	"github.com/nulzo/unillm/pkg/modelschema"
	"github.com/nulzo/unillm/pkg/pricing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	pricingCachePrefix = "pricing:"
	defaultCacheTTL    = 10 * time.Minute
)

// Source names where a model's active pricing came from.
type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceFile    Source = "file"
	SourceStore   Source = "store"
)

// ReloadStats summarises one Reload.
type ReloadStats struct {
	Models    int            `json:"models"`
	Overrides map[string]int `json:"overrides"`
	Ignored   []string       `json:"ignored,omitempty"`
	Files     []string       `json:"files,omitempty"`
}

// snapshot is one immutable catalog generation. Cache keys carry gen so a
// lookup that read an older snapshot can never populate a newer one's keys.
type snapshot struct {
	registry *modelschema.Registry
	sources  map[string]Source
	gen      string
}

type Service struct {
	builtin    []modelschema.Model
	current    atomic.Pointer[snapshot]
	calc       *pricing.Calculator
	repo       store.Repository
	cache      cache.CacheService
	cacheTTL   time.Duration
	catalogDir string
	logger     *zap.Logger
	tracer     trace.Tracer

	reloadMu sync.Mutex
}

type Option func(*Service)

func WithStore(repo store.Repository) Option {
	return func(s *Service) { s.repo = repo }
}

func WithCache(c cache.CacheService, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithCatalogDir(dir string) Option {
	return func(s *Service) { s.catalogDir = dir }
}

func WithCalculator(c *pricing.Calculator) Option {
	return func(s *Service) { s.calc = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService indexes builtin and applies overrides with an initial Reload.
func NewService(ctx context.Context, builtin []modelschema.Model, opts ...Option) (*Service, error) {
	if _, err := modelschema.NewRegistry(builtin...); err != nil {
		return nil, err
	}

	s := &Service{
		builtin:  builtin,
		cacheTTL: defaultCacheTTL,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer("github.com/nulzo/unillm/internal/catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.calc == nil {
		s.calc = pricing.NewCalculator(pricing.WithLogger(s.logger))
	}

	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) Calculator() *pricing.Calculator { return s.calc }

// Reload rebuilds the registry from the builtin schemas, then catalog files,
// then store overrides, and swaps it in whole.
func (s *Service) Reload(ctx context.Context) (*ReloadStats, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Reload")
	defer span.End()

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	stats := &ReloadStats{Overrides: map[string]int{}}
	overrides := map[string]*pricing.ModelPricing{}
	origin := map[string]Source{}

	if s.catalogDir != "" {
		fromFiles, files, err := LoadDir(s.catalogDir)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "load catalog dir")
			return nil, api.ConfigurationError("failed to load pricing catalog", err)
		}
		stats.Files = files
		for name, p := range fromFiles {
			overrides[name] = p
			origin[name] = SourceFile
		}
	}

	if s.repo != nil {
		recs, err := s.repo.Pricing().List(ctx)
		if err != nil {
			span.RecordError(err)
			return nil, api.InternalError("failed to list pricing overrides", err)
		}
		for _, rec := range recs {
			p, err := rec.Pricing()
			if err != nil {
				s.logger.Warn("Skipping invalid stored pricing", zap.String("model", rec.Model), zap.Error(err))
				continue
			}
			overrides[rec.Model] = p
			origin[rec.Model] = SourceStore
		}
	}

	models := make([]modelschema.Model, 0, len(s.builtin))
	sources := make(map[string]Source, len(s.builtin))
	known := make(map[string]struct{}, len(s.builtin))
	for _, m := range s.builtin {
		name := m.Summary().Name
		known[name] = struct{}{}
		sources[name] = SourceBuiltin
		if p, ok := overrides[name]; ok {
			m = withPricing(m, p)
			sources[name] = origin[name]
			stats.Overrides[string(origin[name])]++
		}
		models = append(models, m)
	}
	for name := range overrides {
		if _, ok := known[name]; !ok {
			stats.Ignored = append(stats.Ignored, name)
		}
	}
	sort.Strings(stats.Ignored)
	if len(stats.Ignored) > 0 {
		s.logger.Warn("Pricing overrides name unknown models", zap.Strings("models", stats.Ignored))
	}

	registry, err := modelschema.NewRegistry(models...)
	if err != nil {
		return nil, api.ConfigurationError("failed to rebuild model registry", err)
	}
	s.current.Store(&snapshot{registry: registry, sources: sources, gen: uuid.NewString()})

	// older generations are unreachable now
	if s.cache != nil {
		if err := s.cache.DeletePrefix(ctx, pricingCachePrefix); err != nil {
			s.logger.Warn("Failed to invalidate pricing cache", zap.Error(err))
		}
	}

	stats.Models = len(models)
	span.SetAttributes(attribute.Int("catalog.models", stats.Models))
	s.logger.Info("Model catalog loaded",
		zap.Int("models", stats.Models),
		zap.Int("file_overrides", stats.Overrides[string(SourceFile)]),
		zap.Int("store_overrides", stats.Overrides[string(SourceStore)]),
	)
	return stats, nil
}

func withPricing(m modelschema.Model, p *pricing.ModelPricing) modelschema.Model {
	switch s := m.(type) {
	case *modelschema.ChatModelSchema:
		return s.WithPricing(p)
	case *modelschema.EmbeddingModelSchema:
		return s.WithPricing(p)
	}
	return m
}

// Models lists every model sorted by name.
func (s *Service) Models() []modelschema.Summary {
	models := s.current.Load().registry.Models()
	out := make([]modelschema.Summary, 0, len(models))
	for _, m := range models {
		out = append(out, m.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Service) Model(name string) (modelschema.Model, error) {
	return s.current.Load().model(name)
}

func (snap *snapshot) model(name string) (modelschema.Model, error) {
	m, ok := snap.registry.Get(name)
	if !ok {
		return nil, api.NotFoundError(fmt.Sprintf("model %q not found", name), nil)
	}
	return m, nil
}

// PricingSource reports where name's active pricing came from.
func (s *Service) PricingSource(name string) Source {
	return s.current.Load().sources[name]
}

// Pricing returns name's active schedule, consulting the cache first.
func (s *Service) Pricing(ctx context.Context, name string) (*pricing.ModelPricing, error) {
	snap := s.current.Load()
	key := snap.cacheKey(name)
	if s.cache != nil {
		var cached pricing.ModelPricing
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("Pricing cache read failed", zap.String("model", name), zap.Error(err))
		}
	}

	m, err := snap.model(name)
	if err != nil {
		return nil, err
	}
	p, err := m.Pricing()
	if err != nil {
		return nil, api.ConfigurationError("model has no pricing", fmt.Errorf("%w: %w", pricing.ErrMissingPricing, err))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, p, s.cacheTTL); err != nil {
			s.logger.Warn("Pricing cache write failed", zap.String("model", name), zap.Error(err))
		}
	}
	return p, nil
}

func (snap *snapshot) cacheKey(name string) string {
	return pricingCachePrefix + snap.gen + ":" + name
}

// EstimateCost prices usage against name's schedule.
func (s *Service) EstimateCost(ctx context.Context, name string, usage pricing.UsageTokens) (*pricing.CostResult, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.EstimateCost", trace.WithAttributes(
		attribute.String("model", name),
		attribute.Int64("tokens.prompt", usage.PromptTokens),
		attribute.Int64("tokens.completion", usage.CompletionTokens),
	))
	defer span.End()

	p, err := s.Pricing(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pricing lookup")
		return nil, err
	}

	res, err := s.calc.ComputeCost(usage, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute cost")
		return nil, err
	}
	span.SetAttributes(attribute.Float64("cost", res.Cost))
	return res, nil
}

// PrepareConfig validates raw against name's config items and returns the
// wire-keyed parameter bag.
func (s *Service) PrepareConfig(ctx context.Context, name string, raw map[string]any) (map[string]any, error) {
	_, span := s.tracer.Start(ctx, "catalog.PrepareConfig", trace.WithAttributes(attribute.String("model", name)))
	defer span.End()

	m, err := s.Model(name)
	if err != nil {
		return nil, err
	}
	out, err := modelschema.PrepareConfig(raw, m)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// SetPricing persists an override for name and reloads.
func (s *Service) SetPricing(ctx context.Context, name string, p *pricing.ModelPricing) error {
	if s.repo == nil {
		return api.ConfigurationError("pricing overrides need a store", nil)
	}
	if _, err := s.Model(name); err != nil {
		return err
	}
	rec, err := model.NewPricingRecord(p.WithModel(name), "api")
	if err != nil {
		return api.InvalidRequestError("invalid pricing", err)
	}
	if err := s.repo.Pricing().Upsert(ctx, rec); err != nil {
		return api.InternalError("failed to save pricing override", err)
	}
	_, err = s.Reload(ctx)
	return err
}

// DeletePricing removes name's stored override and reloads.
func (s *Service) DeletePricing(ctx context.Context, name string) error {
	if s.repo == nil {
		return api.ConfigurationError("pricing overrides need a store", nil)
	}
	if err := s.repo.Pricing().Delete(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return api.NotFoundError(fmt.Sprintf("no stored pricing for %q", name), err)
		}
		return api.InternalError("failed to delete pricing override", err)
	}
	_, err := s.Reload(ctx)
	return err
}
