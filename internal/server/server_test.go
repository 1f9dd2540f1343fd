package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/unillm/internal/analytics"
	"github.com/nulzo/unillm/internal/catalog"
	"github.com/nulzo/unillm/internal/config"
	"github.com/nulzo/unillm/internal/modeldata"
	"github.com/nulzo/unillm/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testEnv struct {
	handler  http.Handler
	ingestor analytics.Ingestor
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:    config.ServerConfig{Env: "test"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger := zaptest.NewLogger(t)
	repo, err := sqlite.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc, err := catalog.NewService(context.Background(), modeldata.Models(),
		catalog.WithStore(repo), catalog.WithLogger(logger))
	require.NoError(t, err)

	ing := analytics.NewIngestor(logger, repo, analytics.IngestorOptions{BatchSize: 1, FlushInterval: time.Hour})
	ing.Start(context.Background())
	t.Cleanup(ing.Stop)

	srv := New(cfg, logger, Deps{
		Catalog:   svc,
		Analytics: analytics.NewService(repo),
		Ingestor:  ing,
	})
	return &testEnv{handler: srv.Handler(), ingestor: ing}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	w, body := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, len(modeldata.Models()), body["models"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestListModels(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodGet, "/v1/models?kind=embedding", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "list", body["object"])
	data := body["data"].([]any)
	require.NotEmpty(t, data)
	for _, m := range data {
		assert.Equal(t, "embedding", m.(map[string]any)["kind"])
	}

	w, body = env.do(t, http.MethodGet, "/v1/models?modality=video", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, m := range body["data"].([]any) {
		assert.Contains(t, m.(map[string]any)["modalities"], "video")
	}
}

func TestGetModel(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodGet, "/v1/models/gpt-4o", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gpt-4o", body["name"])
	assert.Equal(t, "builtin", body["pricingSource"])
	cfg := body["config"].(map[string]any)
	temp := cfg["temperature"].(map[string]any)
	assert.Equal(t, "range", temp["type"])
	assert.Equal(t, "temperature", temp["param"])
	assert.NotNil(t, body["pricing"])

	w, body = env.do(t, http.MethodGet, "/v1/models/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, float64(404), body["status"])
	assert.Equal(t, "/v1/models/nope", body["instance"])
}

func TestEstimateCost_Tiers(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodPost, "/v1/cost", map[string]any{
		"model": "claude-sonnet-4-5",
		"usage": map[string]any{"prompt_tokens": 100000, "completion_tokens": 50000},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.InDelta(t, 1.05, body["cost"], 1e-9)
	assert.Equal(t, "USD", body["currency"])

	w, body = env.do(t, http.MethodPost, "/v1/cost", map[string]any{
		"model": "claude-sonnet-4-5",
		"usage": map[string]any{"prompt_tokens": 250000},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1.5, body["cost"], 1e-9)
	assert.InDelta(t, 6.0, body["breakdown"].(map[string]any)["input_rate"], 1e-9)
}

func TestEstimateCost_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodPost, "/v1/cost", map[string]any{
		"usage": map[string]any{"prompt_tokens": -1},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "model")
	assert.Contains(t, errs, "usage.prompt_tokens")

	w, _ = env.do(t, http.MethodPost, "/v1/cost", map[string]any{"model": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatchCost(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodPost, "/v1/cost/batch", map[string]any{
		"items": []any{
			map[string]any{"model": "gpt-4o", "usage": map[string]any{"prompt_tokens": 1000000}},
			map[string]any{"model": "gpt-4o-mini", "usage": map[string]any{"completion_tokens": 1000000}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, body["items"], 2)
	assert.InDelta(t, 3.1, body["total"].(map[string]any)["USD"], 1e-9)
}

func TestPrepareConfig(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodPost, "/v1/models/claude-haiku-4-5/config", map[string]any{
		"config": map[string]any{"maxTokens": 512, "stopSequences": []string{"END"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	params := body["params"].(map[string]any)
	assert.Equal(t, float64(512), params["max_tokens"])
	assert.Equal(t, []any{"END"}, params["stop_sequences"])
	assert.Equal(t, float64(1), params["temperature"])

	w, body = env.do(t, http.MethodPost, "/v1/models/claude-haiku-4-5/config", map[string]any{
		"config": map[string]any{"thinking": map[string]any{"type": "enabled"}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"thinking"}, body["invalid_keys"])
	assert.Contains(t, body["valid_keys"], "maxTokens")

	w, body = env.do(t, http.MethodPost, "/v1/models/claude-haiku-4-5/config", map[string]any{
		"config": map[string]any{"temperature": 5},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["errors"], "temperature")
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Server.APIKeys = []string{"sk-test"} })

	w, _ := env.do(t, http.MethodGet, "/v1/models", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodGet, "/v1/models", nil, "Authorization", "Bearer sk-wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodGet, "/v1/models", nil, "Authorization", "Bearer sk-test")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, "/v1/models", nil, "X-API-Key", "sk-test")
	assert.Equal(t, http.StatusOK, w.Code)

	// health stays public
	w, _ = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	})

	w, _ := env.do(t, http.MethodGet, "/v1/models", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, body := env.do(t, http.MethodGet, "/v1/models", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too Many Requests", body["title"])
}

func TestRecordAndAnalytics(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodPost, "/v1/cost", map[string]any{
		"model":  "gpt-4o",
		"usage":  map[string]any{"prompt_tokens": 1000000, "completion_tokens": 1000000},
		"record": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	id, _ := body["record_id"].(string)
	assert.NotEmpty(t, id)

	assert.Eventually(t, func() bool {
		w, body := env.do(t, http.MethodGet, "/v1/analytics/costs?model=gpt-4o", nil)
		return w.Code == http.StatusOK && len(body["data"].([]any)) == 1
	}, 2*time.Second, 20*time.Millisecond)

	w, body = env.do(t, http.MethodGet, "/v1/analytics/usage?days=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	days := body["data"].([]any)
	require.Len(t, days, 1)
	assert.InDelta(t, 12.5, days[0].(map[string]any)["total_cost"], 1e-9)

	w, _ = env.do(t, http.MethodGet, "/v1/analytics/usage?days=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminPricing(t *testing.T) {
	env := newTestEnv(t, nil)

	w, _ := env.do(t, http.MethodPut, "/v1/admin/pricing/gpt-4o", map[string]any{
		"tiers": []any{map[string]any{"min_tokens": 0, "input": 1, "output": 1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, body := env.do(t, http.MethodPost, "/v1/cost", map[string]any{
		"model": "gpt-4o",
		"usage": map[string]any{"prompt_tokens": 1000000, "completion_tokens": 1000000},
	})
	assert.InDelta(t, 2.0, body["cost"], 1e-9)

	_, body = env.do(t, http.MethodGet, "/v1/models/gpt-4o", nil)
	assert.Equal(t, "store", body["pricingSource"])

	// a gap between tiers is rejected
	w, _ = env.do(t, http.MethodPut, "/v1/admin/pricing/gpt-4o", map[string]any{
		"tiers": []any{
			map[string]any{"min_tokens": 0, "max_tokens": 10, "input": 1},
			map[string]any{"min_tokens": 20, "input": 1},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/v1/admin/pricing/gpt-4o", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = env.do(t, http.MethodDelete, "/v1/admin/pricing/gpt-4o", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = env.do(t, http.MethodPost, "/v1/admin/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, len(modeldata.Models()), body["models"])
}
