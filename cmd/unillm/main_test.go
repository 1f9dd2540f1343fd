package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nulzo/unillm/internal/catalog"
	"github.com/nulzo/unillm/internal/modeldata"
	"github.com/nulzo/unillm/pkg/modelschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeSplit(t, stdin, args...)
	return out, err
}

// executeSplit keeps stdout and stderr apart so JSON output stays decodable.
func executeSplit(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--raw"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestModels_FilterByKind(t *testing.T) {
	out, err := execute(t, "", "models", "--kind", "embedding")
	require.NoError(t, err)

	var got []modelschema.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotEmpty(t, got)
	for _, s := range got {
		assert.Equal(t, modelschema.KindEmbedding, s.Kind)
	}
}

func TestModel_Detail(t *testing.T) {
	out, err := execute(t, "", "model", "gpt-4o")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "gpt-4o", got["name"])
	assert.Equal(t, modeldata.ProviderOpenAI, got["provider"])
	assert.Equal(t, "builtin", got["pricingSource"])
	assert.Contains(t, got["config"], "temperature")
}

func TestModel_Unknown(t *testing.T) {
	_, err := execute(t, "", "model", "nope")
	assert.Error(t, err)
}

func TestCost_TieredModel(t *testing.T) {
	out, err := execute(t, "", "cost", "claude-sonnet-4-5", "--prompt", "250000", "--completion", "1000000")
	require.NoError(t, err)

	var got struct {
		Cost      float64 `json:"cost"`
		Breakdown struct {
			InputRate  float64 `json:"inputRate"`
			OutputRate float64 `json:"outputRate"`
		} `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 6, got.Breakdown.InputRate, 1e-9)
	assert.InDelta(t, 22.5, got.Breakdown.OutputRate, 1e-9)
	assert.InDelta(t, 0.25*6+22.5, got.Cost, 1e-9)
}

func TestConfig_Stdin(t *testing.T) {
	out, err := execute(t, `{"maxTokens": 512}`, "config", "gpt-4o", "-")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, float64(512), got["max_completion_tokens"])
}

func TestConfig_InvalidKey(t *testing.T) {
	_, err := execute(t, "", "config", "o4-mini", `{"temperature": 0.5}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature")
}

func TestConfig_NotAnObject(t *testing.T) {
	_, err := execute(t, "", "config", "gpt-4o", `[1,2]`)
	assert.ErrorContains(t, err, "JSON object")
}

func TestCatalog_ExportThenCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")

	_, err := execute(t, "", "catalog", "export", "-o", path)
	require.NoError(t, err)

	f, err := catalog.LoadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, f.Pricing)

	out, err := execute(t, "", "catalog", "check", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "unknown model")
}

func TestCatalog_CheckFlagsUnknownModels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	content := `pricing:
  - model: not-a-model
    currency: USD
    tiers:
      - minTokens: 0
        prices:
          base:
            input: 1
            output: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := execute(t, "", "catalog", "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, `unknown model "not-a-model"`)
}

func TestCatalog_CheckFailsOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := execute(t, "", "catalog", "check", path)
	assert.ErrorContains(t, err, "1 of 1")
}

func TestCatalog_Pull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte("pricing:\n  - model: gpt-4o\n    tiers:\n      - minTokens: 0\n        prices:\n          base: {input: 1, output: 2}\n"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "pulled.yaml")
	out, err := execute(t, "", "catalog", "pull", srv.URL, "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "saved 1 pricing entries")

	cost, err := execute(t, "", "--catalog-dir", filepath.Dir(path), "cost", "gpt-4o", "--prompt", "1000000")
	require.NoError(t, err)
	assert.Contains(t, cost, `"cost":1`)
}

func TestCost_RejectsNegativeCounts(t *testing.T) {
	for _, args := range [][]string{
		{"cost", "claude-sonnet-4-5", "--prompt", "-250000"},
		{"cost", "claude-sonnet-4-5", "--completion", "-5"},
	} {
		out, err := execute(t, "", args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "non-negative")
		assert.Empty(t, out)
	}
}

func TestDiagnosticsGoToStderr(t *testing.T) {
	dir := t.TempDir()
	content := `pricing:
  - model: not-a-model
    tiers:
      - minTokens: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(content), 0o600))

	out, errOut, err := executeSplit(t, "", "--catalog-dir", dir, "models")
	require.NoError(t, err)

	var got []modelschema.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, errOut, "Pricing overrides name unknown models")
	assert.Contains(t, errOut, "not-a-model")
}
