package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nulzo/unillm/internal/httpclient"
	"github.com/nulzo/unillm/internal/version"
	"github.com/nulzo/unillm/pkg/pricing"
	"gopkg.in/yaml.v3"
)

var ErrIncompatibleCatalog = errors.New("catalog file requires a different service version")

// File is a pricing catalog on disk. Each entry must name its model.
type File struct {
	// Requires is a version constraint on the service, e.g. ">= 0.4".
	Requires string                  `json:"requires,omitempty" yaml:"requires,omitempty"`
	Pricing  []*pricing.ModelPricing `json:"pricing" yaml:"pricing"`
}

// LoadFile decodes a YAML or JSON catalog by extension and checks its
// version constraint.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var format string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		format = "json"
	case ".yaml", ".yml":
		format = "yaml"
	default:
		return nil, fmt.Errorf("unsupported catalog extension %q", ext)
	}
	return decode(path, format, data)
}

// FetchFile downloads a catalog. The format comes from the Content-Type,
// falling back to the URL's extension and then to YAML.
func FetchFile(ctx context.Context, client httpclient.HTTPClient, url string) (*File, error) {
	doc, err := httpclient.Get(ctx, client, url, nil)
	if err != nil {
		return nil, err
	}

	format := "yaml"
	switch {
	case strings.Contains(doc.ContentType, "json"):
		format = "json"
	case strings.Contains(doc.ContentType, "yaml"):
	case strings.HasSuffix(strings.ToLower(path.Ext(url)), ".json"):
		format = "json"
	}
	return decode(url, format, doc.Body)
}

func decode(origin, format string, data []byte) (*File, error) {
	var (
		f   File
		err error
	)
	if format == "json" {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", origin, err)
	}

	ok, err := version.Satisfies(f.Requires)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s wants %q, running %s", ErrIncompatibleCatalog, origin, f.Requires, version.AppVersion)
	}

	for i, p := range f.Pricing {
		if p == nil || p.Model() == "" {
			return nil, fmt.Errorf("%s: pricing entry %d has no model", origin, i)
		}
	}
	return &f, nil
}

// LoadDir loads every catalog file in dir in lexical order. Later files win
// when two name the same model.
func LoadDir(dir string) (map[string]*pricing.ModelPricing, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	out := make(map[string]*pricing.ModelPricing)
	for _, path := range paths {
		f, err := LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range f.Pricing {
			out[p.Model()] = p
		}
	}
	return out, paths, nil
}

// SaveFile writes f as YAML.
func SaveFile(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
