package modelschema

import (
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
)

type snapshot struct {
	models map[string]Model
}

// Registry looks up model schemas by name. Reads never lock; Replace swaps
// in a whole new table.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// NewRegistry indexes models by name. Duplicate names are an error.
func NewRegistry(models ...Model) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(models...); err != nil {
		return nil, err
	}
	return r, nil
}

// Replace atomically installs a new table.
func (r *Registry) Replace(models ...Model) error {
	index := make(map[string]Model, len(models))
	for _, m := range models {
		name := m.Summary().Name
		if _, dup := index[name]; dup {
			return fmt.Errorf("%w: duplicate model name %q", ErrInvalidSchema, name)
		}
		index[name] = m
	}
	r.current.Store(&snapshot{models: index})
	return nil
}

func (r *Registry) load() map[string]Model {
	if s := r.current.Load(); s != nil {
		return s.models
	}
	return nil
}

func (r *Registry) Get(name string) (Model, bool) {
	m, ok := r.load()[name]
	return m, ok
}

// Chat returns the chat schema registered under name.
func (r *Registry) Chat(name string) (*ChatModelSchema, bool) {
	m, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	c, ok := m.(*ChatModelSchema)
	return c, ok
}

// Embedding returns the embedding schema registered under name.
func (r *Registry) Embedding(name string) (*EmbeddingModelSchema, bool) {
	m, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	e, ok := m.(*EmbeddingModelSchema)
	return e, ok
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.load()))
}

// Models returns every registered model ordered by name.
func (r *Registry) Models() []Model {
	models := r.load()
	out := make([]Model, 0, len(models))
	for _, name := range slices.Sorted(maps.Keys(models)) {
		out = append(out, models[name])
	}
	return out
}
