package configitem

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

// ModelConfig maps logical parameter keys to their defs and schemas.
// Def and Schema must always carry the same key set; build it with Compose.
type ModelConfig struct {
	Def    map[string]Def
	Schema map[string]Schema
}

// Compose builds a ModelConfig from items keyed by logical name.
func Compose(items map[string]Item) ModelConfig {
	c := ModelConfig{
		Def:    make(map[string]Def, len(items)),
		Schema: make(map[string]Schema, len(items)),
	}
	for key, item := range items {
		checkComplete(key, item)
		c.Def[key] = item.Def
		c.Schema[key] = item.Schema
	}
	return c
}

// checkComplete panics on an item not built by a constructor. Items are
// assembled at startup, so this fails the same way the Must helpers do.
func checkComplete(key string, item Item) {
	if item.Def == nil || item.Schema == nil {
		panic(itemError(key, "def and schema are both required"))
	}
}

// Extend returns a copy of c with items added; an item replaces an existing
// key of the same name.
func (c ModelConfig) Extend(items map[string]Item) ModelConfig {
	out := ModelConfig{Def: maps.Clone(c.Def), Schema: maps.Clone(c.Schema)}
	if out.Def == nil {
		out.Def = make(map[string]Def, len(items))
	}
	if out.Schema == nil {
		out.Schema = make(map[string]Schema, len(items))
	}
	for key, item := range items {
		checkComplete(key, item)
		out.Def[key] = item.Def
		out.Schema[key] = item.Schema
	}
	return out
}

// Without returns a copy of c with keys removed.
func (c ModelConfig) Without(keys ...string) ModelConfig {
	out := ModelConfig{Def: maps.Clone(c.Def), Schema: maps.Clone(c.Schema)}
	for _, k := range keys {
		delete(out.Def, k)
		delete(out.Schema, k)
	}
	return out
}

// Keys returns the logical keys in sorted order.
func (c ModelConfig) Keys() []string {
	return slices.Sorted(maps.Keys(c.Def))
}

// Item returns the pair registered under key.
func (c ModelConfig) Item(key string) (Item, bool) {
	d, ok := c.Def[key]
	if !ok {
		return Item{}, false
	}
	s, ok := c.Schema[key]
	if !ok {
		return Item{}, false
	}
	return Item{Def: d, Schema: s}, true
}

// CheckKeyParity verifies keys(Def) and keys(Schema) are set-equal.
func (c ModelConfig) CheckKeyParity() error {
	var onlyDef, onlySchema []string
	for k := range c.Def {
		if _, ok := c.Schema[k]; !ok {
			onlyDef = append(onlyDef, k)
		}
	}
	for k := range c.Schema {
		if _, ok := c.Def[k]; !ok {
			onlySchema = append(onlySchema, k)
		}
	}
	if len(onlyDef) == 0 && len(onlySchema) == 0 {
		return nil
	}

	sort.Strings(onlyDef)
	sort.Strings(onlySchema)
	return fmt.Errorf("%w (def only: [%s], schema only: [%s])",
		ErrKeyParity, strings.Join(onlyDef, ", "), strings.Join(onlySchema, ", "))
}

// FieldErrors maps config keys to the reason they were rejected.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := slices.Sorted(maps.Keys(e))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidValue, strings.Join(parts, "; "))
}

func (e FieldErrors) Unwrap() error { return ErrInvalidValue }

// Validate runs every field schema over raw, applying defaults. Keys absent
// from the config are rejected. The returned object is keyed by logical key.
func (c ModelConfig) Validate(raw map[string]any) (map[string]any, error) {
	errs := FieldErrors{}
	out := make(map[string]any, len(c.Schema))

	for key := range raw {
		if _, ok := c.Schema[key]; !ok {
			errs[key] = "unknown config key"
		}
	}

	for key, schema := range c.Schema {
		if schema == nil {
			errs[key] = "no schema registered"
			continue
		}
		value, present := raw[key]
		parsed, keep, err := schema(value, present)
		if err != nil {
			errs[key] = strings.TrimPrefix(err.Error(), ErrInvalidValue.Error()+": ")
			continue
		}
		if keep {
			out[key] = parsed
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// Defaults returns the config produced by validating an empty object.
func (c ModelConfig) Defaults() map[string]any {
	out, err := c.Validate(nil)
	if err != nil {
		return map[string]any{}
	}
	return out
}
