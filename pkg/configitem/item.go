// Package configitem defines the closed set of tunable model parameter kinds.
//
// Every kind is built by a factory that returns an Item: the presentation
// metadata (Def) and a runtime validator (Schema) enforcing the same
// constraints. Items are never assembled by hand so the two halves cannot drift.
package configitem

import (
	"errors"
	"fmt"
)

// Kind is the discriminant tag of a Def.
type Kind string

const (
	KindRange         Kind = "range"
	KindMultiString   Kind = "multi-string"
	KindSelectString  Kind = "select-string"
	KindSelectBoolean Kind = "select-boolean"
	KindObjectSchema  Kind = "object-schema"
	KindPairedSelect  Kind = "paired-select"
)

var (
	ErrInvalidItem  = errors.New("invalid config item")
	ErrInvalidValue = errors.New("invalid config value")
	ErrKeyParity    = errors.New("Keys in config.def must exactly match keys in config.schema")
)

const maxDescriptionLen = 500

// Base holds the fields shared by every def.
type Base struct {
	Type Kind `json:"type" validate:"required"`
	// Param is the wire key the value is serialized under; it may differ
	// from the logical config key.
	Param       string `json:"param" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

// Meta returns the common fields.
func (b Base) Meta() Base { return b }

// Def is the metadata half of an item. It is implemented only by the def
// types of this package.
type Def interface {
	Meta() Base
	isDef()
}

// Schema validates one field of a config object. present is false when the
// key was absent from the input. keep reports whether the field belongs in
// the parsed output (false for an absent optional field without a default).
type Schema func(value any, present bool) (parsed any, keep bool, err error)

// Item pairs a def with the schema enforcing it.
type Item struct {
	Def    Def
	Schema Schema
}

func (i Item) Kind() Kind { return i.Def.Meta().Type }

func itemError(param string, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidItem, param, fmt.Sprintf(format, args...))
}

func valueError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))
}

func must(item Item, err error) Item {
	if err != nil {
		panic(err)
	}
	return item
}
