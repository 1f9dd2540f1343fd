package configitem

import (
	"slices"
	"strings"
)

// SelectStringSpec describes a parameter restricted to a fixed set of strings.
type SelectStringSpec struct {
	Param       string
	Title       string
	Description string
	// Default is used when the field is absent; nil means null.
	Default *string
	Choices []string
}

type SelectStringDef struct {
	Base
	Default *string  `json:"default"`
	Choices []string `json:"choices" validate:"min=1,dive,required"`
}

func (SelectStringDef) isDef() {}

// SelectString builds a select-string item. Null is always accepted.
func SelectString(spec SelectStringSpec) (Item, error) {
	def := SelectStringDef{
		Base:    Base{Type: KindSelectString, Param: spec.Param, Title: spec.Title, Description: spec.Description},
		Default: spec.Default,
		Choices: slices.Clone(spec.Choices),
	}
	if msg := checkStruct(def); msg != "" {
		return Item{}, itemError(spec.Param, "%s", msg)
	}
	if def.Default != nil && !slices.Contains(def.Choices, *def.Default) {
		return Item{}, itemError(spec.Param, "default %q is not one of [%s]", *def.Default, strings.Join(def.Choices, ", "))
	}
	return Item{Def: def, Schema: def.parse}, nil
}

func MustSelectString(spec SelectStringSpec) Item { return must(SelectString(spec)) }

func (d SelectStringDef) parse(value any, present bool) (any, bool, error) {
	if !present {
		if d.Default != nil {
			return *d.Default, true, nil
		}
		return nil, true, nil
	}
	if value == nil {
		return nil, true, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, false, valueError("expected a string, got %s", typeName(value))
	}
	if !slices.Contains(d.Choices, s) {
		return nil, false, valueError("must be one of [%s]", strings.Join(d.Choices, ", "))
	}
	return s, true, nil
}

// SelectBooleanSpec describes an on/off parameter that may also be unset.
type SelectBooleanSpec struct {
	Param       string
	Title       string
	Description string
	Default     *bool
}

type SelectBooleanDef struct {
	Base
	Default *bool `json:"default"`
}

func (SelectBooleanDef) isDef() {}

// SelectBoolean builds a select-boolean item. Null is always accepted.
func SelectBoolean(spec SelectBooleanSpec) (Item, error) {
	def := SelectBooleanDef{
		Base:    Base{Type: KindSelectBoolean, Param: spec.Param, Title: spec.Title, Description: spec.Description},
		Default: spec.Default,
	}
	if msg := checkStruct(def); msg != "" {
		return Item{}, itemError(spec.Param, "%s", msg)
	}
	return Item{Def: def, Schema: def.parse}, nil
}

func MustSelectBoolean(spec SelectBooleanSpec) Item { return must(SelectBoolean(spec)) }

func (d SelectBooleanDef) parse(value any, present bool) (any, bool, error) {
	if !present {
		if d.Default != nil {
			return *d.Default, true, nil
		}
		return nil, true, nil
	}
	if value == nil {
		return nil, true, nil
	}

	b, ok := value.(bool)
	if !ok {
		return nil, false, valueError("expected a boolean, got %s", typeName(value))
	}
	return b, true, nil
}

// String returns a pointer to s, for select defaults.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for select defaults.
func Bool(b bool) *bool { return &b }
