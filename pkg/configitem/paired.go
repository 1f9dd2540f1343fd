package configitem

import (
	"slices"
	"strings"
)

// Choice is one selectable value.
type Choice struct {
	Value string `json:"value" validate:"required"`
	Label string `json:"label,omitempty"`
}

// PairedField is one of the two columns of a paired-select row.
type PairedField struct {
	Key     string   `json:"key" validate:"required"`
	Label   string   `json:"label"`
	Choices []Choice `json:"choices" validate:"min=1,dive"`
}

func (f PairedField) values() []string {
	out := make([]string, len(f.Choices))
	for i, c := range f.Choices {
		out[i] = c.Value
	}
	return out
}

// PairedSelectSpec describes a list of two-field rows, e.g. safety settings
// pairing a harm category with a threshold.
type PairedSelectSpec struct {
	Param       string
	Title       string
	Description string
	Fields      []PairedField
	// UniqueByField, when set, forbids two rows sharing that field's value.
	UniqueByField string
}

type PairedSelectDef struct {
	Base
	Fields        []PairedField `json:"fields" validate:"len=2,dive"`
	UniqueByField string        `json:"uniqueByField,omitempty"`
}

func (PairedSelectDef) isDef() {}

// PairedSelect builds a paired-select item.
func PairedSelect(spec PairedSelectSpec) (Item, error) {
	fields := make([]PairedField, len(spec.Fields))
	for i, f := range spec.Fields {
		fields[i] = PairedField{Key: f.Key, Label: f.Label, Choices: slices.Clone(f.Choices)}
	}

	def := PairedSelectDef{
		Base:          Base{Type: KindPairedSelect, Param: spec.Param, Title: spec.Title, Description: spec.Description},
		Fields:        fields,
		UniqueByField: spec.UniqueByField,
	}
	if len(fields) != 2 {
		return Item{}, itemError(spec.Param, "exactly 2 fields required, got %d", len(fields))
	}
	if msg := checkStruct(def); msg != "" {
		return Item{}, itemError(spec.Param, "%s", msg)
	}
	if fields[0].Key == fields[1].Key {
		return Item{}, itemError(spec.Param, "duplicate field key %q", fields[0].Key)
	}
	if def.UniqueByField != "" && def.field(def.UniqueByField) == nil {
		return Item{}, itemError(spec.Param, "uniqueByField %q is not one of the field keys", def.UniqueByField)
	}

	return Item{Def: def, Schema: def.parse}, nil
}

func MustPairedSelect(spec PairedSelectSpec) Item { return must(PairedSelect(spec)) }

func (d PairedSelectDef) field(key string) *PairedField {
	for i := range d.Fields {
		if d.Fields[i].Key == key {
			return &d.Fields[i]
		}
	}
	return nil
}

func (d PairedSelectDef) parse(value any, present bool) (any, bool, error) {
	if !present || value == nil {
		return nil, false, nil
	}

	rows, ok := toList(value)
	if !ok {
		return nil, false, valueError("expected a list of objects, got %s", typeName(value))
	}

	seen := make(map[string]int)
	out := make([]map[string]string, len(rows))
	for i, raw := range rows {
		obj, ok := toObject(raw)
		if !ok {
			return nil, false, valueError("row %d: expected an object, got %s", i, typeName(raw))
		}

		row := make(map[string]string, 2)
		for _, f := range d.Fields {
			v, ok := obj[f.Key].(string)
			if !ok {
				return nil, false, valueError("row %d: %s is required and must be a string", i, f.Key)
			}
			if allowed := f.values(); !slices.Contains(allowed, v) {
				return nil, false, valueError("row %d: %s must be one of [%s]", i, f.Key, strings.Join(allowed, ", "))
			}
			row[f.Key] = v
		}

		if d.UniqueByField != "" {
			key := row[d.UniqueByField]
			if prev, dup := seen[key]; dup {
				return nil, false, valueError("rows %d and %d share %s %q", prev, i, d.UniqueByField, key)
			}
			seen[key] = i
		}
		out[i] = row
	}
	return out, true, nil
}
