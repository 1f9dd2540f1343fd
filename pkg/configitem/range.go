package configitem

import "math"

// RangeSpec describes a numeric parameter bounded by [Min, Max].
type RangeSpec struct {
	Param       string
	Title       string
	Description string
	Min         int
	Max         int
	Step        float64
	// Default is applied when the field is absent. Nil leaves it absent.
	Default *float64
}

type RangeDef struct {
	Base
	Min     int      `json:"min" validate:"ltefield=Max"`
	Max     int      `json:"max"`
	Step    float64  `json:"step" validate:"gt=0"`
	Default *float64 `json:"default,omitempty"`
}

func (RangeDef) isDef() {}

// Range builds a range item.
func Range(spec RangeSpec) (Item, error) {
	def := RangeDef{
		Base:    Base{Type: KindRange, Param: spec.Param, Title: spec.Title, Description: spec.Description},
		Min:     spec.Min,
		Max:     spec.Max,
		Step:    spec.Step,
		Default: spec.Default,
	}
	if msg := checkStruct(def); msg != "" {
		return Item{}, itemError(spec.Param, "%s", msg)
	}
	if def.Default != nil && !def.inBounds(*def.Default) {
		return Item{}, itemError(spec.Param, "default %v outside [%d, %d]", *def.Default, def.Min, def.Max)
	}

	return Item{Def: def, Schema: def.parse}, nil
}

// MustRange is Range for static tables.
func MustRange(spec RangeSpec) Item { return must(Range(spec)) }

func (d RangeDef) inBounds(v float64) bool {
	return !math.IsNaN(v) && v >= float64(d.Min) && v <= float64(d.Max)
}

func (d RangeDef) parse(value any, present bool) (any, bool, error) {
	if !present || value == nil {
		if d.Default != nil {
			return *d.Default, true, nil
		}
		return nil, false, nil
	}

	f, ok := toFloat(value)
	if !ok {
		return nil, false, valueError("expected a number, got %s", typeName(value))
	}
	if !d.inBounds(f) {
		return nil, false, valueError("%v is outside [%d, %d]", f, d.Min, d.Max)
	}
	return f, true, nil
}

// Float returns a pointer to v, for range defaults.
func Float(v float64) *float64 { return &v }
