package configitem

// MultiStringSpec describes a list of free-form strings, e.g. stop sequences.
type MultiStringSpec struct {
	Param       string
	Title       string
	Description string
	Max         int
}

type MultiStringDef struct {
	Base
	Max int `json:"max" validate:"gt=0"`
}

func (MultiStringDef) isDef() {}

// MultiString builds a multi-string item. Absent values become an empty list.
func MultiString(spec MultiStringSpec) (Item, error) {
	def := MultiStringDef{
		Base: Base{Type: KindMultiString, Param: spec.Param, Title: spec.Title, Description: spec.Description},
		Max:  spec.Max,
	}
	if msg := checkStruct(def); msg != "" {
		return Item{}, itemError(spec.Param, "%s", msg)
	}
	return Item{Def: def, Schema: def.parse}, nil
}

func MustMultiString(spec MultiStringSpec) Item { return must(MultiString(spec)) }

func (d MultiStringDef) parse(value any, present bool) (any, bool, error) {
	if !present || value == nil {
		return []string{}, true, nil
	}

	list, ok := toList(value)
	if !ok {
		return nil, false, valueError("expected a list of strings, got %s", typeName(value))
	}
	if len(list) > d.Max {
		return nil, false, valueError("at most %d values allowed, got %d", d.Max, len(list))
	}

	out := make([]string, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, false, valueError("element %d: expected a string, got %s", i, typeName(v))
		}
		out[i] = s
	}
	return out, true, nil
}
