package configitem

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// ObjectValidator is a structural validator for a nested object value.
type ObjectValidator interface {
	Validate(value any) (any, error)
}

// ObjectSchemaSpec embeds an arbitrary structural validator, e.g. a
// response_format object.
type ObjectSchemaSpec struct {
	Param        string
	Title        string
	Description  string
	ObjectSchema ObjectValidator
	// Variant is a presentation hint for the object editor.
	Variant string
	// FieldChoices lists allowed values per sub-field, for presentation.
	FieldChoices map[string][]string
}

type ObjectSchemaDef struct {
	Base
	ObjectSchema ObjectValidator    `json:"-"`
	Variant      string              `json:"variant,omitempty"`
	FieldChoices map[string][]string `json:"fieldChoices,omitempty"`
}

func (ObjectSchemaDef) isDef() {}

// ObjectSchema builds an object-schema item. The field is optional.
func ObjectSchema(spec ObjectSchemaSpec) (Item, error) {
	def := ObjectSchemaDef{
		Base:         Base{Type: KindObjectSchema, Param: spec.Param, Title: spec.Title, Description: spec.Description},
		ObjectSchema: spec.ObjectSchema,
		Variant:      spec.Variant,
		FieldChoices: spec.FieldChoices,
	}
	if msg := checkStruct(def); msg != "" {
		return Item{}, itemError(spec.Param, "%s", msg)
	}
	if def.ObjectSchema == nil {
		return Item{}, itemError(spec.Param, "objectSchema is required")
	}
	return Item{Def: def, Schema: def.parse}, nil
}

func MustObjectSchema(spec ObjectSchemaSpec) Item { return must(ObjectSchema(spec)) }

func (d ObjectSchemaDef) parse(value any, present bool) (any, bool, error) {
	if !present || value == nil {
		return nil, false, nil
	}

	parsed, err := d.ObjectSchema.Validate(value)
	if err != nil {
		return nil, false, valueError("%v", err)
	}
	return parsed, true, nil
}

// StructValidator decodes a raw object into T and checks T's validate tags.
// Unknown keys are rejected.
type StructValidator[T any] struct{}

// Struct returns an ObjectValidator backed by the struct type T.
func Struct[T any]() StructValidator[T] { return StructValidator[T]{} }

func (StructValidator[T]) Validate(value any) (any, error) {
	if v, ok := value.(T); ok {
		return v, validateStruct(v)
	}
	if v, ok := value.(*T); ok && v != nil {
		return *v, validateStruct(*v)
	}

	obj, ok := toObject(value)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %s", typeName(value))
	}

	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: false,
		DecodeHook:       mapstructure.DecodeHookFuncType(rejectFractional),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(obj); err != nil {
		return nil, err
	}
	return out, validateStruct(out)
}

// rejectFractional stops the decoder from truncating 2048.7 into an int field.
func rejectFractional(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	var f float64
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
		f = reflect.ValueOf(data).Float()
	default:
		return data, nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return nil, fmt.Errorf("expected an integer, got %v", f)
	}
	return data, nil
}

func validateStruct(v any) error {
	if reflect.Indirect(reflect.ValueOf(v)).Kind() != reflect.Struct {
		return nil
	}
	if msg := checkStruct(v); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return nil
}
