package modeldata

import "github.com/nulzo/unillm/pkg/configitem"

// Shared config items. Providers compose these and override where their
// limits differ.

func Temperature(max int, def float64) configitem.Item {
	return configitem.MustRange(configitem.RangeSpec{
		Param:       "temperature",
		Title:       "Temperature",
		Description: "Higher values make output more random, lower values more focused and deterministic.",
		Min:         0,
		Max:         max,
		Step:        0.01,
		Default:     configitem.Float(def),
	})
}

func TopP(param string) configitem.Item {
	return configitem.MustRange(configitem.RangeSpec{
		Param:       param,
		Title:       "Top P",
		Description: "Nucleus sampling: only tokens within the top P probability mass are considered.",
		Min:         0,
		Max:         1,
		Step:        0.01,
	})
}

func TopK(param string, max int) configitem.Item {
	return configitem.MustRange(configitem.RangeSpec{
		Param:       param,
		Title:       "Top K",
		Description: "Only sample from the K most likely next tokens.",
		Min:         1,
		Max:         max,
		Step:        1,
	})
}

func MaxTokens(param string, max int, def float64) configitem.Item {
	return configitem.MustRange(configitem.RangeSpec{
		Param:       param,
		Title:       "Max Tokens",
		Description: "Maximum number of tokens to generate.",
		Min:         1,
		Max:         max,
		Step:        1,
		Default:     configitem.Float(def),
	})
}

func StopSequences(param string, max int) configitem.Item {
	return configitem.MustMultiString(configitem.MultiStringSpec{
		Param:       param,
		Title:       "Stop Sequences",
		Description: "Generation stops when any of these strings is produced.",
		Max:         max,
	})
}

func Penalty(param, title string) configitem.Item {
	return configitem.MustRange(configitem.RangeSpec{
		Param:       param,
		Title:       title,
		Description: "Positive values discourage repetition, negative values encourage it.",
		Min:         -2,
		Max:         2,
		Step:        0.01,
	})
}

func Seed(param string) configitem.Item {
	return configitem.MustRange(configitem.RangeSpec{
		Param:       param,
		Title:       "Seed",
		Description: "Best-effort deterministic sampling.",
		Min:         0,
		Max:         1 << 31,
		Step:        1,
	})
}

func ReasoningEffort(param string, choices ...string) configitem.Item {
	return configitem.MustSelectString(configitem.SelectStringSpec{
		Param:       param,
		Title:       "Reasoning Effort",
		Description: "How much effort the model spends reasoning before answering.",
		Choices:     choices,
		Default:     configitem.String("medium"),
	})
}

func Stream() configitem.Item {
	return configitem.MustSelectBoolean(configitem.SelectBooleanSpec{
		Param:       "stream",
		Title:       "Stream",
		Description: "Return partial results as server-sent events.",
		Default:     configitem.Bool(false),
	})
}

func ParallelToolCalls() configitem.Item {
	return configitem.MustSelectBoolean(configitem.SelectBooleanSpec{
		Param:       "parallel_tool_calls",
		Title:       "Parallel Tool Calls",
		Description: "Allow the model to call several tools in one turn.",
	})
}

// ResponseFormat is the OpenAI-style structured output selector.
type ResponseFormat struct {
	Type       string         `json:"type" validate:"required,oneof=text json_object json_schema"`
	JSONSchema map[string]any `json:"json_schema,omitempty" validate:"required_if=Type json_schema"`
}

func ResponseFormatItem(param string) configitem.Item {
	return configitem.MustObjectSchema(configitem.ObjectSchemaSpec{
		Param:        param,
		Title:        "Response Format",
		Description:  "Force plain text, any JSON object, or JSON matching a schema.",
		ObjectSchema: configitem.Struct[ResponseFormat](),
		FieldChoices: map[string][]string{"type": {"text", "json_object", "json_schema"}},
	})
}

// Thinking toggles extended reasoning with a token budget.
type Thinking struct {
	Type         string `json:"type" validate:"required,oneof=enabled disabled"`
	BudgetTokens int    `json:"budget_tokens,omitempty" validate:"omitempty,gte=1024"`
}

func ThinkingItem() configitem.Item {
	return configitem.MustObjectSchema(configitem.ObjectSchemaSpec{
		Param:        "thinking",
		Title:        "Extended Thinking",
		Description:  "Let the model reason internally, spending at most budget_tokens.",
		ObjectSchema: configitem.Struct[Thinking](),
		Variant:      "thinking",
		FieldChoices: map[string][]string{"type": {"enabled", "disabled"}},
	})
}

func EncodingFormat() configitem.Item {
	return configitem.MustSelectString(configitem.SelectStringSpec{
		Param:       "encoding_format",
		Title:       "Encoding Format",
		Description: "Return embeddings as float arrays or base64 strings.",
		Choices:     []string{"float", "base64"},
		Default:     configitem.String("float"),
	})
}

func Dimensions(max int) configitem.Item {
	return configitem.MustRange(configitem.RangeSpec{
		Param:       "dimensions",
		Title:       "Dimensions",
		Description: "Truncate the output embedding to this many dimensions.",
		Min:         1,
		Max:         max,
		Step:        1,
	})
}
