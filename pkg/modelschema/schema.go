// Package modelschema describes concrete chat and embedding models: their
// limits, modalities, tunable config and pricing.
package modelschema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/nulzo/unillm/pkg/configitem"
	"github.com/nulzo/unillm/pkg/pricing"
)

var ErrInvalidSchema = errors.New("invalid model schema")

var validate = validator.New(validator.WithRequiredStructEnabled())

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type Modality string

const (
	ModalityText     Modality = "text"
	ModalityImage    Modality = "image"
	ModalityAudio    Modality = "audio"
	ModalityVideo    Modality = "video"
	ModalityDocument Modality = "document"
)

type Kind string

const (
	KindChat      Kind = "chat"
	KindEmbedding Kind = "embedding"
)

// Summary is the presentation view shared by both schema kinds.
type Summary struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Kind            Kind       `json:"kind"`
	Roles           []Role     `json:"roles,omitempty"`
	Modalities      []Modality `json:"modalities"`
	MaxInputTokens  int        `json:"maxInputTokens"`
	MaxOutputTokens int        `json:"maxOutputTokens"`
	Dimensions      int        `json:"dimensions,omitempty"`
	ConfigKeys      []string   `json:"configKeys"`
	HasPricing      bool       `json:"hasPricing"`
}

// Model is implemented by ChatModelSchema and EmbeddingModelSchema.
type Model interface {
	Configured
	pricing.Provider
	Summary() Summary
}

// Configured is anything carrying a ModelConfig.
type Configured interface {
	ModelConfig() configitem.ModelConfig
}

// ChatModelSchema describes one chat model. Build it with NewChatModelSchema.
type ChatModelSchema struct {
	Name            string                 `validate:"required"`
	Description     string                 `validate:"max=500"`
	Roles           []Role                 `validate:"dive,oneof=system user assistant tool"`
	Modalities      []Modality             `validate:"min=1,dive,required"`
	MaxInputTokens  int                    `validate:"gt=0"`
	MaxOutputTokens int                    `validate:"gt=0"`
	Config          configitem.ModelConfig `validate:"-"`
	PricingModel    *pricing.ModelPricing  `validate:"-"`
}

// NewChatModelSchema checks s and returns a copy safe to share.
func NewChatModelSchema(s ChatModelSchema) (*ChatModelSchema, error) {
	if err := checkSchema(s.Name, &s, s.Config); err != nil {
		return nil, err
	}
	out := s
	return &out, nil
}

// MustChatModelSchema is NewChatModelSchema for static tables; it panics so a
// broken provider table fails at init.
func MustChatModelSchema(s ChatModelSchema) *ChatModelSchema {
	out, err := NewChatModelSchema(s)
	if err != nil {
		panic(err)
	}
	return out
}

func (s *ChatModelSchema) ModelConfig() configitem.ModelConfig { return s.Config }

func (s *ChatModelSchema) Pricing() (*pricing.ModelPricing, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil chat model schema", pricing.ErrMissingPricing)
	}
	return labelled(s.Name, s.PricingModel)
}

// WithPricing returns a copy of s priced by p.
func (s *ChatModelSchema) WithPricing(p *pricing.ModelPricing) *ChatModelSchema {
	out := *s
	out.PricingModel = p
	return &out
}

func (s *ChatModelSchema) Summary() Summary {
	return Summary{
		Name:            s.Name,
		Description:     s.Description,
		Kind:            KindChat,
		Roles:           s.Roles,
		Modalities:      s.Modalities,
		MaxInputTokens:  s.MaxInputTokens,
		MaxOutputTokens: s.MaxOutputTokens,
		ConfigKeys:      s.Config.Keys(),
		HasPricing:      s.PricingModel != nil,
	}
}

// EmbeddingModelSchema describes one embedding model.
type EmbeddingModelSchema struct {
	Name            string                 `validate:"required"`
	Description     string                 `validate:"max=500"`
	Modalities      []Modality             `validate:"min=1,dive,required"`
	MaxInputTokens  int                    `validate:"gt=0"`
	MaxOutputTokens int                    `validate:"gt=0"`
	Dimensions      int                    `validate:"gte=0"`
	Config          configitem.ModelConfig `validate:"-"`
	PricingModel    *pricing.ModelPricing  `validate:"-"`
}

func NewEmbeddingModelSchema(s EmbeddingModelSchema) (*EmbeddingModelSchema, error) {
	if err := checkSchema(s.Name, &s, s.Config); err != nil {
		return nil, err
	}
	out := s
	return &out, nil
}

func MustEmbeddingModelSchema(s EmbeddingModelSchema) *EmbeddingModelSchema {
	out, err := NewEmbeddingModelSchema(s)
	if err != nil {
		panic(err)
	}
	return out
}

func (s *EmbeddingModelSchema) ModelConfig() configitem.ModelConfig { return s.Config }

func (s *EmbeddingModelSchema) Pricing() (*pricing.ModelPricing, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil embedding model schema", pricing.ErrMissingPricing)
	}
	return labelled(s.Name, s.PricingModel)
}

func (s *EmbeddingModelSchema) WithPricing(p *pricing.ModelPricing) *EmbeddingModelSchema {
	out := *s
	out.PricingModel = p
	return &out
}

func (s *EmbeddingModelSchema) Summary() Summary {
	return Summary{
		Name:            s.Name,
		Description:     s.Description,
		Kind:            KindEmbedding,
		Modalities:      s.Modalities,
		MaxInputTokens:  s.MaxInputTokens,
		MaxOutputTokens: s.MaxOutputTokens,
		Dimensions:      s.Dimensions,
		ConfigKeys:      s.Config.Keys(),
		HasPricing:      s.PricingModel != nil,
	}
}

func labelled(name string, p *pricing.ModelPricing) (*pricing.ModelPricing, error) {
	if p == nil {
		return nil, fmt.Errorf("model %q has no pricing", name)
	}
	if p.Model() == "" {
		return p.WithModel(name), nil
	}
	return p, nil
}

func checkSchema(name string, s any, cfg configitem.ModelConfig) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchema, name, err)
	}
	if err := cfg.CheckKeyParity(); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSchema, name, err)
	}

	// two logical keys must never serialize to the same wire param
	owners := make(map[string]string, len(cfg.Def))
	for _, key := range cfg.Keys() {
		param := cfg.Def[key].Meta().Param
		if prev, dup := owners[param]; dup {
			keys := []string{prev, key}
			sort.Strings(keys)
			return fmt.Errorf("%w %q: keys %s and %s share wire param %q", ErrInvalidSchema, name, keys[0], keys[1], param)
		}
		owners[param] = key
	}
	return nil
}
