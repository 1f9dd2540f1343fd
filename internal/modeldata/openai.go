package modeldata

import (
	"github.com/nulzo/unillm/pkg/configitem"
	ms "github.com/nulzo/unillm/pkg/modelschema"
)

const ProviderOpenAI = "openai"

func openAIConfig(maxOutput int) configitem.ModelConfig {
	return configitem.Compose(map[string]configitem.Item{
		"temperature":       Temperature(2, 1),
		"maxTokens":         MaxTokens("max_completion_tokens", maxOutput, 4096),
		"topP":              TopP("top_p"),
		"stopSequences":     StopSequences("stop", 4),
		"frequencyPenalty":  Penalty("frequency_penalty", "Frequency Penalty"),
		"presencePenalty":   Penalty("presence_penalty", "Presence Penalty"),
		"seed":              Seed("seed"),
		"responseFormat":    ResponseFormatItem("response_format"),
		"parallelToolCalls": ParallelToolCalls(),
		"stream":            Stream(),
	})
}

// reasoning models reject sampling parameters
func openAIReasoningConfig(maxOutput int) configitem.ModelConfig {
	return openAIConfig(maxOutput).
		Without("temperature", "topP", "frequencyPenalty", "presencePenalty").
		Extend(map[string]configitem.Item{
			"reasoningEffort": ReasoningEffort("reasoning_effort", "low", "medium", "high"),
		})
}

var openAIRoles = []ms.Role{ms.RoleSystem, ms.RoleUser, ms.RoleAssistant, ms.RoleTool}

func openAIModels() []ms.Model {
	embeddingConfig := func(dims int) configitem.ModelConfig {
		return configitem.Compose(map[string]configitem.Item{
			"encodingFormat": EncodingFormat(),
			"dimensions":     Dimensions(dims),
		})
	}

	return []ms.Model{
		ms.MustChatModelSchema(ms.ChatModelSchema{
			Name:            "gpt-4o",
			Description:     "OpenAI's flagship multimodal model.",
			Roles:           openAIRoles,
			Modalities:      []ms.Modality{ms.ModalityText, ms.ModalityImage},
			MaxInputTokens:  128_000,
			MaxOutputTokens: 16_384,
			Config:          openAIConfig(16_384),
			PricingModel:    flat(2.5, 10, 1.25),
		}),
		ms.MustChatModelSchema(ms.ChatModelSchema{
			Name:            "gpt-4o-mini",
			Description:     "Small, fast and cheap multimodal model.",
			Roles:           openAIRoles,
			Modalities:      []ms.Modality{ms.ModalityText, ms.ModalityImage},
			MaxInputTokens:  128_000,
			MaxOutputTokens: 16_384,
			Config:          openAIConfig(16_384),
			PricingModel:    flat(0.15, 0.6, 0.075),
		}),
		ms.MustChatModelSchema(ms.ChatModelSchema{
			Name:            "o4-mini",
			Description:     "Compact reasoning model optimised for math, coding and visual tasks.",
			Roles:           openAIRoles,
			Modalities:      []ms.Modality{ms.ModalityText, ms.ModalityImage},
			MaxInputTokens:  200_000,
			MaxOutputTokens: 100_000,
			Config:          openAIReasoningConfig(100_000),
			PricingModel:    flat(1.1, 4.4, 0.275),
		}),
		ms.MustEmbeddingModelSchema(ms.EmbeddingModelSchema{
			Name:            "text-embedding-3-small",
			Description:     "Efficient general purpose embedding model.",
			Modalities:      []ms.Modality{ms.ModalityText},
			MaxInputTokens:  8191,
			MaxOutputTokens: 1,
			Dimensions:      1536,
			Config:          embeddingConfig(1536),
			PricingModel:    embedding(0.02),
		}),
		ms.MustEmbeddingModelSchema(ms.EmbeddingModelSchema{
			Name:            "text-embedding-3-large",
			Description:     "Most capable OpenAI embedding model.",
			Modalities:      []ms.Modality{ms.ModalityText},
			MaxInputTokens:  8191,
			MaxOutputTokens: 1,
			Dimensions:      3072,
			Config:          embeddingConfig(3072),
			PricingModel:    embedding(0.13),
		}),
	}
}
