package modeldata

import (
	"github.com/nulzo/unillm/pkg/configitem"
	ms "github.com/nulzo/unillm/pkg/modelschema"
	"github.com/nulzo/unillm/pkg/pricing"
)

const ProviderAnthropic = "anthropic"

func anthropicConfig(maxOutput int) configitem.ModelConfig {
	return configitem.Compose(map[string]configitem.Item{
		"temperature":   Temperature(1, 1),
		"maxTokens":     MaxTokens("max_tokens", maxOutput, 4096),
		"topP":          TopP("top_p"),
		"topK":          TopK("top_k", 500),
		"stopSequences": StopSequences("stop_sequences", 8),
		"stream":        Stream(),
		"thinking":      ThinkingItem(),
	})
}

var anthropicRoles = []ms.Role{ms.RoleSystem, ms.RoleUser, ms.RoleAssistant, ms.RoleTool}

func anthropicModels() []ms.Model {
	sonnet := longContext(200_000,
		pricing.TierPrices{Base: rates(3, 15), Cached: cachedInput(0.3)},
		pricing.TierPrices{Base: rates(6, 22.5), Cached: cachedInput(0.6)},
	)

	return []ms.Model{
		ms.MustChatModelSchema(ms.ChatModelSchema{
			Name:            "claude-sonnet-4-5",
			Description:     "Anthropic's balanced model for coding and agentic work, with a 1M token context window.",
			Roles:           anthropicRoles,
			Modalities:      []ms.Modality{ms.ModalityText, ms.ModalityImage, ms.ModalityDocument},
			MaxInputTokens:  1_000_000,
			MaxOutputTokens: 64_000,
			Config:          anthropicConfig(64_000),
			PricingModel:    sonnet,
		}),
		ms.MustChatModelSchema(ms.ChatModelSchema{
			Name:            "claude-opus-4-1",
			Description:     "Anthropic's most capable model for complex, long-running tasks.",
			Roles:           anthropicRoles,
			Modalities:      []ms.Modality{ms.ModalityText, ms.ModalityImage, ms.ModalityDocument},
			MaxInputTokens:  200_000,
			MaxOutputTokens: 32_000,
			Config:          anthropicConfig(32_000),
			PricingModel:    flat(15, 75, 1.5),
		}),
		ms.MustChatModelSchema(ms.ChatModelSchema{
			Name:            "claude-haiku-4-5",
			Description:     "Anthropic's fastest model.",
			Roles:           anthropicRoles,
			Modalities:      []ms.Modality{ms.ModalityText, ms.ModalityImage},
			MaxInputTokens:  200_000,
			MaxOutputTokens: 64_000,
			// haiku has no extended thinking
			Config:       anthropicConfig(64_000).Without("thinking"),
			PricingModel: flat(1, 5, 0.1),
		}),
	}
}
