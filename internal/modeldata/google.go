package modeldata

import (
	"github.com/nulzo/unillm/pkg/configitem"
	ms "github.com/nulzo/unillm/pkg/modelschema"
	"github.com/nulzo/unillm/pkg/pricing"
)

const ProviderGoogle = "google"

var harmThresholds = []configitem.Choice{
	{Value: "BLOCK_NONE", Label: "Block none"},
	{Value: "BLOCK_ONLY_HIGH", Label: "Block few"},
	{Value: "BLOCK_MEDIUM_AND_ABOVE", Label: "Block some"},
	{Value: "BLOCK_LOW_AND_ABOVE", Label: "Block most"},
}

var harmCategories = []configitem.Choice{
	{Value: "HARM_CATEGORY_HARASSMENT", Label: "Harassment"},
	{Value: "HARM_CATEGORY_HATE_SPEECH", Label: "Hate speech"},
	{Value: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Label: "Sexually explicit"},
	{Value: "HARM_CATEGORY_DANGEROUS_CONTENT", Label: "Dangerous content"},
}

func SafetySettings() configitem.Item {
	return configitem.MustPairedSelect(configitem.PairedSelectSpec{
		Param:       "safetySettings",
		Title:       "Safety Settings",
		Description: "Blocking threshold per harm category.",
		Fields: []configitem.PairedField{
			{Key: "category", Label: "Category", Choices: harmCategories},
			{Key: "threshold", Label: "Threshold", Choices: harmThresholds},
		},
		UniqueByField: "category",
	})
}

func geminiConfig(maxOutput int) configitem.ModelConfig {
	return configitem.Compose(map[string]configitem.Item{
		"temperature":    Temperature(2, 1),
		"maxTokens":      MaxTokens("maxOutputTokens", maxOutput, 8192),
		"topP":           TopP("topP"),
		"topK":           TopK("topK", 64),
		"stopSequences":  StopSequences("stopSequences", 5),
		"safetySettings": SafetySettings(),
		"responseFormat": ResponseFormatItem("responseFormat"),
	})
}

var geminiRoles = []ms.Role{ms.RoleSystem, ms.RoleUser, ms.RoleAssistant, ms.RoleTool}

func googleModels() []ms.Model {
	pro := longContext(200_000,
		pricing.TierPrices{Base: rates(1.25, 10), Cached: cachedInput(0.31)},
		pricing.TierPrices{Base: rates(2.5, 15), Cached: cachedInput(0.625)},
	)

	multimodal := []ms.Modality{ms.ModalityText, ms.ModalityImage, ms.ModalityAudio, ms.ModalityVideo, ms.ModalityDocument}

	return []ms.Model{
		ms.MustChatModelSchema(ms.ChatModelSchema{
			Name:            "gemini-2.5-pro",
			Description:     "Google's state of the art thinking model.",
			Roles:           geminiRoles,
			Modalities:      multimodal,
			MaxInputTokens:  1_048_576,
			MaxOutputTokens: 65_536,
			Config:          geminiConfig(65_536),
			PricingModel:    pro,
		}),
		ms.MustChatModelSchema(ms.ChatModelSchema{
			Name:            "gemini-2.5-flash",
			Description:     "Google's best price-performance model.",
			Roles:           geminiRoles,
			Modalities:      multimodal,
			MaxInputTokens:  1_048_576,
			MaxOutputTokens: 65_536,
			Config:          geminiConfig(65_536),
			PricingModel:    flat(0.3, 2.5, 0.075),
		}),
		ms.MustEmbeddingModelSchema(ms.EmbeddingModelSchema{
			Name:            "gemini-embedding-001",
			Description:     "Multilingual text embedding model.",
			Modalities:      []ms.Modality{ms.ModalityText},
			MaxInputTokens:  2048,
			MaxOutputTokens: 1,
			Dimensions:      3072,
			Config: configitem.Compose(map[string]configitem.Item{
				"dimensions": Dimensions(3072),
				"taskType": configitem.MustSelectString(configitem.SelectStringSpec{
					Param:   "taskType",
					Title:   "Task Type",
					Choices: []string{"RETRIEVAL_QUERY", "RETRIEVAL_DOCUMENT", "SEMANTIC_SIMILARITY", "CLASSIFICATION", "CLUSTERING"},
				}),
			}),
			PricingModel: embedding(0.15),
		}),
	}
}
