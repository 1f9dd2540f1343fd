package modeldata

import (
	"sync"

	ms "github.com/nulzo/unillm/pkg/modelschema"
)

var (
	builtinOnce sync.Once
	builtin     map[string][]ms.Model
)

// Providers returns the built-in model tables keyed by provider.
// A malformed table panics on first use.
func Providers() map[string][]ms.Model {
	builtinOnce.Do(func() {
		builtin = map[string][]ms.Model{
			ProviderAnthropic: anthropicModels(),
			ProviderOpenAI:    openAIModels(),
			ProviderGoogle:    googleModels(),
		}
	})
	return builtin
}

// Models flattens Providers.
func Models() []ms.Model {
	var out []ms.Model
	for _, p := range []string{ProviderAnthropic, ProviderGoogle, ProviderOpenAI} {
		out = append(out, Providers()[p]...)
	}
	return out
}

// ProviderOf returns the provider that ships model name.
func ProviderOf(name string) (string, bool) {
	for p, models := range Providers() {
		for _, m := range models {
			if m.Summary().Name == name {
				return p, true
			}
		}
	}
	return "", false
}
