package llm

import (
	"fmt"
	"sort"

	"github.com/beacon-agent/beacon/engine/core"
)

// ProviderName identifies an LLM provider known to the registry.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
	ProviderDeepSeek  ProviderName = "deepseek"
	ProviderGroq      ProviderName = "groq"
	ProviderXAI       ProviderName = "xai"
	ProviderOllama    ProviderName = "ollama"
)

// RouterName selects the internal call path used to invoke a provider.
type RouterName string

const (
	RouterVercel  RouterName = "vercel"
	RouterInBuilt RouterName = "in-built"
)

// defaultOutputReservation is subtracted from the input ceiling when the
// config does not reserve output tokens explicitly.
const defaultOutputReservation = 4096

// minInputTokens is the floor EffectiveMaxInputTokens never goes below.
const minInputTokens = 1

type modelInfo struct {
	maxInputTokens int
}

type providerInfo struct {
	models          map[string]modelInfo
	routers         []RouterName
	supportsBaseURL bool
	defaultModel    string
}

// registry is the static provider table. It is read-only after init; every
// query function below is pure.
var registry = map[ProviderName]providerInfo{
	ProviderOpenAI: {
		models: map[string]modelInfo{
			"gpt-4o":      {maxInputTokens: 128000},
			"gpt-4o-mini": {maxInputTokens: 128000},
			"gpt-4.1":     {maxInputTokens: 1047576},
			"o3-mini":     {maxInputTokens: 200000},
		},
		routers:         []RouterName{RouterVercel, RouterInBuilt},
		supportsBaseURL: true,
		defaultModel:    "gpt-4o",
	},
	ProviderAnthropic: {
		models: map[string]modelInfo{
			"claude-3-5-sonnet": {maxInputTokens: 200000},
			"claude-3-5-haiku":  {maxInputTokens: 200000},
			"claude-3-opus":     {maxInputTokens: 200000},
		},
		routers:      []RouterName{RouterVercel, RouterInBuilt},
		defaultModel: "claude-3-5-sonnet",
	},
	ProviderGoogle: {
		models: map[string]modelInfo{
			"gemini-2.0-flash": {maxInputTokens: 1048576},
			"gemini-1.5-pro":   {maxInputTokens: 2097152},
			"gemini-1.5-flash": {maxInputTokens: 1048576},
		},
		routers:      []RouterName{RouterVercel, RouterInBuilt},
		defaultModel: "gemini-2.0-flash",
	},
	ProviderDeepSeek: {
		models: map[string]modelInfo{
			"deepseek-chat":     {maxInputTokens: 64000},
			"deepseek-reasoner": {maxInputTokens: 64000},
		},
		routers:         []RouterName{RouterInBuilt},
		supportsBaseURL: true,
		defaultModel:    "deepseek-chat",
	},
	ProviderGroq: {
		models: map[string]modelInfo{
			"llama-3.3-70b-versatile": {maxInputTokens: 128000},
			"llama-3.1-8b-instant":    {maxInputTokens: 128000},
		},
		routers:      []RouterName{RouterInBuilt},
		defaultModel: "llama-3.3-70b-versatile",
	},
	ProviderXAI: {
		models: map[string]modelInfo{
			"grok-2":      {maxInputTokens: 131072},
			"grok-2-mini": {maxInputTokens: 131072},
		},
		routers:      []RouterName{RouterInBuilt},
		defaultModel: "grok-2",
	},
	ProviderOllama: {
		models: map[string]modelInfo{
			"llama3.2":      {maxInputTokens: 131072},
			"qwen2.5-coder": {maxInputTokens: 32768},
		},
		routers:         []RouterName{RouterInBuilt},
		supportsBaseURL: true,
		defaultModel:    "llama3.2",
	},
}

// IsValidProvider reports whether name is a registered provider.
func IsValidProvider(name ProviderName) bool {
	_, ok := registry[name]
	return ok
}

// IsValidProviderModel reports whether model belongs to provider.
func IsValidProviderModel(provider ProviderName, model string) bool {
	info, ok := registry[provider]
	if !ok {
		return false
	}
	_, ok = info.models[model]
	return ok
}

// SupportedModels returns provider's model identifiers in sorted order, or
// nil for an unknown provider.
func SupportedModels(provider ProviderName) []string {
	info, ok := registry[provider]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(info.models))
	for m := range info.models {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// SupportedRouters returns the routers provider can be invoked through.
func SupportedRouters(provider ProviderName) []RouterName {
	info, ok := registry[provider]
	if !ok {
		return nil
	}
	out := make([]RouterName, len(info.routers))
	copy(out, info.routers)
	return out
}

// IsRouterSupported reports whether provider can be driven by router.
func IsRouterSupported(provider ProviderName, router RouterName) bool {
	for _, r := range SupportedRouters(provider) {
		if r == router {
			return true
		}
	}
	return false
}

// SupportsBaseURL reports whether provider accepts a custom base URL.
func SupportsBaseURL(provider ProviderName) bool {
	info, ok := registry[provider]
	return ok && info.supportsBaseURL
}

// DefaultModel returns provider's default model, if it has one.
func DefaultModel(provider ProviderName) (string, bool) {
	info, ok := registry[provider]
	if !ok || info.defaultModel == "" {
		return "", false
	}
	return info.defaultModel, true
}

// ProviderFromModel infers the owning provider of a model identifier. A model
// claimed by no provider, or by more than one, yields a structured inference
// error instructing the caller to name the provider explicitly; the registry
// never guesses.
func ProviderFromModel(model string) (ProviderName, error) {
	var matches []ProviderName
	for name, info := range registry {
		if _, ok := info.models[model]; ok {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", core.Error{
			Code:            core.ErrGeneral,
			Message:         fmt.Sprintf("unable to infer provider for model %q", model),
			Model:           model,
			SuggestedAction: "specify the provider explicitly",
		}
	default:
		return "", core.Error{
			Code:            core.ErrGeneral,
			Message:         fmt.Sprintf("model %q is offered by multiple providers", model),
			Model:           model,
			SuggestedAction: "specify the provider explicitly",
		}
	}
}

// ModelInputCeiling returns the registry token ceiling for (provider, model),
// or 0 when unknown.
func ModelInputCeiling(provider ProviderName, model string) int {
	info, ok := registry[provider]
	if !ok {
		return 0
	}
	m, ok := info.models[model]
	if !ok {
		return 0
	}
	return m.maxInputTokens
}

// EffectiveMaxInputTokens computes the usable input-token budget for cfg:
// min(model ceiling, explicit override) minus the output reservation, never
// below minInputTokens.
func EffectiveMaxInputTokens(cfg *Config) int {
	ceiling := ModelInputCeiling(cfg.Provider, cfg.Model)
	if ceiling == 0 {
		ceiling = 128000
	}
	if cfg.MaxInputTokens > 0 && cfg.MaxInputTokens < ceiling {
		ceiling = cfg.MaxInputTokens
	}
	reserve := cfg.MaxOutputTokens
	if reserve <= 0 {
		reserve = defaultOutputReservation
	}
	effective := ceiling - reserve
	if effective < minInputTokens {
		return minInputTokens
	}
	return effective
}
