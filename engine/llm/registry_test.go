package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-agent/beacon/engine/core"
)

func TestIsValidProvider(t *testing.T) {
	t.Run("Should accept registered providers", func(t *testing.T) {
		assert.True(t, IsValidProvider(ProviderOpenAI))
		assert.True(t, IsValidProvider(ProviderAnthropic))
		assert.True(t, IsValidProvider(ProviderOllama))
	})
	t.Run("Should reject unknown providers", func(t *testing.T) {
		assert.False(t, IsValidProvider("azure"))
		assert.False(t, IsValidProvider(""))
	})
}

func TestIsValidProviderModel(t *testing.T) {
	t.Run("Should accept a model owned by the provider", func(t *testing.T) {
		assert.True(t, IsValidProviderModel(ProviderOpenAI, "gpt-4o"))
	})
	t.Run("Should reject a model from another provider", func(t *testing.T) {
		assert.False(t, IsValidProviderModel(ProviderAnthropic, "gpt-4o"))
	})
	t.Run("Should reject an unknown provider", func(t *testing.T) {
		assert.False(t, IsValidProviderModel("azure", "gpt-4o"))
	})
}

func TestSupportedModels(t *testing.T) {
	t.Run("Should return sorted models for a provider", func(t *testing.T) {
		models := SupportedModels(ProviderAnthropic)
		require.NotEmpty(t, models)
		assert.Contains(t, models, "claude-3-5-sonnet")
		assert.IsIncreasing(t, models)
	})
	t.Run("Should return nil for an unknown provider", func(t *testing.T) {
		assert.Nil(t, SupportedModels("azure"))
	})
}

func TestRouterSupport(t *testing.T) {
	t.Run("Should support both routers for openai", func(t *testing.T) {
		assert.True(t, IsRouterSupported(ProviderOpenAI, RouterVercel))
		assert.True(t, IsRouterSupported(ProviderOpenAI, RouterInBuilt))
	})
	t.Run("Should restrict deepseek to the in-built router", func(t *testing.T) {
		assert.False(t, IsRouterSupported(ProviderDeepSeek, RouterVercel))
		assert.True(t, IsRouterSupported(ProviderDeepSeek, RouterInBuilt))
	})
	t.Run("Should report no routers for unknown providers", func(t *testing.T) {
		assert.Nil(t, SupportedRouters("azure"))
	})
}

func TestSupportsBaseURL(t *testing.T) {
	t.Run("Should allow custom base URL for ollama", func(t *testing.T) {
		assert.True(t, SupportsBaseURL(ProviderOllama))
	})
	t.Run("Should deny custom base URL for anthropic", func(t *testing.T) {
		assert.False(t, SupportsBaseURL(ProviderAnthropic))
	})
}

func TestProviderFromModel(t *testing.T) {
	t.Run("Should infer provider for an unambiguous model", func(t *testing.T) {
		provider, err := ProviderFromModel("claude-3-opus")
		require.NoError(t, err)
		assert.Equal(t, ProviderAnthropic, provider)
	})
	t.Run("Should fail with a structured error for an unknown model", func(t *testing.T) {
		_, err := ProviderFromModel("no-such-model")
		require.Error(t, err)
		var cerr core.Error
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, core.ErrGeneral, cerr.Code)
		assert.Equal(t, "specify the provider explicitly", cerr.SuggestedAction)
	})
}

func TestDefaultModel(t *testing.T) {
	t.Run("Should return the provider default", func(t *testing.T) {
		model, ok := DefaultModel(ProviderAnthropic)
		require.True(t, ok)
		assert.Equal(t, "claude-3-5-sonnet", model)
	})
	t.Run("Should return false for unknown providers", func(t *testing.T) {
		_, ok := DefaultModel("azure")
		assert.False(t, ok)
	})
}

func TestEffectiveMaxInputTokens(t *testing.T) {
	t.Run("Should subtract the output reservation from the model ceiling", func(t *testing.T) {
		cfg := &Config{
			Provider:        ProviderOpenAI,
			Model:           "gpt-4o",
			MaxOutputTokens: 4096,
			MaxIterations:   DefaultMaxIterations,
		}
		got := EffectiveMaxInputTokens(cfg)
		assert.LessOrEqual(t, got, 128000-4096)
		assert.Positive(t, got)
	})

	t.Run("Should honor a lower explicit override", func(t *testing.T) {
		cfg := &Config{
			Provider:       ProviderOpenAI,
			Model:          "gpt-4o",
			MaxInputTokens: 5000,
		}
		assert.Equal(t, 5000-defaultOutputReservation, EffectiveMaxInputTokens(cfg))
	})

	t.Run("Should never return less than the floor", func(t *testing.T) {
		cfg := &Config{
			Provider:        ProviderOpenAI,
			Model:           "gpt-4o",
			MaxInputTokens:  100,
			MaxOutputTokens: 4096,
		}
		assert.Equal(t, minInputTokens, EffectiveMaxInputTokens(cfg))
	})

	t.Run("Should fall back to a default ceiling for unknown models", func(t *testing.T) {
		cfg := &Config{Provider: ProviderOpenAI, Model: "mystery"}
		assert.Equal(t, 128000-defaultOutputReservation, EffectiveMaxInputTokens(cfg))
	})
}
