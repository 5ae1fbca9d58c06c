package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-agent/beacon/engine/core"
)

func TestConfig_SetDefaults(t *testing.T) {
	t.Run("Should default max iterations", func(t *testing.T) {
		cfg := &Config{Provider: ProviderOpenAI, Model: "gpt-4o"}
		cfg.SetDefaults()
		assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	})

	t.Run("Should compute max input tokens when absent", func(t *testing.T) {
		cfg := &Config{Provider: ProviderOpenAI, Model: "gpt-4o"}
		cfg.SetDefaults()
		assert.Equal(t, 128000-defaultOutputReservation, cfg.MaxInputTokens)
	})

	t.Run("Should not override existing values", func(t *testing.T) {
		cfg := &Config{Provider: ProviderOpenAI, Model: "gpt-4o", MaxIterations: 5, MaxInputTokens: 1000}
		cfg.SetDefaults()
		assert.Equal(t, 5, cfg.MaxIterations)
		assert.Equal(t, 1000, cfg.MaxInputTokens)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Should pass for a well-formed config", func(t *testing.T) {
		cfg := validConfig()
		assert.Empty(t, cfg.Validate())
	})

	t.Run("Should flag missing required fields with field paths", func(t *testing.T) {
		cfg := &Config{MaxIterations: 10}
		errs := cfg.Validate()
		require.NotEmpty(t, errs)
		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			assert.Equal(t, core.ErrSchemaValidation, e.Code)
			fields = append(fields, e.Field)
		}
		assert.Contains(t, fields, "provider")
		assert.Contains(t, fields, "model")
		assert.Contains(t, fields, "router")
	})

	t.Run("Should flag a router the provider does not support", func(t *testing.T) {
		cfg := validConfig()
		cfg.Provider = ProviderDeepSeek
		cfg.Model = "deepseek-chat"
		cfg.Router = RouterVercel
		errs := cfg.Validate()
		require.Len(t, errs, 1)
		assert.Equal(t, "router", errs[0].Field)
	})

	t.Run("Should flag a base URL on an unsupported provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.Provider = ProviderAnthropic
		cfg.Model = "claude-3-opus"
		cfg.BaseURL = "https://proxy.internal"
		errs := cfg.Validate()
		require.Len(t, errs, 1)
		assert.Equal(t, "base_url", errs[0].Field)
	})
}

func TestConfig_Clone(t *testing.T) {
	t.Run("Should deep-copy the temperature pointer", func(t *testing.T) {
		temp := 0.7
		cfg := validConfig()
		cfg.Temperature = &temp
		clone := cfg.Clone()
		require.NotNil(t, clone.Temperature)
		*clone.Temperature = 0.1
		assert.InDelta(t, 0.7, *cfg.Temperature, 0.0001)
	})
}
