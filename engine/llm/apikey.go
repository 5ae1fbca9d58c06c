package llm

import (
	"fmt"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

// KeySource resolves a usable API key for a provider. The reconciler depends
// on this interface so tests can inject a fixed key set.
type KeySource interface {
	APIKey(provider ProviderName) (string, bool)
}

// envKeyAliases lists the environment variables consulted per provider, in
// priority order.
var envKeyAliases = map[ProviderName][]string{
	ProviderOpenAI:    {"OPENAI_API_KEY", "OPENAI_KEY"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
	ProviderGoogle:    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	ProviderDeepSeek:  {"DEEPSEEK_API_KEY"},
	ProviderGroq:      {"GROQ_API_KEY"},
	ProviderXAI:       {"XAI_API_KEY", "GROK_API_KEY"},
	// Ollama is a local runtime; a key is never required so any value works.
	ProviderOllama: {"OLLAMA_API_KEY"},
}

// EnvKeySource resolves API keys from a snapshot of the process environment.
type EnvKeySource struct {
	k *koanf.Koanf
}

// NewEnvKeySource snapshots the current environment. Later env mutations are
// not observed; construct a fresh source to re-read.
func NewEnvKeySource() (*EnvKeySource, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(".", env.Opt{}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	return &EnvKeySource{k: k}, nil
}

// APIKey returns the first non-empty key found in the provider's alias
// chain. Ollama resolves to a placeholder when unset since local runtimes
// do not authenticate.
func (s *EnvKeySource) APIKey(provider ProviderName) (string, bool) {
	for _, name := range envKeyAliases[provider] {
		if v := s.k.String(name); v != "" {
			return v, true
		}
	}
	if provider == ProviderOllama {
		return "ollama", true
	}
	return "", false
}

// StaticKeySource is a fixed provider→key mapping, used in tests and by
// callers that manage secrets themselves.
type StaticKeySource map[ProviderName]string

func (s StaticKeySource) APIKey(provider ProviderName) (string, bool) {
	v, ok := s[provider]
	return v, ok && v != ""
}
