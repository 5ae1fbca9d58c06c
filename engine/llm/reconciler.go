package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beacon-agent/beacon/engine/core"
	"github.com/beacon-agent/beacon/pkg/logger"
)

// Outcome is the result of a reconciliation. When Valid is false, Config is
// the caller's current config unchanged; a failed reconciliation never
// leaks a partially updated config.
type Outcome struct {
	Config   *Config        `json:"config"`
	Valid    bool           `json:"is_valid"`
	Errors   []core.Error   `json:"errors"`
	Warnings []core.Warning `json:"warnings"`
}

// Reconciler merges a partial update into a known-valid config, producing a
// new valid config or a structured error set. It holds no mutable state and
// is safe for concurrent use across sessions as long as each session owns
// its current config.
type Reconciler struct {
	keys KeySource
}

func NewReconciler(keys KeySource) *Reconciler {
	return &Reconciler{keys: keys}
}

// reconciliation carries the working state through the step pipeline.
type reconciliation struct {
	updates  *Update
	current  *Config
	next     *Config
	warnings []core.Warning
}

func (s *reconciliation) warnf(code core.ErrorCode, field, format string, args ...any) {
	s.warnings = append(s.warnings, core.Warning{
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (s *reconciliation) modelExplicit() bool    { return s.updates.Model != nil }
func (s *reconciliation) providerExplicit() bool { return s.updates.Provider != nil }
func (s *reconciliation) modelChanged() bool     { return s.next.Model != s.current.Model }
func (s *reconciliation) providerChanged() bool  { return s.next.Provider != s.current.Provider }

// Reconcile runs the seven-step pipeline. Each step either advances the
// working config or yields errors; the first failing step short-circuits
// the rest and the caller's config is returned untouched.
func (r *Reconciler) Reconcile(ctx context.Context, updates *Update, current *Config) *Outcome {
	if updates == nil {
		updates = &Update{}
	}
	st := &reconciliation{updates: updates, current: current, next: current.Clone()}
	steps := []func(context.Context, *reconciliation) []core.Error{
		r.resolveModel,
		r.resolveProvider,
		r.resolveCompatibility,
		r.resolveRouter,
		r.resolveAPIKey,
		r.resolveRemaining,
		r.finalValidate,
	}
	for _, step := range steps {
		if errs := step(ctx, st); len(errs) > 0 {
			return &Outcome{Config: current, Valid: false, Errors: errs, Warnings: st.warnings}
		}
	}
	return &Outcome{Config: st.next, Valid: true, Warnings: st.warnings}
}

// Step 1: an explicit model must be a non-empty string.
func (r *Reconciler) resolveModel(_ context.Context, st *reconciliation) []core.Error {
	if st.updates.Model == nil {
		return nil
	}
	model := strings.TrimSpace(*st.updates.Model)
	if model == "" {
		return []core.Error{{
			Code:    core.ErrInvalidModel,
			Message: "model must be a non-empty string",
			Field:   "model",
		}}
	}
	st.next.Model = model
	return nil
}

// Step 2: an explicit provider must be registered; otherwise a changed model
// infers its provider, and inference never guesses on ambiguity.
func (r *Reconciler) resolveProvider(ctx context.Context, st *reconciliation) []core.Error {
	if st.updates.Provider != nil {
		provider := *st.updates.Provider
		if !IsValidProvider(provider) {
			return []core.Error{{
				Code:            core.ErrInvalidProvider,
				Message:         fmt.Sprintf("unknown provider %q", provider),
				Field:           "provider",
				Provider:        string(provider),
				SuggestedAction: "use one of the registered providers",
			}}
		}
		st.next.Provider = provider
		return nil
	}
	if !st.modelChanged() {
		return nil
	}
	inferred, err := ProviderFromModel(st.next.Model)
	if err != nil {
		var cerr core.Error
		if errors.As(err, &cerr) {
			return []core.Error{cerr}
		}
		return []core.Error{{Code: core.ErrGeneral, Message: err.Error(), Model: st.next.Model}}
	}
	if inferred != st.current.Provider {
		logger.FromContext(ctx).Info("provider inferred from model",
			"model", st.next.Model, "provider", inferred)
	}
	st.next.Provider = inferred
	return nil
}

// Step 3: the (model, provider) pair must be valid. The only auto-repair is
// substituting the provider's default model when the provider was changed
// explicitly and the model was not.
func (r *Reconciler) resolveCompatibility(_ context.Context, st *reconciliation) []core.Error {
	if IsValidProviderModel(st.next.Provider, st.next.Model) {
		return nil
	}
	if st.providerExplicit() && !st.modelExplicit() {
		if def, ok := DefaultModel(st.next.Provider); ok {
			st.warnf(core.ErrIncompatibleModel, "model",
				"model %q is not available on provider %q; switched to default model %q",
				st.next.Model, st.next.Provider, def)
			st.next.Model = def
			return nil
		}
	}
	return []core.Error{{
		Code:            core.ErrIncompatibleModel,
		Message:         fmt.Sprintf("model %q is not offered by provider %q", st.next.Model, st.next.Provider),
		Field:           "model",
		Provider:        string(st.next.Provider),
		Model:           st.next.Model,
		SuggestedAction: fmt.Sprintf("choose one of: %s", strings.Join(SupportedModels(st.next.Provider), ", ")),
	}}
}

// Step 4: an explicit router must be supported by the resolved provider;
// otherwise keep the current router if still supported, else auto-switch
// preferring vercel.
func (r *Reconciler) resolveRouter(_ context.Context, st *reconciliation) []core.Error {
	if st.updates.Router != nil {
		router := *st.updates.Router
		if router != RouterVercel && router != RouterInBuilt {
			return []core.Error{{
				Code:    core.ErrInvalidRouter,
				Message: fmt.Sprintf("unknown router %q", router),
				Field:   "router",
				Router:  string(router),
			}}
		}
		if !IsRouterSupported(st.next.Provider, router) {
			return []core.Error{{
				Code:            core.ErrInvalidRouter,
				Message:         fmt.Sprintf("router %q is not supported by provider %q", router, st.next.Provider),
				Field:           "router",
				Provider:        string(st.next.Provider),
				Router:          string(router),
				SuggestedAction: fmt.Sprintf("use one of: %s", joinRouters(SupportedRouters(st.next.Provider))),
			}}
		}
		st.next.Router = router
		return nil
	}
	if IsRouterSupported(st.next.Provider, st.next.Router) {
		return nil
	}
	supported := SupportedRouters(st.next.Provider)
	if len(supported) == 0 {
		return []core.Error{{
			Code:     core.ErrInvalidRouter,
			Message:  fmt.Sprintf("provider %q has no supported routers", st.next.Provider),
			Provider: string(st.next.Provider),
		}}
	}
	chosen := supported[0]
	for _, rt := range supported {
		if rt == RouterVercel {
			chosen = RouterVercel
			break
		}
	}
	st.warnf(core.ErrInvalidRouter, "router",
		"router %q is not supported by provider %q; switched to %q",
		st.next.Router, st.next.Provider, chosen)
	st.next.Router = chosen
	return nil
}

// Step 5: an explicit key always wins (short keys warn, never block); a
// provider change re-resolves the key so a stale key from the previous
// provider is never carried over.
func (r *Reconciler) resolveAPIKey(_ context.Context, st *reconciliation) []core.Error {
	if st.updates.APIKey != nil {
		key := *st.updates.APIKey
		if key != "" && len(key) < 10 {
			st.warnf(core.ErrMissingAPIKey, "api_key",
				"api key is unusually short (%d chars); double-check it was pasted completely", len(key))
		}
		st.next.APIKey = key
		return nil
	}
	if !st.providerChanged() {
		return nil
	}
	key, ok := r.keys.APIKey(st.next.Provider)
	if !ok {
		suggestion := "set the provider's API key in the environment"
		if aliases := envKeyAliases[st.next.Provider]; len(aliases) > 0 {
			suggestion = fmt.Sprintf("set %s in the environment", aliases[0])
		}
		return []core.Error{{
			Code:            core.ErrMissingAPIKey,
			Message:         fmt.Sprintf("no API key available for provider %q", st.next.Provider),
			Field:           "api_key",
			Provider:        string(st.next.Provider),
			SuggestedAction: suggestion,
		}}
	}
	st.next.APIKey = key
	return nil
}

// Step 6: remaining fields. A non-nil update field always lands, zero value
// included; the pointer itself carries the set-versus-keep distinction.
// Scalars go first since the output-token reservation feeds the input
// ceiling; then base URL and the input-token budget.
func (r *Reconciler) resolveRemaining(_ context.Context, st *reconciliation) []core.Error {
	if st.updates.MaxIterations != nil {
		st.next.MaxIterations = *st.updates.MaxIterations
	}
	if st.updates.Temperature != nil {
		st.next.Temperature = st.updates.Temperature
	}
	if st.updates.MaxOutputTokens != nil {
		st.next.MaxOutputTokens = *st.updates.MaxOutputTokens
	}
	if errs := r.resolveBaseURL(st); len(errs) > 0 {
		return errs
	}
	return r.resolveMaxInputTokens(st)
}

func (r *Reconciler) resolveBaseURL(st *reconciliation) []core.Error {
	if st.updates.BaseURL != nil {
		baseURL := strings.TrimSpace(*st.updates.BaseURL)
		if baseURL == "" {
			st.next.BaseURL = ""
			return nil
		}
		if !SupportsBaseURL(st.next.Provider) {
			return []core.Error{{
				Code:     core.ErrInvalidBaseURL,
				Message:  fmt.Sprintf("provider %q does not support a custom base URL", st.next.Provider),
				Field:    "base_url",
				Provider: string(st.next.Provider),
			}}
		}
		st.next.BaseURL = baseURL
		return nil
	}
	if st.next.BaseURL != "" && !SupportsBaseURL(st.next.Provider) {
		st.warnf(core.ErrInvalidBaseURL, "base_url",
			"dropped base URL %q: provider %q does not support custom base URLs",
			st.next.BaseURL, st.next.Provider)
		st.next.BaseURL = ""
	}
	return nil
}

func (r *Reconciler) resolveMaxInputTokens(st *reconciliation) []core.Error {
	if st.updates.MaxInputTokens != nil {
		if *st.updates.MaxInputTokens <= 0 {
			return []core.Error{{
				Code:    core.ErrInvalidMaxTokens,
				Message: fmt.Sprintf("max_input_tokens must be positive, got %d", *st.updates.MaxInputTokens),
				Field:   "max_input_tokens",
			}}
		}
		st.next.MaxInputTokens = *st.updates.MaxInputTokens
		return nil
	}
	if st.modelChanged() || st.next.MaxInputTokens == 0 {
		prev := st.next.MaxInputTokens
		st.next.MaxInputTokens = 0
		recomputed := EffectiveMaxInputTokens(st.next)
		st.next.MaxInputTokens = recomputed
		if st.modelChanged() && prev != 0 && prev != recomputed {
			st.warnf(core.ErrInvalidMaxTokens, "max_input_tokens",
				"max_input_tokens recomputed from %d to %d for model %q",
				prev, recomputed, st.next.Model)
		}
	}
	return nil
}

// Step 7: re-run the full schema check on the assembled config. Anything
// caught here slipped past the earlier steps and indicates a construction
// bug, but it is still reported as data rather than thrown.
func (r *Reconciler) finalValidate(_ context.Context, st *reconciliation) []core.Error {
	return st.next.Validate()
}

func joinRouters(routers []RouterName) string {
	parts := make([]string, len(routers))
	for i, rt := range routers {
		parts[i] = string(rt)
	}
	return strings.Join(parts, ", ")
}
