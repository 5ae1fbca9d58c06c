package llm

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/beacon-agent/beacon/engine/core"
)

// DefaultMaxIterations bounds the agent loop when the config does not set one.
const DefaultMaxIterations = 50

// Config is a fully reconciled, validated LLM configuration. Instances are
// only produced by schema loading or the Reconciler; fields are never written
// directly once a config is live.
type Config struct {
	Provider        ProviderName `json:"provider"          yaml:"provider"          validate:"required"`
	Model           string       `json:"model"             yaml:"model"             validate:"required"`
	Router          RouterName   `json:"router"            yaml:"router"            validate:"required,oneof=vercel in-built"`
	APIKey          string       `json:"api_key"           yaml:"api_key"`
	BaseURL         string       `json:"base_url,omitempty"          yaml:"base_url,omitempty"`
	MaxIterations   int          `json:"max_iterations"    yaml:"max_iterations"    validate:"gt=0"`
	Temperature     *float64     `json:"temperature,omitempty"       yaml:"temperature,omitempty"`
	MaxOutputTokens int          `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty" validate:"gte=0"`
	MaxInputTokens  int          `json:"max_input_tokens,omitempty"  yaml:"max_input_tokens,omitempty"  validate:"gte=0"`
}

// Update is a partial config change. Nil fields mean "keep current"; the
// distinction between unset and zero matters to the reconciler, hence
// pointers throughout.
type Update struct {
	Provider        *ProviderName `json:"provider,omitempty"`
	Model           *string       `json:"model,omitempty"`
	Router          *RouterName   `json:"router,omitempty"`
	APIKey          *string       `json:"api_key,omitempty"`
	BaseURL         *string       `json:"base_url,omitempty"`
	MaxIterations   *int          `json:"max_iterations,omitempty"`
	Temperature     *float64      `json:"temperature,omitempty"`
	MaxOutputTokens *int          `json:"max_output_tokens,omitempty"`
	MaxInputTokens  *int          `json:"max_input_tokens,omitempty"`
}

// SetDefaults fills optional fields that have sensible defaults.
func (c *Config) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.MaxInputTokens == 0 && c.Provider != "" && c.Model != "" {
		c.MaxInputTokens = EffectiveMaxInputTokens(c)
	}
}

// Clone returns an independent copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Temperature != nil {
		v := *c.Temperature
		clone.Temperature = &v
	}
	return &clone
}

var structValidate = newStructValidator()

// newStructValidator reports field paths using json tag names so error
// output matches the wire format.
func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate runs the full schema check: structural rules first, then the
// registry invariants that struct tags cannot express. All violations are
// returned as structured errors; a non-empty result from an assembled config
// indicates a construction bug upstream.
func (c *Config) Validate() []core.Error {
	var errs []core.Error
	if err := structValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, core.Error{
					Code:    core.ErrSchemaValidation,
					Message: fmt.Sprintf("field %s failed %q validation", fieldPath(fe), fe.Tag()),
					Field:   fieldPath(fe),
				})
			}
		} else {
			errs = append(errs, core.Error{Code: core.ErrSchemaValidation, Message: err.Error()})
		}
		return errs
	}
	if !IsValidProvider(c.Provider) {
		errs = append(errs, core.Error{
			Code:     core.ErrSchemaValidation,
			Message:  fmt.Sprintf("unknown provider %q", c.Provider),
			Field:    "provider",
			Provider: string(c.Provider),
		})
		return errs
	}
	if !IsValidProviderModel(c.Provider, c.Model) {
		errs = append(errs, core.Error{
			Code:     core.ErrSchemaValidation,
			Message:  fmt.Sprintf("model %q is not offered by provider %q", c.Model, c.Provider),
			Field:    "model",
			Provider: string(c.Provider),
			Model:    c.Model,
		})
	}
	if !IsRouterSupported(c.Provider, c.Router) {
		errs = append(errs, core.Error{
			Code:     core.ErrSchemaValidation,
			Message:  fmt.Sprintf("router %q is not supported by provider %q", c.Router, c.Provider),
			Field:    "router",
			Provider: string(c.Provider),
			Router:   string(c.Router),
		})
	}
	if c.BaseURL != "" && !SupportsBaseURL(c.Provider) {
		errs = append(errs, core.Error{
			Code:     core.ErrSchemaValidation,
			Message:  fmt.Sprintf("provider %q does not support a custom base URL", c.Provider),
			Field:    "base_url",
			Provider: string(c.Provider),
		})
	}
	return errs
}

// fieldPath strips the root struct name from a validator namespace, leaving
// the wire-level field path ("max_iterations", "env.KEY").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
