package mcp

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/beacon-agent/beacon/engine/core"
)

// Result is the outcome of validating one server descriptor. Config is the
// normalized copy with defaults applied, present only when Valid.
type Result struct {
	Valid    bool           `json:"is_valid"`
	Errors   []core.Error   `json:"errors"`
	Warnings []core.Warning `json:"warnings"`
	Config   *ServerConfig  `json:"config,omitempty"`
}

var structValidate = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateServer validates a single MCP server descriptor in two phases:
// structural rules first (one error per issue, field path preserved), then
// business rules the schema cannot express. Business rules only run once the
// structure is sound, so their errors always refer to a well-formed config.
func ValidateServer(name string, cfg *ServerConfig, existingNames []string) *Result {
	res := &Result{}
	if strings.TrimSpace(name) == "" {
		res.Errors = append(res.Errors, core.Error{
			Code:    core.ErrMissingRequiredField,
			Message: "server name is required",
			Field:   "name",
		})
		return res
	}
	if cfg == nil {
		res.Errors = append(res.Errors, core.Error{
			Code:    core.ErrMissingRequiredField,
			Message: "server config is required",
		})
		return res
	}
	if errs := validateStructure(cfg); len(errs) > 0 {
		res.Errors = errs
		return res
	}
	validateRules(name, cfg, existingNames, res)
	if len(res.Errors) > 0 {
		return res
	}
	normalized := cfg.Clone()
	normalized.SetDefaults()
	res.Valid = true
	res.Config = normalized
	return res
}

func validateStructure(cfg *ServerConfig) []core.Error {
	err := structValidate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []core.Error{{Code: core.ErrSchemaValidation, Message: err.Error()}}
	}
	out := make([]core.Error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, core.Error{
			Code:    core.ErrSchemaValidation,
			Message: fmt.Sprintf("field %s failed %q validation", fe.Field(), fe.Tag()),
			Field:   fe.Field(),
		})
	}
	return out
}

func validateRules(name string, cfg *ServerConfig, existingNames []string, res *Result) {
	for _, existing := range existingNames {
		if strings.EqualFold(existing, name) {
			res.Warnings = append(res.Warnings, core.Warning{
				Field:   "name",
				Message: fmt.Sprintf("server name %q collides with existing server %q (names are case-insensitive)", name, existing),
			})
			break
		}
	}
	switch cfg.Type {
	case TransportStdio:
		if strings.TrimSpace(cfg.Command) == "" {
			res.Errors = append(res.Errors, core.Error{
				Code:            core.ErrMissingRequiredField,
				Message:         "stdio servers require a non-empty command",
				Field:           "command",
				SuggestedAction: "set command to the executable that serves MCP over stdio",
			})
		}
	case TransportSSE, TransportHTTP:
		if err := validateServerURL(cfg.URL); err != nil {
			res.Errors = append(res.Errors, core.Error{
				Code:            core.ErrInvalidURL,
				Message:         err.Error(),
				Field:           "url",
				SuggestedAction: "provide an absolute http(s) URL for the server",
			})
		}
	}
}

func validateServerURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("server url is required for sse and http transports")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server url must use http or https scheme, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("server url must include a host")
	}
	return nil
}
