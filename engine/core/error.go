package core

import (
	"fmt"
	"strings"
)

// ErrorCode classifies a validation failure so callers can map it to a
// response without string matching.
type ErrorCode string

const (
	ErrInvalidModel             ErrorCode = "invalid_model"
	ErrInvalidProvider          ErrorCode = "invalid_provider"
	ErrIncompatibleModel        ErrorCode = "incompatible_model_provider"
	ErrInvalidRouter            ErrorCode = "invalid_router"
	ErrMissingAPIKey            ErrorCode = "missing_api_key"
	ErrInvalidMaxTokens         ErrorCode = "invalid_max_tokens"
	ErrInvalidBaseURL           ErrorCode = "invalid_base_url"
	ErrSchemaValidation         ErrorCode = "schema_validation"
	ErrGeneral                  ErrorCode = "general"
	ErrMissingRequiredField     ErrorCode = "missing_required_field"
	ErrInvalidURL               ErrorCode = "invalid_url"
	ErrUnsupportedConfiguration ErrorCode = "unsupported_configuration"
)

// Error is a structured validation error. It is returned as data from the
// reconciler and validators, never raised across their boundaries, and
// carries enough context to render directly in an API response or CLI
// message.
type Error struct {
	Code            ErrorCode `json:"code"`
	Message         string    `json:"message"`
	Field           string    `json:"field,omitempty"`
	Provider        string    `json:"provider,omitempty"`
	Model           string    `json:"model,omitempty"`
	Router          string    `json:"router,omitempty"`
	SuggestedAction string    `json:"suggested_action,omitempty"`
}

func (e Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Field != "" {
		fmt.Fprintf(&b, " (field: %s)", e.Field)
	}
	return b.String()
}

// Warning is a non-blocking advisory produced alongside a successful
// validation result.
type Warning struct {
	Code    ErrorCode `json:"code,omitempty"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// Messages flattens a list of errors into their display messages.
func Messages(errs []Error) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Message)
	}
	return out
}
