package agentfile

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/beacon-agent/beacon/engine/core"
	"github.com/beacon-agent/beacon/engine/llm"
	"github.com/beacon-agent/beacon/engine/mcp"
	"github.com/beacon-agent/beacon/engine/webhook"
)

// Definition is the parsed agent file: identity, an optional LLM block, the
// MCP servers the agent may connect to, and webhooks to register at startup.
type Definition struct {
	Name        string                       `yaml:"name"                  json:"name"                  validate:"required"`
	Description string                       `yaml:"description,omitempty" json:"description,omitempty"`
	LLM         *llm.Config                  `yaml:"llm,omitempty"         json:"llm,omitempty"`
	MCPServers  map[string]*mcp.ServerConfig `yaml:"mcps,omitempty"        json:"mcps,omitempty"`
	Webhooks    []webhook.RegisterInput      `yaml:"webhooks,omitempty"    json:"webhooks,omitempty"`
}

// LoadResult carries the outcome of loading one agent file. Definition is
// populated on success with defaults applied and lenient-mode servers that
// failed validation removed.
type LoadResult struct {
	Valid      bool
	Definition *Definition
	Errors     []core.Error
	Warnings   []core.Warning
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads and validates an agent file. The returned error covers I/O and
// YAML parse failures only; semantic problems land in LoadResult.Errors so a
// caller can report all of them at once.
func Load(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent file %q: %w", path, err)
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse agent file %q: %w", path, err)
	}

	result := &LoadResult{}
	if errs := validateStructure(&def); len(errs) > 0 {
		result.Errors = errs
		return result, nil
	}

	if def.LLM != nil {
		def.LLM.SetDefaults()
		result.Errors = append(result.Errors, def.LLM.Validate()...)
	}

	servers, errs, warns := validateServers(def.MCPServers)
	def.MCPServers = servers
	result.Errors = append(result.Errors, errs...)
	result.Warnings = append(result.Warnings, warns...)

	result.Errors = append(result.Errors, validateWebhooks(def.Webhooks)...)

	if len(result.Errors) > 0 {
		return result, nil
	}
	result.Valid = true
	result.Definition = &def
	return result, nil
}

func validateStructure(def *Definition) []core.Error {
	err := structValidator.Struct(def)
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
			Message: fmt.Sprintf("field %s failed %q validation", fieldPath(fe), fe.Tag()),
			Field:   fieldPath(fe),
		})
	}
	return out
}

// validateServers runs the MCP validator over every declared server in name
// order. A strict-mode server that fails validation is a hard error; a
// lenient-mode one is downgraded to a warning and dropped from the
// definition so the remaining servers still load.
func validateServers(servers map[string]*mcp.ServerConfig) (map[string]*mcp.ServerConfig, []core.Error, []core.Warning) {
	if len(servers) == 0 {
		return servers, nil, nil
	}
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []core.Error
	var warns []core.Warning
	accepted := make(map[string]*mcp.ServerConfig, len(servers))
	seen := make([]string, 0, len(servers))
	for _, name := range names {
		cfg := servers[name]
		res := mcp.ValidateServer(name, cfg, seen)
		warns = append(warns, res.Warnings...)
		if res.Valid {
			accepted[name] = res.Config
			seen = append(seen, name)
			continue
		}
		if connectionMode(cfg) == mcp.ConnectionStrict {
			errs = append(errs, res.Errors...)
			continue
		}
		for _, e := range res.Errors {
			warns = append(warns, core.Warning{
				Code:    e.Code,
				Message: fmt.Sprintf("skipping lenient mcp server %q: %s", name, e.Message),
				Field:   e.Field,
			})
		}
	}
	return accepted, errs, warns
}

func connectionMode(cfg *mcp.ServerConfig) mcp.ConnectionMode {
	if cfg == nil || cfg.ConnectionMode == "" {
		return mcp.DefaultConnectionMode
	}
	return cfg.ConnectionMode
}

func validateWebhooks(hooks []webhook.RegisterInput) []core.Error {
	var errs []core.Error
	for i := range hooks {
		if err := hooks[i].Validate(); err != nil {
			errs = append(errs, core.Error{
				Code:    core.ErrInvalidURL,
				Message: err.Error(),
				Field:   fmt.Sprintf("webhooks[%d].url", i),
			})
		}
	}
	return errs
}

func fieldPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
