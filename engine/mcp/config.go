package mcp

import "maps"

// TransportType selects how the agent reaches an MCP (Model Context
// Protocol) tool server.
type TransportType string

const (
	TransportStdio TransportType = "stdio"
	TransportSSE   TransportType = "sse"
	TransportHTTP  TransportType = "http"
)

// ConnectionMode controls whether a connect failure aborts agent startup
// (strict) or is logged and skipped (lenient).
type ConnectionMode string

const (
	ConnectionStrict  ConnectionMode = "strict"
	ConnectionLenient ConnectionMode = "lenient"

	DefaultConnectionMode = ConnectionLenient
)

// ServerConfig describes a single external MCP tool server. stdio servers
// are spawned from Command/Args/Env; sse and http servers are reached at
// URL with optional Headers.
type ServerConfig struct {
	Type           TransportType     `yaml:"type"                      json:"type"                      validate:"required,oneof=stdio sse http"`
	Command        string            `yaml:"command,omitempty"         json:"command,omitempty"`
	Args           []string          `yaml:"args,omitempty"            json:"args,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"             json:"env,omitempty"`
	URL            string            `yaml:"url,omitempty"             json:"url,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"         json:"headers,omitempty"`
	ConnectionMode ConnectionMode    `yaml:"connection_mode,omitempty" json:"connection_mode,omitempty" validate:"omitempty,oneof=strict lenient"`
}

// SetDefaults fills optional fields so a validated config carries its
// applied defaults explicitly.
func (c *ServerConfig) SetDefaults() {
	if c.ConnectionMode == "" {
		c.ConnectionMode = DefaultConnectionMode
	}
}

// Clone creates a deep copy of the server configuration.
func (c *ServerConfig) Clone() *ServerConfig {
	clone := &ServerConfig{
		Type:           c.Type,
		Command:        c.Command,
		URL:            c.URL,
		ConnectionMode: c.ConnectionMode,
	}
	if c.Args != nil {
		clone.Args = make([]string, len(c.Args))
		copy(clone.Args, c.Args)
	}
	if c.Env != nil {
		clone.Env = make(map[string]string, len(c.Env))
		maps.Copy(clone.Env, c.Env)
	}
	if c.Headers != nil {
		clone.Headers = make(map[string]string, len(c.Headers))
		maps.Copy(clone.Headers, c.Headers)
	}
	return clone
}
