package events

import "time"

// Name identifies an agent lifecycle event.
type Name string

const (
	LLMThinking           Name = "llm:thinking"
	LLMResponse           Name = "llm:response"
	LLMToolCall           Name = "llm:tool-call"
	MCPServerConnected    Name = "mcp:server-connected"
	MCPServerDisconnected Name = "mcp:server-disconnected"
	AgentStarted          Name = "agent:started"
	AgentCompleted        Name = "agent:completed"
	AgentError            Name = "agent:error"
)

// All returns every event name, in a stable order. Subscribers that want the
// full stream (e.g. webhook fan-out) iterate this instead of hardcoding.
func All() []Name {
	return []Name{
		LLMThinking,
		LLMResponse,
		LLMToolCall,
		MCPServerConnected,
		MCPServerDisconnected,
		AgentStarted,
		AgentCompleted,
		AgentError,
	}
}

// Event is a published lifecycle event. Payload is event-specific and must be
// JSON-serializable because downstream consumers put it on the wire.
type Event struct {
	Name    Name      `json:"name"`
	Payload any       `json:"payload"`
	Time    time.Time `json:"time"`
}
