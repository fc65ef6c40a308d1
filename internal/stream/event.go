package stream

import "github.com/mtlprog/finagent/internal/orchestrator"

// Inbound message types.
const (
	TypeMessage = "message"
	TypePing    = "ping"
)

// Outbound event types.
const (
	TypeStatus   = "status"
	TypeAgent    = "agent"
	TypeResponse = "response"
	TypeError    = "error"
	TypePong     = "pong"
)

// Agent event states.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Inbound is a client message.
type Inbound struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Provider string `json:"provider,omitempty"`
}

// Event is a server message.
type Event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Agent   string `json:"agent,omitempty"`
	Status  string `json:"status,omitempty"`
}

// EventFromLine translates one orchestrator line. ok is false for untagged lines.
func EventFromLine(raw string) (Event, bool) {
	line, ok := orchestrator.ParseLine(raw)
	if !ok {
		return Event{}, false
	}

	switch line.Kind {
	case orchestrator.KindStatus:
		return Event{Type: TypeStatus, Content: line.Text}, true
	case orchestrator.KindAgentStart:
		return Event{Type: TypeAgent, Agent: line.Agent, Status: StatusRunning, Content: line.Text}, true
	case orchestrator.KindAgentDone:
		return Event{Type: TypeAgent, Agent: line.Agent, Status: StatusDone, Content: line.Text}, true
	case orchestrator.KindAgentError:
		return Event{Type: TypeAgent, Agent: line.Agent, Status: StatusError, Content: line.Text}, true
	default:
		return Event{Type: TypeResponse, Content: line.Text}, true
	}
}
