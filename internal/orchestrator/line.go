package orchestrator

import "strings"

// Kind is the protocol tag of one emitted line.
type Kind int

const (
	KindStatus Kind = iota
	KindAgentStart
	KindAgentDone
	KindAgentError
	KindResponse
)

const (
	statusTag   = "[STATUS]"
	responseTag = "[RESPONSE]"
	agentTag    = "[AGENT:"
	doneSuffix  = ":DONE"
	errorSuffix = ":ERROR"
)

// Line is one tagged progress line.
type Line struct {
	Kind  Kind
	Agent string
	Text  string
}

// Status returns a status line.
func Status(text string) Line { return Line{Kind: KindStatus, Text: text} }

// Response returns the final response line.
func Response(text string) Line { return Line{Kind: KindResponse, Text: text} }

// String renders the line in wire form. The response text follows its tag
// without a separating space.
func (l Line) String() string {
	switch l.Kind {
	case KindStatus:
		return statusTag + " " + l.Text
	case KindAgentStart:
		return agentTag + l.Agent + "] " + l.Text
	case KindAgentDone:
		return agentTag + l.Agent + doneSuffix + "] " + l.Text
	case KindAgentError:
		return agentTag + l.Agent + errorSuffix + "] " + l.Text
	default:
		return responseTag + l.Text
	}
}

// ParseLine reads a wire line back. ok is false for untagged input.
func ParseLine(raw string) (line Line, ok bool) {
	switch {
	case strings.HasPrefix(raw, statusTag):
		return Line{Kind: KindStatus, Text: strings.TrimSpace(raw[len(statusTag):])}, true
	case strings.HasPrefix(raw, responseTag):
		return Line{Kind: KindResponse, Text: raw[len(responseTag):]}, true
	case strings.HasPrefix(raw, agentTag):
		end := strings.IndexByte(raw, ']')
		if end < 0 {
			return Line{}, false
		}
		info := raw[len(agentTag):end]
		text := strings.TrimSpace(raw[end+1:])
		switch {
		case strings.HasSuffix(info, doneSuffix):
			return Line{Kind: KindAgentDone, Agent: strings.TrimSuffix(info, doneSuffix), Text: text}, true
		case strings.HasSuffix(info, errorSuffix):
			return Line{Kind: KindAgentError, Agent: strings.TrimSuffix(info, errorSuffix), Text: text}, true
		default:
			return Line{Kind: KindAgentStart, Agent: info, Text: text}, true
		}
	default:
		return Line{}, false
	}
}
