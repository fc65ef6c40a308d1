package llm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response body is kept in errors.
const maxErrorBody = 2048

// SSEEvent is one server-sent event. Event is empty when the stream does not
// name its events.
type SSEEvent struct {
	Event string
	Data  string
}

// ScanSSE yields the data events of a server-sent event stream. It stops at
// the OpenAI-style "[DONE]" sentinel, at end of input, or when ctx ends.
func ScanSSE(ctx context.Context, body io.Reader) iter.Seq2[SSEEvent, error] {
	return func(yield func(SSEEvent, error) bool) {
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		var event string
		for scanner.Scan() {
			if ctx.Err() != nil {
				yield(SSEEvent{}, ctx.Err())
				return
			}

			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				if payload == "[DONE]" {
					return
				}
				if !yield(SSEEvent{Event: event, Data: payload}, nil) {
					return
				}
			case line == "":
				event = ""
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			yield(SSEEvent{}, fmt.Errorf("read event stream: %w", err))
		}
	}
}

// CheckStatus turns a 4xx/5xx response into an error carrying the start of the body.
func CheckStatus(resp *http.Response, backend string) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%s returned status %d: %s", backend, resp.StatusCode, strings.TrimSpace(string(body)))
}
