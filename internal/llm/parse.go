package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoJSON is returned when a completion contains no JSON value of the expected shape.
	ErrNoJSON = errors.New("no JSON value found in completion")
	// ErrMalformedJSON is returned when the JSON found in a completion does not decode.
	ErrMalformedJSON = errors.New("malformed JSON in completion")
)

// StripCodeFence removes a surrounding markdown code fence, with or without a
// language tag. Text outside the first fenced block is dropped.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "```")
	if start < 0 {
		return content
	}

	body := content[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if tag == "" || !strings.ContainsAny(tag, " \t;(") {
			body = body[nl+1:]
		}
	} else {
		// Single-line fence such as ```SELECT 1```.
		body = strings.TrimPrefix(body, "sql")
	}

	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// DecodeArray decodes the outermost JSON array found in content into out.
func DecodeArray(content string, out any) error {
	return decodeBetween(content, '[', ']', out)
}

// DecodeObject decodes the outermost JSON object found in content into out.
func DecodeObject(content string, out any) error {
	return decodeBetween(content, '{', '}', out)
}

func decodeBetween(content string, open, close byte, out any) error {
	content = StripCodeFence(content)
	start := strings.IndexByte(content, open)
	end := strings.LastIndexByte(content, close)
	if start < 0 || end <= start {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return nil
}
