// Package llm is the text-generation capability used for planning, statement
// generation, structured extraction and response synthesis. Concrete HTTP
// backends live in subpackages; Provider adds the higher-level operations on
// top of any Backend.
package llm

import (
	"context"
	"iter"
)

const (
	// DefaultTemperature is used for free-form answers.
	DefaultTemperature = 0.7

	// DefaultMaxTokens caps a completion when the request leaves it unset.
	DefaultMaxTokens = 2000
)

// Request is a single prompt sent to a backend.
type Request struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Response is a completed generation.
type Response struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	TokensUsed *int   `json:"tokens_used,omitempty"`
}

// Backend is a text-generation service.
//
// GenerateStream returns a lazy sequence of text fragments. The request is
// sent when iteration starts and the sequence cannot be restarted; a non-nil
// error is always the last element yielded.
type Backend interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (*Response, error)
	GenerateStream(ctx context.Context, req Request) iter.Seq2[string, error]
}

func (r Request) withDefaults() Request {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	return r
}
