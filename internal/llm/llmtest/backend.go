// Package llmtest provides a scripted llm.Backend for tests.
package llmtest

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"

	"github.com/mtlprog/finagent/internal/llm"
)

// ErrExhausted is returned when a Backend has no scripted reply left.
var ErrExhausted = errors.New("llmtest: no scripted reply left")

// Reply is one scripted completion. A non-nil Err fails the call.
type Reply struct {
	Content string
	Err     error
}

// Backend replays scripted replies in order and records every request.
// When Handler is set it is used instead of the script.
type Backend struct {
	Handler func(req llm.Request) (string, error)

	mu       sync.Mutex
	replies  []Reply
	requests []llm.Request
}

// New creates a Backend that answers with contents in order.
func New(contents ...string) *Backend {
	b := &Backend{}
	for _, c := range contents {
		b.replies = append(b.replies, Reply{Content: c})
	}
	return b
}

// Provider wraps b in an llm.Provider.
func (b *Backend) Provider() *llm.Provider {
	return llm.NewProvider(b)
}

// Push appends replies to the script.
func (b *Backend) Push(replies ...Reply) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies = append(b.replies, replies...)
	return b
}

// Requests returns a copy of the requests seen so far.
func (b *Backend) Requests() []llm.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]llm.Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Calls returns how many requests were made.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// Name returns "scripted".
func (b *Backend) Name() string { return "scripted" }

// Model returns "scripted-model".
func (b *Backend) Model() string { return "scripted-model" }

// Generate returns the next scripted reply.
func (b *Backend) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	handler := b.Handler
	var next Reply
	if handler == nil {
		if len(b.replies) == 0 {
			b.mu.Unlock()
			return nil, ErrExhausted
		}
		next, b.replies = b.replies[0], b.replies[1:]
	}
	b.mu.Unlock()

	if handler != nil {
		content, err := handler(req)
		if err != nil {
			return nil, err
		}
		return &llm.Response{Content: content, Model: b.Model()}, nil
	}
	if next.Err != nil {
		return nil, next.Err
	}
	return &llm.Response{Content: next.Content, Model: b.Model()}, nil
}

// GenerateStream yields the next scripted reply split after each space.
func (b *Backend) GenerateStream(ctx context.Context, req llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := b.Generate(ctx, req)
		if err != nil {
			yield("", err)
			return
		}
		for _, piece := range strings.SplitAfter(resp.Content, " ") {
			if piece == "" {
				continue
			}
			if !yield(piece, nil) {
				return
			}
		}
	}
}
