// Package anthropic implements llm.Backend on the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/finagent/internal/llm"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModelName = "claude-3-5-sonnet-latest"
	defaultTimeout   = 120 * time.Second
	apiVersion       = "2023-06-01"
)

// Config describes a Messages API endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls the Messages API over HTTP.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a Messages API client.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModelName
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns "claude".
func (c *Client) Name() string { return "claude" }

// Model returns the configured model.
func (c *Client) Model() string { return c.model }

type messageParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	System      string         `json:"system,omitempty"`
	Messages    []messageParam `json:"messages"`
	Temperature float64        `json:"temperature"`
	Stream      bool           `json:"stream,omitempty"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate requests one message.
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode claude response: %w", err)
	}

	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errors.New("claude response has no text content")
	}

	tokens := decoded.Usage.InputTokens + decoded.Usage.OutputTokens
	out := &llm.Response{Content: text.String(), Model: c.model, TokensUsed: &tokens}
	if decoded.Model != "" {
		out.Model = decoded.Model
	}
	return out, nil
}

// GenerateStream yields text deltas from content_block_delta events.
func (c *Client) GenerateStream(ctx context.Context, req llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.post(ctx, req, true)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		for event, err := range llm.ScanSSE(ctx, resp.Body) {
			if err != nil {
				yield("", err)
				return
			}

			var decoded streamEvent
			if err := json.Unmarshal([]byte(event.Data), &decoded); err != nil {
				slog.Warn("skipping malformed stream event", "backend", "claude", "error", err)
				continue
			}

			switch decoded.Type {
			case "content_block_delta":
				if decoded.Delta.Type != "text_delta" || decoded.Delta.Text == "" {
					continue
				}
				if !yield(decoded.Delta.Text, nil) {
					return
				}
			case "error":
				yield("", fmt.Errorf("claude stream error: %s", decoded.Error.Message))
				return
			case "message_stop":
				return
			}
		}
	}
}

func (c *Client) post(ctx context.Context, req llm.Request, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(messagesRequest{
		Model:       c.model,
		MaxTokens:   req.MaxTokens,
		System:      req.SystemPrompt,
		Messages:    []messageParam{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("encode claude request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build claude request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call claude: %w", err)
	}
	if err := llm.CheckStatus(resp, "claude"); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}
