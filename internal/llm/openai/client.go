// Package openai implements llm.Backend on the Chat Completions API. The same
// client serves Azure OpenAI deployments.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mtlprog/finagent/internal/llm"
)

const (
	defaultBaseURL         = "https://api.openai.com/v1"
	defaultModelName       = "gpt-4o-mini"
	defaultTimeout         = 120 * time.Second
	defaultAzureAPIVersion = "2024-06-01"
)

// Config describes an OpenAI Chat Completions endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// AzureConfig describes an Azure OpenAI deployment.
type AzureConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	Timeout    time.Duration
}

// Client calls a Chat Completions endpoint over HTTP.
type Client struct {
	name       string
	apiKey     string
	authHeader string
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewClient creates a client for api.openai.com or a compatible server.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModelName
	}

	return &Client{
		name:       "openai",
		apiKey:     "Bearer " + apiKey,
		authHeader: "Authorization",
		endpoint:   baseURL + "/chat/completions",
		model:      model,
		httpClient: &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}, nil
}

// NewAzureClient creates a client for one Azure OpenAI deployment.
func NewAzureClient(cfg AzureConfig) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("azure: API key is required")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("azure: endpoint is required")
	}
	deployment := strings.TrimSpace(cfg.Deployment)
	if deployment == "" {
		return nil, errors.New("azure: deployment is required")
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = defaultAzureAPIVersion
	}

	return &Client{
		name:       "azure",
		apiKey:     apiKey,
		authHeader: "api-key",
		endpoint: endpoint + "/openai/deployments/" + url.PathEscape(deployment) +
			"/chat/completions?api-version=" + url.QueryEscape(version),
		model:      deployment,
		httpClient: &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}, nil
}

// Name returns "openai" or "azure".
func (c *Client) Name() string { return c.name }

// Model returns the model or deployment name.
func (c *Client) Model() string { return c.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Generate requests one completion.
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", c.name, err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("%s response has no choices", c.name)
	}

	out := &llm.Response{
		Content: decoded.Choices[0].Message.Content,
		Model:   c.model,
	}
	if decoded.Model != "" {
		out.Model = decoded.Model
	}
	if decoded.Usage != nil {
		total := decoded.Usage.TotalTokens
		out.TokensUsed = &total
	}
	return out, nil
}

// GenerateStream streams content deltas from an SSE response.
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

			var chunk chatChunk
			if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
				slog.Warn("skipping malformed stream chunk", "backend", c.name, "error", err)
				continue
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
	}
}

func (c *Client) post(ctx context.Context, req llm.Request, stream bool) (*http.Response, error) {
	messages := make([]message, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, message{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", c.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.name, err)
	}
	httpReq.Header.Set(c.authHeader, c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", c.name, err)
	}
	if err := llm.CheckStatus(resp, c.name); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultTimeout
	}
	return timeout
}
