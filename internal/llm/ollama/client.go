// Package ollama implements llm.Backend on a local Ollama server.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/finagent/internal/llm"
)

const (
	defaultBaseURL   = "http://localhost:11434"
	defaultModelName = "llama3.2"
	defaultTimeout   = 120 * time.Second
)

// Config describes an Ollama server.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls the Ollama generate endpoint.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates an Ollama client. Every field is optional.
func NewClient(cfg Config) *Client {
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
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns "ollama".
func (c *Client) Name() string { return "ollama" }

// Model returns the configured model.
func (c *Client) Model() string { return c.model }

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

type options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount *int   `json:"eval_count"`
	Error     string `json:"error"`
}

// Generate requests one completion.
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if decoded.Error != "" {
		return nil, errors.New("ollama: " + decoded.Error)
	}

	out := &llm.Response{Content: decoded.Response, Model: c.model, TokensUsed: decoded.EvalCount}
	if decoded.Model != "" {
		out.Model = decoded.Model
	}
	return out, nil
}

// GenerateStream yields the response field of each NDJSON line until done.
func (c *Client) GenerateStream(ctx context.Context, req llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.post(ctx, req, true)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var chunk generateResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				yield("", fmt.Errorf("decode ollama stream line: %w", err))
				return
			}
			if chunk.Error != "" {
				yield("", errors.New("ollama: "+chunk.Error))
				return
			}
			if chunk.Response != "" && !yield(chunk.Response, nil) {
				return
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			yield("", fmt.Errorf("read ollama stream: %w", err))
		}
	}
}

func (c *Client) post(ctx context.Context, req llm.Request, stream bool) (*http.Response, error) {
	prompt := req.Prompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\nUser: " + req.Prompt
	}

	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: stream,
		Options: options{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call ollama: %w", err)
	}
	if err := llm.CheckStatus(resp, "ollama"); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}
