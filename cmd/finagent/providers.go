package main

import (
	"fmt"
	"log/slog"

	"github.com/mtlprog/finagent/internal/config"
	"github.com/mtlprog/finagent/internal/llm"
	"github.com/mtlprog/finagent/internal/llm/anthropic"
	"github.com/mtlprog/finagent/internal/llm/ollama"
	"github.com/mtlprog/finagent/internal/llm/openai"
)

// buildProviders registers every provider whose credentials are present.
// Ollama needs none and is always available.
func buildProviders(cfg config.Config) (*llm.Registry, error) {
	registry := llm.NewRegistry(cfg.DefaultProvider)
	p := cfg.Providers

	if p.OpenAI.APIKey != "" {
		client, err := openai.NewClient(openai.Config{
			APIKey:  p.OpenAI.APIKey,
			BaseURL: p.OpenAI.BaseURL,
			Model:   p.OpenAI.Model,
			Timeout: cfg.ProviderTimeout,
		})
		if err != nil {
			return nil, err
		}
		registry.Register("openai", llm.NewProvider(client))
	}

	if p.Claude.APIKey != "" {
		client, err := anthropic.NewClient(anthropic.Config{
			APIKey:  p.Claude.APIKey,
			Model:   p.Claude.Model,
			Timeout: cfg.ProviderTimeout,
		})
		if err != nil {
			return nil, err
		}
		registry.Register("claude", llm.NewProvider(client))
	}

	if p.Azure.APIKey != "" && p.Azure.Endpoint != "" {
		client, err := openai.NewAzureClient(openai.AzureConfig{
			Endpoint:   p.Azure.Endpoint,
			APIKey:     p.Azure.APIKey,
			Deployment: p.Azure.Deployment,
			APIVersion: p.Azure.APIVersion,
			Timeout:    cfg.ProviderTimeout,
		})
		if err != nil {
			return nil, err
		}
		registry.Register("azure", llm.NewProvider(client))
	}

	registry.Register("ollama", llm.NewProvider(ollama.NewClient(ollama.Config{
		BaseURL: p.Ollama.BaseURL,
		Model:   p.Ollama.Model,
		Timeout: cfg.ProviderTimeout,
	})))

	if _, err := registry.Default(); err != nil {
		return nil, fmt.Errorf("default provider is not configured: %w", err)
	}

	slog.Info("providers ready", "providers", registry.Names(), "default", registry.DefaultName())
	return registry, nil
}
