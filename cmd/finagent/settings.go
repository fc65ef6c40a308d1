package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finagent/internal/config"
)

// loadConfig reads the optional config file and applies flags and
// environment variables on top of it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}

	override := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}

	override("log-level", &cfg.LogLevel)
	override("database-url", &cfg.DatabaseURL)
	override("port", &cfg.Port)
	override("api-token", &cfg.APIToken)
	override("llm-provider", &cfg.DefaultProvider)
	override("openai-api-key", &cfg.Providers.OpenAI.APIKey)
	override("openai-base-url", &cfg.Providers.OpenAI.BaseURL)
	override("openai-model", &cfg.Providers.OpenAI.Model)
	override("anthropic-api-key", &cfg.Providers.Claude.APIKey)
	override("anthropic-model", &cfg.Providers.Claude.Model)
	override("azure-endpoint", &cfg.Providers.Azure.Endpoint)
	override("azure-api-key", &cfg.Providers.Azure.APIKey)
	override("azure-deployment", &cfg.Providers.Azure.Deployment)
	override("ollama-base-url", &cfg.Providers.Ollama.BaseURL)
	override("ollama-model", &cfg.Providers.Ollama.Model)
	override("redis-addr", &cfg.Notify.RedisAddr)
	override("rabbitmq-url", &cfg.Notify.RabbitURL)

	return cfg, cfg.Validate()
}
