package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag, environment or file.
	DefaultDatabaseURL = ""

	// DefaultProvider is the provider used when a message names none.
	DefaultProvider = "openai"

	// DefaultOpenAIModel is the chat model used by the openai provider.
	DefaultOpenAIModel = "gpt-4o-mini"

	// DefaultClaudeModel is the model used by the claude provider.
	DefaultClaudeModel = "claude-3-5-sonnet-latest"

	// DefaultOllamaURL is the local Ollama endpoint.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultOllamaModel is the model used by the ollama provider.
	DefaultOllamaModel = "llama3.2"

	// DefaultAzureAPIVersion is the Azure OpenAI REST API version.
	DefaultAzureAPIVersion = "2024-02-15-preview"

	// DefaultProviderTimeout bounds one provider HTTP call.
	DefaultProviderTimeout = 120 * time.Second
)

// ProviderNames lists the provider names understood by the service.
var ProviderNames = []string{"azure", "claude", "ollama", "openai"}

// Config is the service configuration. Zero-valued fields in a file keep
// their defaults.
type Config struct {
	Port            string        `yaml:"port"`
	DatabaseURL     string        `yaml:"database_url"`
	LogLevel        string        `yaml:"log_level"`
	APIToken        string        `yaml:"api_token"`
	DefaultProvider string        `yaml:"default_provider"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	Providers       Providers     `yaml:"providers"`
	Notify          Notify        `yaml:"notify"`
}

// Providers holds per-backend settings.
type Providers struct {
	OpenAI OpenAI `yaml:"openai"`
	Claude Claude `yaml:"claude"`
	Azure  Azure  `yaml:"azure"`
	Ollama Ollama `yaml:"ollama"`
}

type OpenAI struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type Claude struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type Azure struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Deployment string `yaml:"deployment"`
	APIVersion string `yaml:"api_version"`
}

type Ollama struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Notify configures the optional event sinks. Empty addresses disable them.
type Notify struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisChannel  string `yaml:"redis_channel"`
	RabbitURL     string `yaml:"rabbitmq_url"`
	RabbitQueue   string `yaml:"rabbitmq_queue"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:            DefaultPort,
		DatabaseURL:     DefaultDatabaseURL,
		LogLevel:        "info",
		DefaultProvider: DefaultProvider,
		ProviderTimeout: DefaultProviderTimeout,
		Providers: Providers{
			OpenAI: OpenAI{Model: DefaultOpenAIModel},
			Claude: Claude{Model: DefaultClaudeModel},
			Azure:  Azure{APIVersion: DefaultAzureAPIVersion},
			Ollama: Ollama{BaseURL: DefaultOllamaURL, Model: DefaultOllamaModel},
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port is required"))
	}
	name := strings.ToLower(strings.TrimSpace(c.DefaultProvider))
	if !slices.Contains(ProviderNames, name) {
		errs = append(errs, fmt.Errorf("unknown default provider %q (available: %s)",
			c.DefaultProvider, strings.Join(ProviderNames, ", ")))
	}
	if c.ProviderTimeout < 0 {
		errs = append(errs, errors.New("provider timeout must not be negative"))
	}

	return errors.Join(errs...)
}
