package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finagent/internal/config"
	"github.com/mtlprog/finagent/internal/logger"
)

func main() {
	app := &cli.App{
		Name:  "finagent",
		Usage: "Multi-agent banking assistant",
		Flags: globalFlags(),
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
					&cli.StringFlag{
						Name:    "api-token",
						Usage:   "Bearer token required on chat routes (empty disables auth)",
						EnvVars: []string{"FINAGENT_API_TOKEN"},
					},
				},
				Action: runServe,
			},
			{
				Name:      "ask",
				Usage:     "Answer one message and print the progress lines",
				ArgsUsage: "<message>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Provider to use (defaults to the configured default)",
					},
				},
				Action: runAsk,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the agents as MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:  "migrate",
				Usage: "Apply database migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "status",
						Usage: "Only print migration status",
					},
				},
				Action: runMigrate,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"FINAGENT_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Aliases: []string{"d"},
			Value:   config.DefaultDatabaseURL,
			Usage:   "PostgreSQL database URL",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{Name: "llm-provider", Usage: "Default provider (openai, claude, azure, ollama)", EnvVars: []string{"LLM_PROVIDER"}},
		&cli.StringFlag{Name: "openai-api-key", EnvVars: []string{"OPENAI_API_KEY"}},
		&cli.StringFlag{Name: "openai-base-url", EnvVars: []string{"OPENAI_BASE_URL"}},
		&cli.StringFlag{Name: "openai-model", EnvVars: []string{"OPENAI_MODEL"}},
		&cli.StringFlag{Name: "anthropic-api-key", EnvVars: []string{"ANTHROPIC_API_KEY"}},
		&cli.StringFlag{Name: "anthropic-model", EnvVars: []string{"ANTHROPIC_MODEL"}},
		&cli.StringFlag{Name: "azure-endpoint", EnvVars: []string{"AZURE_OPENAI_ENDPOINT"}},
		&cli.StringFlag{Name: "azure-api-key", EnvVars: []string{"AZURE_OPENAI_KEY"}},
		&cli.StringFlag{Name: "azure-deployment", EnvVars: []string{"AZURE_OPENAI_DEPLOYMENT"}},
		&cli.StringFlag{Name: "ollama-base-url", EnvVars: []string{"OLLAMA_BASE_URL"}},
		&cli.StringFlag{Name: "ollama-model", EnvVars: []string{"OLLAMA_MODEL"}},
		&cli.StringFlag{Name: "redis-addr", Usage: "Redis address for the activity feed", EnvVars: []string{"REDIS_ADDR"}},
		&cli.StringFlag{Name: "rabbitmq-url", Usage: "RabbitMQ URL for ledger events", EnvVars: []string{"RABBITMQ_URL"}},
	}
}
