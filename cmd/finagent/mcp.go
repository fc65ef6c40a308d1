package main

import (
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finagent/internal/logger"
	"github.com/mtlprog/finagent/internal/mcpserver"
)

func runMCP(c *cli.Context) error {
	// stdout carries the protocol
	logger.SetupWriter(os.Stderr, logger.ParseLevel(c.String("log-level")))

	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rt, err := newRuntime(c.Context, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	provider, err := rt.providers.Default()
	if err != nil {
		return err
	}

	server := mcpserver.New(provider, rt.agents, rt.ledger)
	if err := server.Run(c.Context, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
