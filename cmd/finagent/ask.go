package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finagent/internal/logger"
	"github.com/mtlprog/finagent/internal/orchestrator"
)

func runAsk(c *cli.Context) error {
	message := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if message == "" {
		return errors.New("usage: finagent ask <message>")
	}

	// stdout is for the answer
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

	provider, err := rt.providers.Get(c.String("provider"))
	if err != nil {
		return err
	}

	for raw := range orchestrator.New(provider, rt.agents).Process(c.Context, message) {
		fmt.Fprintln(c.App.Writer, renderLine(raw))
	}
	return nil
}
