package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finagent/internal/handler"
	"github.com/mtlprog/finagent/internal/mcpserver"
	"github.com/mtlprog/finagent/internal/middleware"
)

func runServe(c *cli.Context) error {
	ctx := c.Context

	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	defaultProvider, err := rt.providers.Default()
	if err != nil {
		return err
	}

	h := handler.New(handler.Options{
		Store:     rt.db,
		Providers: rt.providers,
		Agents:    rt.agents,
		Feed:      rt.feed,
		MCP:       mcpserver.New(defaultProvider, rt.agents, rt.ledger),
		APIToken:  cfg.APIToken,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// No WriteTimeout: chat streams stay open for as long as the client does.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.RequestLogger(mux),
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server", "connections", h.Connections().Count())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown.
	h.Connections().CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
