package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finagent/internal/database"
)

func runMigrate(c *cli.Context) error {
	ctx := c.Context

	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return errors.New("database url is required (--database-url or DATABASE_URL)")
	}

	db, err := database.New(ctx, cfg.DatabaseURL, database.PoolConfig{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if c.Bool("status") {
		return database.MigrationStatus(ctx, db.Pool())
	}
	return database.RunMigrations(ctx, db.Pool())
}
