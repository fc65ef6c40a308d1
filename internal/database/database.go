package database

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns         = 10
	defaultMinConns         = 2
	defaultStatementTimeout = 30 * time.Second
	defaultApplicationName  = "finagent"
)

// PoolConfig tunes the connection pool. Zero fields keep their defaults.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
	// StatementTimeout is applied server-side to every session, so a generated
	// statement cannot hold a connection indefinitely.
	StatementTimeout time.Duration
	ApplicationName  string
}

func (pc PoolConfig) withDefaults() PoolConfig {
	if pc.MaxConns <= 0 {
		pc.MaxConns = defaultMaxConns
	}
	if pc.MinConns <= 0 {
		pc.MinConns = defaultMinConns
	}
	if pc.MinConns > pc.MaxConns {
		pc.MinConns = pc.MaxConns
	}
	if pc.StatementTimeout <= 0 {
		pc.StatementTimeout = defaultStatementTimeout
	}
	if pc.ApplicationName == "" {
		pc.ApplicationName = defaultApplicationName
	}
	return pc
}

// DB is the customer and ledger store connection.
type DB struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping reports whether the store is reachable; used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// New opens a pool for databaseURL and verifies it with a ping.
func New(ctx context.Context, databaseURL string, pc PoolConfig) (*DB, error) {
	config, err := parsePoolConfig(databaseURL, pc)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connected",
		"host", config.ConnConfig.Host,
		"database", config.ConnConfig.Database,
		"max_conns", config.MaxConns,
		"statement_timeout", config.ConnConfig.RuntimeParams["statement_timeout"],
	)

	return &DB{pool: pool}, nil
}

func parsePoolConfig(databaseURL string, pc PoolConfig) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	pc = pc.withDefaults()
	config.MaxConns = pc.MaxConns
	config.MinConns = pc.MinConns

	params := config.ConnConfig.RuntimeParams
	if _, set := params["statement_timeout"]; !set {
		params["statement_timeout"] = strconv.FormatInt(pc.StatementTimeout.Milliseconds(), 10)
	}
	if _, set := params["application_name"]; !set {
		params["application_name"] = pc.ApplicationName
	}

	return config, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.pool.Close()
	slog.Info("database connection closed")
}
