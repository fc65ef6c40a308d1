package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtlprog/finagent/internal/agent"
	"github.com/mtlprog/finagent/internal/config"
	"github.com/mtlprog/finagent/internal/database"
	"github.com/mtlprog/finagent/internal/llm"
	"github.com/mtlprog/finagent/internal/notify"
	"github.com/mtlprog/finagent/internal/repository"
	"github.com/mtlprog/finagent/internal/service"
	"github.com/mtlprog/finagent/internal/stream"
)

// runtime is the wired application shared by the commands.
type runtime struct {
	cfg       config.Config
	db        *database.DB
	providers *llm.Registry
	agents    *agent.Registry
	ledger    *service.LedgerService
	feed      stream.Feed
	closers   []func() error
}

func newRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database url is required (--database-url or DATABASE_URL)")
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.New(ctx, cfg.DatabaseURL, database.PoolConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	rt := &runtime{cfg: cfg, db: db, providers: providers}

	var receipts service.ReceiptPublisher
	if cfg.Notify.RabbitURL != "" {
		ledger, err := notify.NewRabbitLedger(notify.RabbitConfig{
			URL:   cfg.Notify.RabbitURL,
			Queue: cfg.Notify.RabbitQueue,
		})
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, ledger.Close)
		receipts = ledger
		slog.Info("ledger events enabled", "queue", cfg.Notify.RabbitQueue)
	}

	if cfg.Notify.RedisAddr != "" {
		feed, err := notify.NewRedisFeed(ctx, notify.RedisConfig{
			Address:  cfg.Notify.RedisAddr,
			Password: cfg.Notify.RedisPassword,
			DB:       cfg.Notify.RedisDB,
			Channel:  cfg.Notify.RedisChannel,
		})
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, feed.Close)
		rt.feed = feed
		slog.Info("activity feed enabled", "addr", cfg.Notify.RedisAddr)
	}

	pool := db.Pool()
	rt.ledger = service.NewLedgerService(
		pool,
		repository.NewAccountRepository(pool),
		repository.NewLedgerRepository(pool),
		receipts,
	)
	rt.agents = agent.NewRegistry(agent.Deps{
		Runner:    repository.NewStatementRunner(pool),
		Ledger:    rt.ledger,
		Customers: service.NewCustomerService(pool, repository.NewCustomerRepository(pool)),
	})

	return rt, nil
}

// Close releases the sinks and the database pool.
func (rt *runtime) Close() {
	for _, closeFn := range rt.closers {
		if err := closeFn(); err != nil {
			slog.Warn("failed to close sink", "error", err)
		}
	}
	rt.db.Close()
}
