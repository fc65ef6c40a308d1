package service_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/finagent/internal/database"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// storeSuite connects to DATABASE_URL, or to a throwaway PostgreSQL
// container when it is unset, and migrates the schema once.
type storeSuite struct {
	suite.Suite
	pool      *pgxpool.Pool
	container *pgmodule.PostgresContainer
}

// SetupSuite runs once before all tests.
func (s *storeSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping store integration tests in short mode")
	}

	ctx := context.Background()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		container, err := pgmodule.Run(ctx,
			"postgres:16-alpine",
			pgmodule.WithDatabase("finagent_test"),
			pgmodule.WithUsername("test"),
			pgmodule.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		if err != nil {
			s.T().Skipf("skipping: DATABASE_URL unset and PostgreSQL container unavailable: %v", err)
		}
		s.container = container

		databaseURL, err = container.ConnectionString(ctx, "sslmode=disable")
		s.Require().NoError(err, "failed to get container connection string")
	}

	db, err := database.New(ctx, databaseURL, database.PoolConfig{MaxConns: 4, MinConns: 1})
	s.Require().NoError(err, "failed to connect to database")
	s.pool = db.Pool()

	err = database.RunMigrations(ctx, s.pool)
	s.Require().NoError(err, "failed to run migrations")
}

// SetupTest runs before each test.
func (s *storeSuite) SetupTest() {
	ctx := context.Background()

	_, err := s.pool.Exec(ctx, "TRUNCATE cards, loans, transactions, accounts, customers RESTART IDENTITY CASCADE")
	s.Require().NoError(err, "failed to truncate tables")
}

// TearDownSuite runs once after all tests.
func (s *storeSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *storeSuite) insertCustomer(ctx context.Context, first, last, email string) int64 {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (first_name, last_name, email, phone, city, tier_id, branch_id)
		VALUES ($1, $2, $3, '555-0100', 'Seattle', 1, 1)
		RETURNING id
	`, first, last, email).Scan(&id)
	s.Require().NoError(err, "failed to insert customer")
	return id
}

func (s *storeSuite) insertAccount(ctx context.Context, customerID int64, number, balance, status string) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (account_number, customer_id, type_id, balance, status)
		VALUES ($1, $2, 1, $3::numeric, $4)
	`, number, customerID, balance, status)
	s.Require().NoError(err, "failed to insert account")
}

func (s *storeSuite) balanceOf(ctx context.Context, number string) string {
	var balance string
	err := s.pool.QueryRow(ctx, "SELECT balance::text FROM accounts WHERE account_number = $1", number).Scan(&balance)
	s.Require().NoError(err)
	return balance
}

func (s *storeSuite) countLedger(ctx context.Context) int {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	s.Require().NoError(err)
	return count
}
