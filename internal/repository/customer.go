package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/finagent/internal/domain"
)

// customerColumns is the shared list of columns for customer queries.
var customerColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "address", "city",
	"tier_id", "branch_id", "created_at",
}

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// CustomerRepository handles database operations for customers.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// scanCustomer scans a single row into a Customer struct.
func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.City,
		&c.TierID,
		&c.BranchID,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, customerID int64) (*domain.Customer, error) {
	query, args, err := psql.
		Select(customerColumns...).
		From("customers").
		Where(sq.Eq{"id": customerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for customer: %w", err)
	}

	return scanCustomer(r.pool.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves a customer by ID with FOR UPDATE lock (within transaction).
func (r *CustomerRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*domain.Customer, error) {
	query, args, err := psql.
		Select(customerColumns...).
		From("customers").
		Where(sq.Eq{"id": customerID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for customer %d: %w", customerID, err)
	}

	return scanCustomer(tx.QueryRow(ctx, query, args...))
}

// FindByName returns the first customer whose first and last name match
// case-insensitively, along with the total number of matches.
func (r *CustomerRepository) FindByName(ctx context.Context, firstName, lastName string) (*domain.Customer, int, error) {
	query, args, err := psql.
		Select(append(customerColumns, "COUNT(*) OVER ()")...).
		From("customers").
		Where(sq.Expr("LOWER(first_name) = LOWER(?)", firstName)).
		Where(sq.Expr("LOWER(last_name) = LOWER(?)", lastName)).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build FindByName query for customer: %w", err)
	}

	var (
		c       domain.Customer
		matches int
	)
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.City,
		&c.TierID,
		&c.BranchID,
		&c.CreatedAt,
		&matches,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, domain.ErrCustomerNotFound
		}
		return nil, 0, fmt.Errorf("scan customer: %w", err)
	}

	return &c, matches, nil
}

// GetIDByEmail returns the id of the customer owning email.
func (r *CustomerRepository) GetIDByEmail(ctx context.Context, tx pgx.Tx, email string) (int64, error) {
	query, args, err := psql.
		Select("id").
		From("customers").
		Where(sq.Expr("LOWER(email) = LOWER(?)", email)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build GetIDByEmail query: %w", err)
	}

	var id int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrCustomerNotFound
		}
		return 0, fmt.Errorf("query customer by email: %w", err)
	}
	return id, nil
}

// Create inserts a new customer within a transaction and returns its ID.
func (r *CustomerRepository) Create(ctx context.Context, tx pgx.Tx, c *domain.NewCustomer) (int64, error) {
	query, args, err := psql.
		Insert("customers").
		Columns("first_name", "last_name", "email", "phone", "address", "city", "tier_id", "branch_id").
		Values(c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.City, c.TierID, c.BranchID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build Create query for customer: %w", err)
	}

	var id int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrEmailExists
		}
		return 0, fmt.Errorf("create customer: %w", err)
	}

	return id, nil
}

// Update applies column changes to a customer within a transaction.
// Keys of changes are column names.
func (r *CustomerRepository) Update(ctx context.Context, tx pgx.Tx, customerID int64, changes map[string]any) error {
	if len(changes) == 0 {
		return domain.ErrNoFieldChanges
	}

	query, args, err := psql.
		Update("customers").
		SetMap(changes).
		Where(sq.Eq{"id": customerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Update query for customer %d: %w", customerID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailExists
		}
		return fmt.Errorf("update customer: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}

	return nil
}

// Delete removes a customer within a transaction.
func (r *CustomerRepository) Delete(ctx context.Context, tx pgx.Tx, customerID int64) error {
	query, args, err := psql.
		Delete("customers").
		Where(sq.Eq{"id": customerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for customer %d: %w", customerID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}

	return nil
}

// CountAccounts counts accounts owned by a customer regardless of status.
func (r *CustomerRepository) CountAccounts(ctx context.Context, tx pgx.Tx, customerID int64) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("accounts").
		Where(sq.Eq{"customer_id": customerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build CountAccounts query: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count customer accounts: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
