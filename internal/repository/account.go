package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/finagent/internal/domain"
	"github.com/shopspring/decimal"
)

var accountColumns = []string{
	"id", "account_number", "customer_id", "type_id", "balance", "status", "opened_at",
}

// AccountRepository handles database operations for accounts.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a       domain.Account
		balance pgtype.Numeric
	)
	err := row.Scan(
		&a.ID,
		&a.AccountNumber,
		&a.CustomerID,
		&a.TypeID,
		&balance,
		&a.Status,
		&a.OpenedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Balance = fromNumeric(balance)
	return &a, nil
}

// GetByNumber retrieves an account by its account number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	query, args, err := psql.
		Select(accountColumns...).
		From("accounts").
		Where(sq.Eq{"account_number": number}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByNumber query for account: %w", err)
	}

	return scanAccount(r.pool.QueryRow(ctx, query, args...))
}

// GetByNumberForUpdate retrieves an account with FOR UPDATE lock (within transaction).
func (r *AccountRepository) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, number string) (*domain.Account, error) {
	query, args, err := psql.
		Select(accountColumns...).
		From("accounts").
		Where(sq.Eq{"account_number": number}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByNumberForUpdate query for account %s: %w", number, err)
	}

	return scanAccount(tx.QueryRow(ctx, query, args...))
}

// AdjustBalance adds delta (which may be negative) to the account balance
// and returns the new balance.
func (r *AccountRepository) AdjustBalance(ctx context.Context, tx pgx.Tx, accountID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	query, args, err := psql.
		Update("accounts").
		Set("balance", sq.Expr("balance + ?", toNumeric(delta))).
		Where(sq.Eq{"id": accountID}).
		Suffix("RETURNING balance").
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build AdjustBalance query for account %d: %w", accountID, err)
	}

	var balance pgtype.Numeric
	if err := tx.QueryRow(ctx, query, args...).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrAccountNotFound
		}
		return decimal.Zero, fmt.Errorf("adjust account balance: %w", err)
	}

	return fromNumeric(balance), nil
}
