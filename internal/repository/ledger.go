package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/finagent/internal/domain"
)

// LedgerRepository appends entries to the transactions table.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Create inserts a ledger entry within a transaction and fills in ID and CreatedAt.
func (r *LedgerRepository) Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	query, args, err := psql.
		Insert("transactions").
		Columns("transaction_id", "account_id", "type", "amount", "description", "recipient_account_id").
		Values(entry.TransactionID, entry.AccountID, string(entry.Type), toNumeric(entry.Amount), entry.Description, entry.RecipientAccountID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for ledger entry: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}

	return nil
}
