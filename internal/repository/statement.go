package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RowSet is the result of a free-form read statement.
// Every row has one value per column, in column order.
type RowSet struct {
	Columns []string
	Rows    [][]any
}

// StatementRunner executes generated read statements against the bank store.
type StatementRunner struct {
	pool *pgxpool.Pool
}

// NewStatementRunner creates a new StatementRunner.
func NewStatementRunner(pool *pgxpool.Pool) *StatementRunner {
	return &StatementRunner{pool: pool}
}

// QueryReadOnly runs statement inside a READ ONLY transaction that is always
// rolled back, so nothing it does can reach the store.
func (r *StatementRunner) QueryReadOnly(ctx context.Context, statement string) (*RowSet, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback read-only transaction", "error", err)
		}
	}()

	rows, err := tx.Query(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("execute statement: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	set := &RowSet{Columns: make([]string, len(fields)), Rows: [][]any{}}
	for i, f := range fields {
		set.Columns[i] = f.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		set.Rows = append(set.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return set, nil
}

// normalizeValue turns driver-specific values into plain JSON-friendly ones.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return fromNumeric(val).String()
		}
		return f.Float64
	case []byte:
		return string(val)
	case [16]byte:
		return uuid.UUID(val).String()
	default:
		return v
	}
}
