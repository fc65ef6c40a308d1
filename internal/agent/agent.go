// Package agent holds the task handlers the orchestrator dispatches to. Each
// agent turns one natural-language task into a store operation and reports
// the outcome as a Result; agents never return errors or panic on bad input.
package agent

import (
	"context"

	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/repository"
)

// Result is the outcome of one agent execution.
type Result struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Message   string `json:"message"`
	Statement string `json:"sql,omitempty"`
}

// Agent handles one family of tasks.
type Agent interface {
	Name() string
	Description() string
	Execute(ctx context.Context, task string) Result
}

// StatementRunner executes generated read statements.
type StatementRunner interface {
	QueryReadOnly(ctx context.Context, statement string) (*repository.RowSet, error)
}

// Ledger moves money atomically.
type Ledger interface {
	Execute(ctx context.Context, op domain.MoneyOperation) (*domain.Receipt, error)
}

// Customers registers, changes and removes customers.
type Customers interface {
	Create(ctx context.Context, c domain.NewCustomer) (*domain.Customer, error)
	FindByID(ctx context.Context, customerID int64) (*domain.Customer, error)
	FindByName(ctx context.Context, firstName, lastName string) (*domain.Customer, error)
	Update(ctx context.Context, customerID int64, changes map[domain.CustomerField]string) (*domain.Customer, error)
	Delete(ctx context.Context, customerID int64) (*domain.Customer, error)
}

func failure(message string) Result {
	return Result{Success: false, Message: message}
}
