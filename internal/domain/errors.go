package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain-specific errors for business logic validation.
var (
	// Customer errors
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrEmailExists         = errors.New("customer email already exists")
	ErrCustomerHasAccounts = errors.New("customer still owns accounts")
	ErrNoFieldChanges      = errors.New("no recognized field changes")

	// Account and ledger errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrMissingAccount    = errors.New("account number is required")
	ErrSameAccount       = errors.New("source and destination accounts are the same")
	ErrUnknownOperation  = errors.New("unknown transaction type")

	// Orchestration errors
	ErrNotReadStatement = errors.New("statement is not a read statement")
	ErrUnknownAgent     = errors.New("unknown agent")
	ErrUnknownProvider  = errors.New("unknown provider")
)

// InsufficientFundsError carries the balance that failed the funds check.
type InsufficientFundsError struct {
	Account   string
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in %s: balance %s, requested %s",
		e.Account, e.Balance.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// AccountsRemainError is returned when a customer cannot be removed because
// accounts still reference it.
type AccountsRemainError struct {
	CustomerID int64
	Count      int
}

func (e *AccountsRemainError) Error() string {
	return fmt.Sprintf("customer %d owns %d account(s)", e.CustomerID, e.Count)
}

func (e *AccountsRemainError) Unwrap() error { return ErrCustomerHasAccounts }
