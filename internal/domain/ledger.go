package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationKind is the kind of a money movement.
type OperationKind string

const (
	OperationDeposit    OperationKind = "deposit"
	OperationWithdrawal OperationKind = "withdrawal"
	OperationTransfer   OperationKind = "transfer"
)

// IsValid checks if the kind is one of the supported movements.
func (k OperationKind) IsValid() bool {
	switch k {
	case OperationDeposit, OperationWithdrawal, OperationTransfer:
		return true
	default:
		return false
	}
}

// MoneyOperation describes one requested money movement.
type MoneyOperation struct {
	Kind               OperationKind
	Amount             decimal.Decimal
	SourceAccount      string
	DestinationAccount string // transfers only
	Description        string
}

// Validate checks the operation before any store access.
func (op MoneyOperation) Validate() error {
	if !op.Kind.IsValid() {
		return ErrUnknownOperation
	}
	if !op.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(op.SourceAccount) == "" {
		return ErrMissingAccount
	}
	if op.Kind == OperationTransfer {
		if strings.TrimSpace(op.DestinationAccount) == "" {
			return ErrMissingAccount
		}
		if strings.EqualFold(op.SourceAccount, op.DestinationAccount) {
			return ErrSameAccount
		}
	}
	return nil
}

// LedgerEntry is the immutable record of one money movement.
type LedgerEntry struct {
	ID                 int64
	TransactionID      string
	AccountID          int64
	RecipientAccountID *int64 // transfers only
	Type               OperationKind
	Amount             decimal.Decimal
	Description        string
	CreatedAt          time.Time
}

// NewTransactionID returns a fresh ledger transaction identifier.
func NewTransactionID() string {
	return "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Receipt reports the outcome of a committed money movement.
type Receipt struct {
	TransactionID      string
	Kind               OperationKind
	Amount             decimal.Decimal
	SourceAccount      string
	DestinationAccount string
	SourceBalance      decimal.Decimal
	DestinationBalance decimal.Decimal
	CreatedAt          time.Time
}
