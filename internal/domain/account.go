package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a customer bank account. Balance never goes below zero.
type Account struct {
	ID            int64
	AccountNumber string
	CustomerID    int64
	TypeID        int
	Balance       decimal.Decimal
	Status        string
	OpenedAt      time.Time
}

// CanCover reports whether the balance covers amount.
func (a *Account) CanCover(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
