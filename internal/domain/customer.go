package domain

import (
	"strings"
	"time"
)

// Customer represents a bank customer.
type Customer struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	TierID    int
	BranchID  int
	CreatedAt time.Time
}

// FullName returns "First Last".
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CustomerField names a column that may be changed through an update request.
type CustomerField string

const (
	FieldFirstName CustomerField = "first_name"
	FieldLastName  CustomerField = "last_name"
	FieldEmail     CustomerField = "email"
	FieldPhone     CustomerField = "phone"
	FieldAddress   CustomerField = "address"
	FieldCity      CustomerField = "city"
	FieldTier      CustomerField = "tier"
	FieldBranch    CustomerField = "branch"
)

// IsUpdatable reports whether the field is on the update allow-list.
func (f CustomerField) IsUpdatable() bool {
	switch f {
	case FieldFirstName, FieldLastName, FieldEmail, FieldPhone,
		FieldAddress, FieldCity, FieldTier, FieldBranch:
		return true
	default:
		return false
	}
}

// NewCustomer holds the fields required to register a customer.
type NewCustomer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	TierID    int
	BranchID  int
}
