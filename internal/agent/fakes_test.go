package agent

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/repository"
)

type fakeRunner struct {
	set        *repository.RowSet
	err        error
	statements []string
}

func (f *fakeRunner) QueryReadOnly(_ context.Context, statement string) (*repository.RowSet, error) {
	f.statements = append(f.statements, statement)
	if f.err != nil {
		return nil, f.err
	}
	if f.set == nil {
		return &repository.RowSet{}, nil
	}
	return f.set, nil
}

type fakeLedger struct {
	receipt *domain.Receipt
	err     error
	ops     []domain.MoneyOperation
}

func (f *fakeLedger) Execute(_ context.Context, op domain.MoneyOperation) (*domain.Receipt, error) {
	f.ops = append(f.ops, op)
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

// fakeCustomers mirrors the customer service rules in memory.
type fakeCustomers struct {
	mu       sync.Mutex
	rows     map[int64]*domain.Customer
	accounts map[int64]int
	nextID   int64
	updates  int
	deletes  int
}

func newFakeCustomers(customers ...domain.Customer) *fakeCustomers {
	f := &fakeCustomers{rows: map[int64]*domain.Customer{}, accounts: map[int64]int{}, nextID: 100}
	for _, c := range customers {
		f.rows[c.ID] = &c
	}
	return f
}

func (f *fakeCustomers) Create(_ context.Context, c domain.NewCustomer) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if strings.EqualFold(row.Email, c.Email) {
			return nil, domain.ErrEmailExists
		}
	}
	f.nextID++
	created := &domain.Customer{
		ID: f.nextID, FirstName: c.FirstName, LastName: c.LastName, Email: c.Email,
		Phone: c.Phone, Address: c.Address, City: c.City, TierID: c.TierID, BranchID: c.BranchID,
	}
	f.rows[created.ID] = created
	copied := *created
	return &copied, nil
}

func (f *fakeCustomers) FindByID(_ context.Context, id int64) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeCustomers) FindByName(_ context.Context, first, last string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		row := f.rows[id]
		if strings.EqualFold(row.FirstName, first) && strings.EqualFold(row.LastName, last) {
			copied := *row
			return &copied, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (f *fakeCustomers) Update(_ context.Context, id int64, changes map[domain.CustomerField]string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	if len(changes) == 0 {
		return nil, domain.ErrNoFieldChanges
	}
	if email, ok := changes[domain.FieldEmail]; ok {
		for otherID, other := range f.rows {
			if otherID != id && strings.EqualFold(other.Email, email) {
				return nil, domain.ErrEmailExists
			}
		}
	}
	for field, value := range changes {
		switch field {
		case domain.FieldEmail:
			row.Email = value
		case domain.FieldFirstName:
			row.FirstName = value
		case domain.FieldLastName:
			row.LastName = value
		case domain.FieldPhone:
			row.Phone = value
		case domain.FieldTier:
			row.TierID = domain.TierID(value)
		case domain.FieldBranch:
			row.BranchID = domain.BranchID(value)
		}
	}
	f.updates++
	copied := *row
	return &copied, nil
}

func (f *fakeCustomers) Delete(_ context.Context, id int64) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	if n := f.accounts[id]; n > 0 {
		return nil, &domain.AccountsRemainError{CustomerID: id, Count: n}
	}
	delete(f.rows, id)
	f.deletes++
	return row, nil
}

func (f *fakeCustomers) get(id int64) (domain.Customer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return domain.Customer{}, false
	}
	return *row, true
}
