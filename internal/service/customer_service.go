package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/repository"
)

// CustomerService coordinates customer registration, changes and removal.
type CustomerService struct {
	pool         *pgxpool.Pool
	customerRepo *repository.CustomerRepository
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(pool *pgxpool.Pool, customerRepo *repository.CustomerRepository) *CustomerService {
	return &CustomerService{
		pool:         pool,
		customerRepo: customerRepo,
	}
}

// Create registers a customer after checking the email is not taken.
func (s *CustomerService) Create(ctx context.Context, c domain.NewCustomer) (*domain.Customer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := s.customerRepo.GetIDByEmail(ctx, tx, c.Email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrCustomerNotFound) {
		return nil, err
	}

	id, err := s.customerRepo.Create(ctx, tx, &c)
	if err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("reload customer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("customer created", "customer_id", id)
	return customer, nil
}

// FindByID retrieves a customer by ID.
func (s *CustomerService) FindByID(ctx context.Context, customerID int64) (*domain.Customer, error) {
	return s.customerRepo.GetByID(ctx, customerID)
}

// FindByName returns the first customer with the given first and last name.
// Duplicate names are not rejected; the lowest id wins.
func (s *CustomerService) FindByName(ctx context.Context, firstName, lastName string) (*domain.Customer, error) {
	customer, matches, err := s.customerRepo.FindByName(ctx, firstName, lastName)
	if err != nil {
		return nil, err
	}
	if matches > 1 {
		slog.Warn("customer name is ambiguous, using first match",
			"first_name", firstName,
			"last_name", lastName,
			"matches", matches,
			"customer_id", customer.ID,
		)
	}
	return customer, nil
}

// Update applies field changes to a customer. Fields outside the allow-list
// are ignored; tier and branch values are names mapped to identifiers.
func (s *CustomerService) Update(ctx context.Context, customerID int64, changes map[domain.CustomerField]string) (*domain.Customer, error) {
	columns := make(map[string]any, len(changes))
	for field, value := range changes {
		if !field.IsUpdatable() {
			continue
		}
		switch field {
		case domain.FieldTier:
			columns["tier_id"] = domain.TierID(value)
		case domain.FieldBranch:
			columns["branch_id"] = domain.BranchID(value)
		default:
			columns[string(field)] = strings.TrimSpace(value)
		}
	}
	if len(columns) == 0 {
		return nil, domain.ErrNoFieldChanges
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := s.customerRepo.GetByIDForUpdate(ctx, tx, customerID); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Update(ctx, tx, customerID, columns); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.GetByIDForUpdate(ctx, tx, customerID)
	if err != nil {
		return nil, fmt.Errorf("reload customer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("customer updated", "customer_id", customerID, "fields", len(columns))
	return customer, nil
}

// Delete removes a customer that owns no accounts and returns the removed row.
// Accounts of any status block removal.
func (s *CustomerService) Delete(ctx context.Context, customerID int64) (*domain.Customer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	customer, err := s.customerRepo.GetByIDForUpdate(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}

	count, err := s.customerRepo.CountAccounts(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &domain.AccountsRemainError{CustomerID: customerID, Count: count}
	}

	if err := s.customerRepo.Delete(ctx, tx, customerID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("customer deleted", "customer_id", customerID)
	return customer, nil
}
