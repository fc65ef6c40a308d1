package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/extract"
	"github.com/mtlprog/finagent/internal/llm"
	"github.com/mtlprog/finagent/internal/logger"
)

const extractionSystemPrompt = "You are a data extraction assistant. Return ONLY valid JSON, nothing else."

const customerExtractionPrompt = `Extract customer information from this request: "%s"

Return ONLY a JSON object with these fields (use null for missing fields):
{
    "first_name": "...",
    "last_name": "...",
    "email": "...",
    "phone": "...",
    "address": "...",
    "city": "...",
    "tier": "Basic|Premium|VIP",
    "branch": "Downtown|Westside|Airport|Bellevue"
}

If any REQUIRED field (first_name, last_name, email) is missing, return:
{
    "missing": ["field1", "field2", ...]
}`

// customerFields is the provider's reading of a create request.
type customerFields struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Tier      string   `json:"tier"`
	Branch    string   `json:"branch"`
	Missing   []string `json:"missing"`
}

func (f customerFields) missingRequired() []string {
	var missing []string
	if strings.TrimSpace(f.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(f.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(f.Email) == "" {
		missing = append(missing, "email")
	}
	return missing
}

// CRUDAgent creates, updates and deletes customers. Updates and deletes are
// resolved without the provider.
type CRUDAgent struct {
	provider  *llm.Provider
	customers Customers
}

// NewCRUDAgent creates a new CRUDAgent.
func NewCRUDAgent(provider *llm.Provider, customers Customers) *CRUDAgent {
	return &CRUDAgent{provider: provider, customers: customers}
}

func (a *CRUDAgent) Name() string { return "crud" }

func (a *CRUDAgent) Description() string {
	return "Creates, updates, or deletes customer records"
}

// Execute classifies task and runs the matching operation. Every failure
// path leaves the store unchanged.
func (a *CRUDAgent) Execute(ctx context.Context, task string) Result {
	ex := extract.Extract(task)
	logger.FromContext(ctx).Debug("crud request classified",
		"agent", a.Name(),
		"operation", ex.Operation,
	)

	switch ex.Operation {
	case extract.OpCreate:
		return a.create(ctx, task)
	case extract.OpUpdate:
		return a.update(ctx, ex)
	case extract.OpDelete:
		return a.delete(ctx, ex)
	default:
		return failure("I can help you CREATE, UPDATE, or DELETE records. Please specify what you'd like to do.")
	}
}

func (a *CRUDAgent) create(ctx context.Context, task string) Result {
	if !extract.MentionsCustomer(task) {
		return failure("Currently I can only create customers. Please specify what you'd like to create.")
	}

	var fields customerFields
	err := a.provider.GenerateJSON(ctx, fmt.Sprintf(customerExtractionPrompt, task), extractionSystemPrompt, &fields)
	if errors.Is(err, llm.ErrNoJSON) || errors.Is(err, llm.ErrMalformedJSON) {
		return failure("Failed to parse customer information. Please provide details in a clearer format.")
	}
	if err != nil {
		return failure("CRUD operation failed: " + err.Error())
	}

	if len(fields.Missing) > 0 {
		return Result{
			Data:    Record{{Name: "missing_fields", Value: fields.Missing}},
			Message: "I need more information to create a customer. Please provide: " + strings.Join(fields.Missing, ", "),
		}
	}
	if missing := fields.missingRequired(); len(missing) > 0 {
		return Result{
			Data:    Record{{Name: "missing_fields", Value: missing}},
			Message: "Required fields missing: " + strings.Join(missing, ", ") + ". Please provide these details.",
		}
	}

	customer, err := a.customers.Create(ctx, domain.NewCustomer{
		FirstName: strings.TrimSpace(fields.FirstName),
		LastName:  strings.TrimSpace(fields.LastName),
		Email:     strings.TrimSpace(fields.Email),
		Phone:     strings.TrimSpace(fields.Phone),
		Address:   strings.TrimSpace(fields.Address),
		City:      strings.TrimSpace(fields.City),
		TierID:    domain.TierID(fields.Tier),
		BranchID:  domain.BranchID(fields.Branch),
	})
	if errors.Is(err, domain.ErrEmailExists) {
		return failure(fmt.Sprintf("A customer with email %s already exists", strings.TrimSpace(fields.Email)))
	}
	if err != nil {
		return failure("CRUD operation failed: " + err.Error())
	}

	return Result{
		Success: true,
		Data: Record{
			{Name: "customer_id", Value: customer.ID},
			{Name: "first_name", Value: customer.FirstName},
			{Name: "last_name", Value: customer.LastName},
			{Name: "email", Value: customer.Email},
			{Name: "phone", Value: customer.Phone},
			{Name: "address", Value: customer.Address},
			{Name: "city", Value: customer.City},
			{Name: "tier_id", Value: customer.TierID},
			{Name: "branch_id", Value: customer.BranchID},
		},
		Message: fmt.Sprintf("Successfully created customer: %s (ID: %d)", customer.FullName(), customer.ID),
	}
}

func (a *CRUDAgent) update(ctx context.Context, ex extract.Extraction) Result {
	if ex.Target == nil {
		return failure("Please specify which customer to update (by ID or name).")
	}

	customer, res, ok := a.resolve(ctx, *ex.Target)
	if !ok {
		return res
	}

	if len(ex.Changes) == 0 {
		return failure("Please specify which fields to update.")
	}

	changes := make(map[domain.CustomerField]string, len(ex.Changes))
	updated := make([]string, 0, len(ex.Changes))
	for _, c := range ex.Changes {
		if _, seen := changes[c.Field]; !seen {
			updated = append(updated, string(c.Field))
		}
		changes[c.Field] = c.Value
	}

	if _, err := a.customers.Update(ctx, customer.ID, changes); err != nil {
		switch {
		case errors.Is(err, domain.ErrNoFieldChanges):
			return failure("No valid fields to update.")
		case errors.Is(err, domain.ErrCustomerNotFound):
			return notFound(*ex.Target)
		case errors.Is(err, domain.ErrEmailExists):
			return failure(fmt.Sprintf("A customer with email %s already exists", changes[domain.FieldEmail]))
		default:
			return failure("CRUD operation failed: " + err.Error())
		}
	}

	return Result{
		Success: true,
		Data: Record{
			{Name: "customer_id", Value: customer.ID},
			{Name: "updated_fields", Value: updated},
		},
		Message: fmt.Sprintf("Successfully updated customer %s (ID: %d)", customer.FullName(), customer.ID),
	}
}

func (a *CRUDAgent) delete(ctx context.Context, ex extract.Extraction) Result {
	if ex.Target == nil {
		return failure("Please specify which customer to delete (by ID or name).")
	}

	customer, res, ok := a.resolve(ctx, *ex.Target)
	if !ok {
		return res
	}

	removed, err := a.customers.Delete(ctx, customer.ID)
	if err != nil {
		var remain *domain.AccountsRemainError
		switch {
		case errors.As(err, &remain):
			return failure(fmt.Sprintf("Cannot delete customer %s - they have %d account(s). Please close accounts first.",
				customer.FullName(), remain.Count))
		case errors.Is(err, domain.ErrCustomerNotFound):
			return notFound(*ex.Target)
		default:
			return failure("CRUD operation failed: " + err.Error())
		}
	}

	return Result{
		Success: true,
		Data: Record{
			{Name: "customer_id", Value: removed.ID},
			{Name: "name", Value: removed.FullName()},
		},
		Message: fmt.Sprintf("Successfully deleted customer: %s (ID: %d)", removed.FullName(), removed.ID),
	}
}

// resolve looks the target up by ID, or by exact name taking the first match.
// When ok is false res holds the failure to report.
func (a *CRUDAgent) resolve(ctx context.Context, target extract.Target) (customer *domain.Customer, res Result, ok bool) {
	var err error
	if target.HasID() {
		customer, err = a.customers.FindByID(ctx, target.ID)
	} else {
		customer, err = a.customers.FindByName(ctx, target.FirstName, target.LastName)
	}

	if errors.Is(err, domain.ErrCustomerNotFound) {
		return nil, notFound(target), false
	}
	if err != nil {
		return nil, failure("CRUD operation failed: " + err.Error()), false
	}
	return customer, Result{}, true
}

func notFound(target extract.Target) Result {
	if target.HasID() {
		return failure(fmt.Sprintf("Customer with ID %d not found.", target.ID))
	}
	return failure(fmt.Sprintf("Customer '%s %s' not found.", target.FirstName, target.LastName))
}
