package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/llm"
	"github.com/mtlprog/finagent/internal/logger"
)

const transactionPrompt = `Parse the transaction request and return a JSON object with:
- type: "deposit", "withdrawal", or "transfer"
- amount: the amount as a number
- account: the source account number (e.g., "CHK-001234")
- to_account: destination account for transfers (optional)
- description: brief description of the transaction

Example response:
{"type": "transfer", "amount": 500, "account": "CHK-001234", "to_account": "SAV-001234", "description": "Monthly savings"}

Return only the JSON object.`

// parsedOperation is the provider's reading of a money movement request.
type parsedOperation struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Account     string          `json:"account"`
	ToAccount   string          `json:"to_account"`
	Description string          `json:"description"`
}

var defaultDescriptions = map[domain.OperationKind]string{
	domain.OperationDeposit:    "Deposit",
	domain.OperationWithdrawal: "Withdrawal",
	domain.OperationTransfer:   "Transfer",
}

// TransactionAgent moves money: deposits, withdrawals and transfers.
type TransactionAgent struct {
	provider *llm.Provider
	ledger   Ledger
}

// NewTransactionAgent creates a new TransactionAgent.
func NewTransactionAgent(provider *llm.Provider, ledger Ledger) *TransactionAgent {
	return &TransactionAgent{provider: provider, ledger: ledger}
}

func (a *TransactionAgent) Name() string { return "transaction" }

func (a *TransactionAgent) Description() string {
	return "Processes deposits, withdrawals, and transfers between accounts"
}

// Execute parses task into a money movement and applies it.
func (a *TransactionAgent) Execute(ctx context.Context, task string) Result {
	var parsed parsedOperation
	if err := a.provider.GenerateJSON(ctx, task, transactionPrompt, &parsed); err != nil {
		return failure("Transaction failed: " + err.Error())
	}

	kind := domain.OperationKind(strings.ToLower(strings.TrimSpace(parsed.Type)))
	if !kind.IsValid() {
		return failure("Unknown transaction type: " + parsed.Type)
	}

	op := domain.MoneyOperation{
		Kind:          kind,
		Amount:        parsed.Amount,
		SourceAccount: parsed.Account,
		Description:   parsed.Description,
	}
	if kind == domain.OperationTransfer {
		op.DestinationAccount = parsed.ToAccount
	}
	if strings.TrimSpace(op.Description) == "" {
		op.Description = defaultDescriptions[kind]
	}

	receipt, err := a.ledger.Execute(ctx, op)
	if err != nil {
		logger.FromContext(ctx).Warn("money movement refused",
			"agent", a.Name(),
			"kind", kind,
			"error", err,
		)
		var funds *domain.InsufficientFundsError
		if errors.As(err, &funds) {
			return failure(fmt.Sprintf("Insufficient funds. Balance: $%s, Requested: $%s",
				funds.Balance.StringFixed(2), funds.Requested.StringFixed(2)))
		}
		return failure("Transaction failed: " + err.Error())
	}

	return receiptResult(receipt)
}

func receiptResult(r *domain.Receipt) Result {
	amount := r.Amount.StringFixed(2)

	switch r.Kind {
	case domain.OperationTransfer:
		return Result{
			Success: true,
			Data: Record{
				{Name: "transaction_id", Value: r.TransactionID},
				{Name: "type", Value: string(r.Kind)},
				{Name: "amount", Value: floatOf(r.Amount)},
				{Name: "from_account", Value: r.SourceAccount},
				{Name: "to_account", Value: r.DestinationAccount},
				{Name: "from_new_balance", Value: floatOf(r.SourceBalance)},
				{Name: "to_new_balance", Value: floatOf(r.DestinationBalance)},
			},
			Message: fmt.Sprintf("Transferred $%s from %s to %s", amount, r.SourceAccount, r.DestinationAccount),
		}
	default:
		verb, preposition := "Deposited", "to"
		if r.Kind == domain.OperationWithdrawal {
			verb, preposition = "Withdrew", "from"
		}
		return Result{
			Success: true,
			Data: Record{
				{Name: "transaction_id", Value: r.TransactionID},
				{Name: "type", Value: string(r.Kind)},
				{Name: "amount", Value: floatOf(r.Amount)},
				{Name: "account", Value: r.SourceAccount},
				{Name: "new_balance", Value: floatOf(r.SourceBalance)},
			},
			Message: fmt.Sprintf("%s $%s %s %s. New balance: $%s",
				verb, amount, preposition, r.SourceAccount, r.SourceBalance.StringFixed(2)),
		}
	}
}
