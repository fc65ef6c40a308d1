package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/metrics"
	"github.com/mtlprog/finagent/internal/repository"
)

// ReceiptPublisher receives committed money movements.
type ReceiptPublisher interface {
	PublishReceipt(ctx context.Context, receipt domain.Receipt) error
}

// LedgerService moves money between accounts. Every operation runs in one
// database transaction: balance changes and the ledger entry commit together
// or not at all.
type LedgerService struct {
	pool        *pgxpool.Pool
	accountRepo *repository.AccountRepository
	ledgerRepo  *repository.LedgerRepository
	publisher   ReceiptPublisher
}

// NewLedgerService creates a new LedgerService. publisher may be nil.
func NewLedgerService(
	pool *pgxpool.Pool,
	accountRepo *repository.AccountRepository,
	ledgerRepo *repository.LedgerRepository,
	publisher ReceiptPublisher,
) *LedgerService {
	return &LedgerService{
		pool:        pool,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		publisher:   publisher,
	}
}

// Balance returns the account with its current balance.
func (s *LedgerService) Balance(ctx context.Context, accountNumber string) (*domain.Account, error) {
	return s.accountRepo.GetByNumber(ctx, strings.TrimSpace(accountNumber))
}

// Execute dispatches op to Deposit, Withdraw or Transfer by its kind.
func (s *LedgerService) Execute(ctx context.Context, op domain.MoneyOperation) (*domain.Receipt, error) {
	switch op.Kind {
	case domain.OperationDeposit:
		return s.Deposit(ctx, op)
	case domain.OperationWithdrawal:
		return s.Withdraw(ctx, op)
	case domain.OperationTransfer:
		return s.Transfer(ctx, op)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownOperation, op.Kind)
	}
}

// Deposit credits the source account. There is no funds check.
func (s *LedgerService) Deposit(ctx context.Context, op domain.MoneyOperation) (*domain.Receipt, error) {
	op, err := prepare(op, domain.OperationDeposit)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	account, err := s.accountRepo.GetByNumberForUpdate(ctx, tx, op.SourceAccount)
	if err != nil {
		return nil, err
	}

	balance, err := s.accountRepo.AdjustBalance(ctx, tx, account.ID, op.Amount)
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		TransactionID: domain.NewTransactionID(),
		AccountID:     account.ID,
		Type:          domain.OperationDeposit,
		Amount:        op.Amount,
		Description:   op.Description,
	}

	if err := s.createEntryAndCommit(ctx, tx, entry); err != nil {
		return nil, err
	}

	receipt := domain.Receipt{
		TransactionID: entry.TransactionID,
		Kind:          domain.OperationDeposit,
		Amount:        op.Amount,
		SourceAccount: account.AccountNumber,
		SourceBalance: balance,
		CreatedAt:     entry.CreatedAt,
	}
	s.publish(ctx, receipt)

	return &receipt, nil
}

// Withdraw debits the source account when its balance covers the amount.
func (s *LedgerService) Withdraw(ctx context.Context, op domain.MoneyOperation) (*domain.Receipt, error) {
	op, err := prepare(op, domain.OperationWithdrawal)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	account, err := s.accountRepo.GetByNumberForUpdate(ctx, tx, op.SourceAccount)
	if err != nil {
		return nil, err
	}

	if !account.CanCover(op.Amount) {
		return nil, &domain.InsufficientFundsError{
			Account:   account.AccountNumber,
			Balance:   account.Balance,
			Requested: op.Amount,
		}
	}

	balance, err := s.accountRepo.AdjustBalance(ctx, tx, account.ID, op.Amount.Neg())
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		TransactionID: domain.NewTransactionID(),
		AccountID:     account.ID,
		Type:          domain.OperationWithdrawal,
		Amount:        op.Amount,
		Description:   op.Description,
	}

	if err := s.createEntryAndCommit(ctx, tx, entry); err != nil {
		return nil, err
	}

	receipt := domain.Receipt{
		TransactionID: entry.TransactionID,
		Kind:          domain.OperationWithdrawal,
		Amount:        op.Amount,
		SourceAccount: account.AccountNumber,
		SourceBalance: balance,
		CreatedAt:     entry.CreatedAt,
	}
	s.publish(ctx, receipt)

	return &receipt, nil
}

// Transfer debits the source and credits the destination, recording one
// ledger entry that references both accounts.
func (s *LedgerService) Transfer(ctx context.Context, op domain.MoneyOperation) (*domain.Receipt, error) {
	op, err := prepare(op, domain.OperationTransfer)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	// Lock rows in account-number order so concurrent opposite transfers
	// cannot deadlock.
	first, second := op.SourceAccount, op.DestinationAccount
	if second < first {
		first, second = second, first
	}
	locked := make(map[string]*domain.Account, 2)
	for _, number := range []string{first, second} {
		account, err := s.accountRepo.GetByNumberForUpdate(ctx, tx, number)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", number, err)
		}
		locked[number] = account
	}
	source, destination := locked[op.SourceAccount], locked[op.DestinationAccount]

	if !source.CanCover(op.Amount) {
		return nil, &domain.InsufficientFundsError{
			Account:   source.AccountNumber,
			Balance:   source.Balance,
			Requested: op.Amount,
		}
	}

	sourceBalance, err := s.accountRepo.AdjustBalance(ctx, tx, source.ID, op.Amount.Neg())
	if err != nil {
		return nil, err
	}
	destinationBalance, err := s.accountRepo.AdjustBalance(ctx, tx, destination.ID, op.Amount)
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		TransactionID:      domain.NewTransactionID(),
		AccountID:          source.ID,
		RecipientAccountID: &destination.ID,
		Type:               domain.OperationTransfer,
		Amount:             op.Amount,
		Description:        op.Description,
	}

	if err := s.createEntryAndCommit(ctx, tx, entry); err != nil {
		return nil, err
	}

	receipt := domain.Receipt{
		TransactionID:      entry.TransactionID,
		Kind:               domain.OperationTransfer,
		Amount:             op.Amount,
		SourceAccount:      source.AccountNumber,
		DestinationAccount: destination.AccountNumber,
		SourceBalance:      sourceBalance,
		DestinationBalance: destinationBalance,
		CreatedAt:          entry.CreatedAt,
	}
	s.publish(ctx, receipt)

	return &receipt, nil
}

// createEntryAndCommit persists the ledger entry within the transaction, then commits.
func (s *LedgerService) createEntryAndCommit(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	if err := s.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	metrics.LedgerOperationsTotal.WithLabelValues(string(entry.Type)).Inc()
	slog.Info("ledger entry committed",
		"transaction_id", entry.TransactionID,
		"type", entry.Type,
		"amount", entry.Amount.StringFixed(2),
	)
	return nil
}

// publish hands the receipt to the publisher. The movement is already
// committed, so failures are only logged.
func (s *LedgerService) publish(ctx context.Context, receipt domain.Receipt) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReceipt(ctx, receipt); err != nil {
		slog.Warn("failed to publish ledger receipt",
			"transaction_id", receipt.TransactionID,
			"error", err,
		)
	}
}

// prepare normalises op, checks it has the expected kind and validates it.
func prepare(op domain.MoneyOperation, kind domain.OperationKind) (domain.MoneyOperation, error) {
	if op.Kind == "" {
		op.Kind = kind
	}
	if op.Kind != kind {
		return op, fmt.Errorf("%w: expected %s, got %s", domain.ErrUnknownOperation, kind, op.Kind)
	}
	op.SourceAccount = strings.TrimSpace(op.SourceAccount)
	op.DestinationAccount = strings.TrimSpace(op.DestinationAccount)
	op.Amount = op.Amount.Round(2)
	if err := op.Validate(); err != nil {
		return op, err
	}
	return op, nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("failed to rollback transaction", "error", err)
	}
}
