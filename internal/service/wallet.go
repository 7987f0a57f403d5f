package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docuforms/wallet-service/internal/constants"
	"github.com/docuforms/wallet-service/internal/metrics"
	"github.com/docuforms/wallet-service/internal/model"
	"github.com/docuforms/wallet-service/internal/repository"
)

var (
	ErrActionDisabled      = errors.New("ACTION_DISABLED")
	ErrConcurrentConflict  = errors.New("CONCURRENT_UPDATE_CONFLICT")
	ErrLedgerInconsistency = errors.New("LEDGER_INCONSISTENCY")
)

type WalletService interface {
	Deduct(ctx context.Context, cmd DeductCommand) (DeductResult, error)
	GetBalance(ctx context.Context, userID string) (model.AccountBalance, error)
	GetStatement(ctx context.Context, userID string) (StatementResult, error)
	AuditLedger(ctx context.Context, userID string) error
}

type walletService struct {
	accounts     repository.AccountBalanceRepository
	transactions repository.TransactionRepository
	prices       repository.PriceRepository
	maxAttempts  int
	log          *zap.Logger
	metrics      *metrics.Metrics
}

func NewWalletService(
	accounts repository.AccountBalanceRepository,
	transactions repository.TransactionRepository,
	prices repository.PriceRepository,
	maxAttempts int,
	log *zap.Logger,
	m *metrics.Metrics,
) WalletService {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &walletService{
		accounts:     accounts,
		transactions: transactions,
		prices:       prices,
		maxAttempts:  maxAttempts,
		log:          log,
		metrics:      m,
	}
}

// Deduct charges the price of an action against the user's prepaid
// balance. The balance write is a compare-and-swap: two concurrent
// deductions against the same account serialize through the store,
// and the loser re-reads and retries up to maxAttempts.
func (s *walletService) Deduct(ctx context.Context, cmd DeductCommand) (DeductResult, error) {
	start := time.Now()

	entry, err := s.prices.FindByActionType(ctx, cmd.ActionType)
	if err != nil {
		if errors.Is(err, repository.ErrPriceNotFound) {
			s.metrics.RecordDeduction("pricing_not_found")
			return DeductResult{}, NewServiceError(constants.ErrCodePricingNotFound, err)
		}
		s.metrics.RecordDeduction("error")
		return DeductResult{}, NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	if !entry.Active {
		s.metrics.RecordDeduction("action_disabled")
		return DeductResult{}, NewServiceError(constants.ErrCodeActionDisabled, ErrActionDisabled)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		account, err := s.accounts.FindByUserID(ctx, cmd.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				s.metrics.RecordDeduction("account_not_found")
				return DeductResult{}, NewServiceError(constants.ErrCodeAccountNotFound, err)
			}
			s.metrics.RecordDeduction("error")
			return DeductResult{}, NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		if account.Balance < entry.Price {
			s.metrics.RecordDeduction("insufficient_balance")
			return DeductResult{}, NewServiceError(constants.ErrCodeInsufficientBalance,
				InsufficientFundsError{Required: entry.Price, Available: account.Balance})
		}

		newBalance := account.Balance - entry.Price

		err = s.accounts.UpdateBalanceIf(ctx, cmd.UserID, account.Balance, newBalance)
		if errors.Is(err, repository.ErrBalanceModified) {
			s.metrics.RecordCASConflict("deduct")
			s.log.Debug("Balance changed between read and write, retrying",
				zap.String("user_id", cmd.UserID),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			s.metrics.RecordDeduction("error")
			return DeductResult{}, NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		record := model.WalletTransaction{
			UserID:       cmd.UserID,
			Amount:       entry.Price,
			Direction:    model.DirectionDebit,
			Description:  debitDescription(cmd),
			BalanceAfter: newBalance,
			CreatedAt:    time.Now(),
		}

		if err := s.transactions.Create(ctx, &record); err != nil {
			s.log.Error("Debit record append failed, compensating balance",
				zap.String("user_id", cmd.UserID),
				zap.Int64("amount", entry.Price),
				zap.Error(err))
			return DeductResult{}, s.compensate(ctx, cmd.UserID, entry.Price, err)
		}

		s.metrics.RecordDeduction("success")
		s.metrics.RecordTransactionCreated(string(model.DirectionDebit))
		s.metrics.UpdateUserBalance(cmd.UserID, newBalance)

		s.log.Info("Balance deducted",
			zap.String("user_id", cmd.UserID),
			zap.String("action_type", cmd.ActionType),
			zap.Int64("amount", entry.Price),
			zap.Int64("balance_after", newBalance),
			zap.Int("attempt", attempt),
			zap.Duration("duration", time.Since(start)))

		return DeductResult{Deducted: entry.Price, BalanceAfter: newBalance}, nil
	}

	s.metrics.RecordDeduction("conflict")
	s.log.Warn("Deduction gave up after repeated balance conflicts",
		zap.String("user_id", cmd.UserID),
		zap.Int("attempts", s.maxAttempts))

	return DeductResult{}, NewServiceError(constants.ErrCodeConcurrentConflict, ErrConcurrentConflict)
}

func (s *walletService) GetBalance(ctx context.Context, userID string) (model.AccountBalance, error) {
	account, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return model.AccountBalance{}, NewServiceError(constants.ErrCodeAccountNotFound, err)
		}
		return model.AccountBalance{}, NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	s.metrics.UpdateUserBalance(userID, account.Balance)

	return account, nil
}

func (s *walletService) GetStatement(ctx context.Context, userID string) (StatementResult, error) {
	account, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return StatementResult{}, NewServiceError(constants.ErrCodeAccountNotFound, err)
		}
		return StatementResult{}, NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	txs, err := s.transactions.ListByUserID(ctx, userID)
	if err != nil {
		return StatementResult{}, NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	return StatementResult{UserID: userID, Balance: account.Balance, Transactions: txs}, nil
}

// AuditLedger replays the user's transaction log from the opening
// balance and checks that every recorded balance_after matches and
// that the replay ends at the stored balance.
func (s *walletService) AuditLedger(ctx context.Context, userID string) error {
	account, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return NewServiceError(constants.ErrCodeAccountNotFound, err)
		}
		return NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	txs, err := s.transactions.ListByUserID(ctx, userID)
	if err != nil {
		return NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	var running int64
	for _, tx := range txs {
		switch tx.Direction {
		case model.DirectionCredit:
			running += tx.Amount
		case model.DirectionDebit:
			running -= tx.Amount
		}

		if running != tx.BalanceAfter {
			s.log.Error("Ledger replay diverged from recorded balance",
				zap.String("user_id", userID),
				zap.Int64("transaction_id", tx.ID),
				zap.Int64("replayed", running),
				zap.Int64("recorded", tx.BalanceAfter))
			return NewServiceError(constants.ErrCodeLedgerInconsistency,
				fmt.Errorf("%w: transaction %d replayed %d recorded %d",
					ErrLedgerInconsistency, tx.ID, running, tx.BalanceAfter))
		}
	}

	if running != account.Balance {
		s.log.Error("Ledger replay does not match stored balance",
			zap.String("user_id", userID),
			zap.Int64("replayed", running),
			zap.Int64("stored", account.Balance))
		return NewServiceError(constants.ErrCodeLedgerInconsistency,
			fmt.Errorf("%w: replayed %d stored %d", ErrLedgerInconsistency, running, account.Balance))
	}

	return nil
}

// compensate restores a balance after a failed log append. The
// restore is itself a bounded CAS loop so a concurrent credit between
// the debit and the restore is not overwritten.
func (s *walletService) compensate(ctx context.Context, userID string, amount int64, cause error) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		account, err := s.accounts.FindByUserID(ctx, userID)
		if err != nil {
			continue
		}

		err = s.accounts.UpdateBalanceIf(ctx, userID, account.Balance, account.Balance+amount)
		if errors.Is(err, repository.ErrBalanceModified) {
			s.metrics.RecordCASConflict("compensate")
			continue
		}
		if err != nil {
			continue
		}

		s.metrics.RecordDeduction("compensated")
		s.log.Warn("Balance restored after failed ledger append",
			zap.String("user_id", userID),
			zap.Int64("amount", amount),
			zap.Int("attempt", attempt))

		return NewServiceError(constants.ErrCodeOperationFailed, cause)
	}

	s.metrics.RecordLedgerInconsistency()
	s.log.Error("Compensation failed, ledger and balance diverge",
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
		zap.Error(cause))

	return NewServiceError(constants.ErrCodeLedgerInconsistency, ErrLedgerInconsistency)
}

func debitDescription(cmd DeductCommand) string {
	if cmd.Reference != "" {
		return fmt.Sprintf("charge for %s (%s)", cmd.ActionType, cmd.Reference)
	}
	return fmt.Sprintf("charge for %s", cmd.ActionType)
}
