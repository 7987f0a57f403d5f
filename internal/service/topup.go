package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docuforms/wallet-service/internal/constants"
	"github.com/docuforms/wallet-service/internal/metrics"
	"github.com/docuforms/wallet-service/internal/model"
	"github.com/docuforms/wallet-service/internal/repository"
	"github.com/docuforms/wallet-service/pkg/gateway"
)

var ErrDuplicatePayment = errors.New("DUPLICATE_PAYMENT")

type TopUpService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (TopUpOrderResult, error)
	VerifyAndCredit(ctx context.Context, cmd VerifyPaymentCommand) (CreditResult, error)
}

type topUpService struct {
	gateway      gateway.Client
	signer       *gateway.Signer
	gatewayCfg   gateway.Config
	accounts     repository.AccountBalanceRepository
	transactions repository.TransactionRepository
	maxAttempts  int
	log          *zap.Logger
	metrics      *metrics.Metrics
}

func NewTopUpService(
	client gateway.Client,
	signer *gateway.Signer,
	gatewayCfg gateway.Config,
	accounts repository.AccountBalanceRepository,
	transactions repository.TransactionRepository,
	maxAttempts int,
	log *zap.Logger,
	m *metrics.Metrics,
) TopUpService {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &topUpService{
		gateway:      client,
		signer:       signer,
		gatewayCfg:   gatewayCfg,
		accounts:     accounts,
		transactions: transactions,
		maxAttempts:  maxAttempts,
		log:          log,
		metrics:      m,
	}
}

// CreateOrder asks the gateway for a pending payment order. Nothing
// is written locally; the gateway owns the order until the client
// reports the signed result back through VerifyAndCredit.
func (s *topUpService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (TopUpOrderResult, error) {
	request := gateway.CreateOrderRequest{
		Amount:   cmd.Amount,
		Currency: s.gatewayCfg.Currency,
		Receipt:  buildReceipt(cmd.UserID),
		Notes:    orderNotes(cmd),
	}

	maxRetries := s.gatewayCfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := s.gateway.CreateOrder(ctx, request)
		if err == nil {
			s.metrics.RecordTopUpOrder("success")
			s.log.Info("Top-up order created",
				zap.String("user_id", cmd.UserID),
				zap.String("order_id", resp.OrderID),
				zap.Int64("amount", resp.Amount),
				zap.Int("attempt", attempt))

			return TopUpOrderResult{
				OrderID:      resp.OrderID,
				Amount:       resp.Amount,
				Currency:     resp.Currency,
				GatewayKeyID: s.gatewayCfg.KeyID,
			}, nil
		}

		if errors.Is(err, gateway.ErrInvalidOrder) || errors.Is(err, gateway.ErrAuthFailed) {
			s.metrics.RecordTopUpOrder("rejected")
			s.log.Warn("Gateway rejected top-up order",
				zap.String("user_id", cmd.UserID),
				zap.Error(err))
			return TopUpOrderResult{}, NewServiceError(constants.ErrCodeGatewayUnavailable, err)
		}

		if errors.Is(err, gateway.ErrCircuitOpen) {
			lastErr = err
			break
		}

		lastErr = err
	}

	s.metrics.RecordTopUpOrder("unavailable")
	s.log.Error("Gateway unavailable after retries",
		zap.String("user_id", cmd.UserID),
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr))

	return TopUpOrderResult{}, NewServiceError(constants.ErrCodeGatewayUnavailable, lastErr)
}

// VerifyAndCredit checks the gateway signature on a client-reported
// payment result and credits the balance exactly once per payment id.
// A replayed callback returns the originally recorded result.
func (s *topUpService) VerifyAndCredit(ctx context.Context, cmd VerifyPaymentCommand) (CreditResult, error) {
	verified, err := s.signer.Verify(cmd.OrderID, cmd.PaymentID, cmd.Signature)
	if err != nil {
		s.metrics.RecordPaymentVerification("invalid_signature")
		s.log.Warn("Payment signature rejected",
			zap.String("user_id", cmd.UserID),
			zap.String("order_id", cmd.OrderID),
			zap.String("payment_id", cmd.PaymentID))
		return CreditResult{}, NewServiceError(constants.ErrCodeInvalidSignature, err)
	}

	if result, found, err := s.findProcessed(ctx, verified.PaymentID(), cmd.Amount); err != nil {
		return CreditResult{}, err
	} else if found {
		return result, nil
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		account, err := s.accounts.FindByUserID(ctx, cmd.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				s.metrics.RecordPaymentVerification("account_not_found")
				return CreditResult{}, NewServiceError(constants.ErrCodeAccountNotFound, err)
			}
			s.metrics.RecordPaymentVerification("error")
			return CreditResult{}, NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		newBalance := account.Balance + cmd.Amount

		err = s.accounts.UpdateBalanceIf(ctx, cmd.UserID, account.Balance, newBalance)
		if errors.Is(err, repository.ErrBalanceModified) {
			s.metrics.RecordCASConflict("credit")
			continue
		}
		if err != nil {
			s.metrics.RecordPaymentVerification("error")
			return CreditResult{}, NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		reference := verified.PaymentID()
		record := model.WalletTransaction{
			UserID:            cmd.UserID,
			Amount:            cmd.Amount,
			Direction:         model.DirectionCredit,
			Description:       creditDescription(cmd),
			ExternalReference: &reference,
			BalanceAfter:      newBalance,
			CreatedAt:         time.Now(),
		}

		err = s.transactions.Create(ctx, &record)
		if err == nil {
			s.metrics.RecordPaymentVerification("success")
			s.metrics.RecordTransactionCreated(string(model.DirectionCredit))
			s.metrics.UpdateUserBalance(cmd.UserID, newBalance)

			s.log.Info("Payment verified and credited",
				zap.String("user_id", cmd.UserID),
				zap.String("payment_id", verified.PaymentID()),
				zap.Int64("amount", cmd.Amount),
				zap.Int64("balance_after", newBalance),
				zap.Int("attempt", attempt))

			return CreditResult{Credited: cmd.Amount, BalanceAfter: newBalance}, nil
		}

		if errors.Is(err, repository.ErrDuplicateReference) {
			// A concurrent replay of the same payment won the append.
			// Undo our credit and hand back the recorded result.
			if compErr := s.compensateCredit(ctx, cmd.UserID, cmd.Amount, err); compErr != nil {
				return CreditResult{}, compErr
			}
			if result, found, lookupErr := s.findProcessed(ctx, verified.PaymentID(), cmd.Amount); lookupErr != nil {
				return CreditResult{}, lookupErr
			} else if found {
				return result, nil
			}
			s.metrics.RecordPaymentVerification("error")
			return CreditResult{}, NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		s.log.Error("Credit record append failed, compensating balance",
			zap.String("user_id", cmd.UserID),
			zap.String("payment_id", verified.PaymentID()),
			zap.Error(err))
		if compErr := s.compensateCredit(ctx, cmd.UserID, cmd.Amount, err); compErr != nil {
			return CreditResult{}, compErr
		}
		s.metrics.RecordPaymentVerification("error")
		return CreditResult{}, NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	s.metrics.RecordPaymentVerification("conflict")
	return CreditResult{}, NewServiceError(constants.ErrCodeConcurrentConflict, ErrConcurrentConflict)
}

// findProcessed reports whether the payment id was already settled.
func (s *topUpService) findProcessed(ctx context.Context, paymentID string, amount int64) (CreditResult, bool, error) {
	existing, err := s.transactions.FindByExternalReference(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return CreditResult{}, false, nil
		}
		s.metrics.RecordPaymentVerification("error")
		return CreditResult{}, false, NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	if existing.Amount != amount {
		s.metrics.RecordPaymentVerification("duplicate_mismatch")
		s.log.Warn("Replayed payment id with a different amount",
			zap.String("payment_id", paymentID),
			zap.Int64("recorded", existing.Amount),
			zap.Int64("claimed", amount))
		return CreditResult{}, false, NewServiceError(constants.ErrCodeDuplicatePayment, ErrDuplicatePayment)
	}

	s.metrics.RecordPaymentVerification("replayed")
	s.log.Info("Payment already processed, replaying recorded result",
		zap.String("payment_id", paymentID),
		zap.Int64("balance_after", existing.BalanceAfter))

	return CreditResult{
		Credited:     existing.Amount,
		BalanceAfter: existing.BalanceAfter,
		Replayed:     true,
	}, true, nil
}

func (s *topUpService) compensateCredit(ctx context.Context, userID string, amount int64, cause error) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		account, err := s.accounts.FindByUserID(ctx, userID)
		if err != nil {
			continue
		}

		err = s.accounts.UpdateBalanceIf(ctx, userID, account.Balance, account.Balance-amount)
		if errors.Is(err, repository.ErrBalanceModified) {
			s.metrics.RecordCASConflict("compensate")
			continue
		}
		if err != nil {
			continue
		}

		s.log.Warn("Credit rolled back after failed ledger append",
			zap.String("user_id", userID),
			zap.Int64("amount", amount),
			zap.Int("attempt", attempt))

		return nil
	}

	s.metrics.RecordLedgerInconsistency()
	s.log.Error("Credit compensation failed, ledger and balance diverge",
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
		zap.Error(cause))

	return NewServiceError(constants.ErrCodeLedgerInconsistency, ErrLedgerInconsistency)
}

func buildReceipt(userID string) string {
	return fmt.Sprintf("topup-%s-%d-%s", userID, time.Now().Unix(), uuid.NewString()[:8])
}

func orderNotes(cmd CreateOrderCommand) map[string]string {
	notes := map[string]string{"user_id": cmd.UserID}
	if cmd.Purpose != "" {
		notes["purpose"] = cmd.Purpose
	}
	return notes
}

func creditDescription(cmd VerifyPaymentCommand) string {
	if cmd.Purpose != "" {
		return fmt.Sprintf("top-up via order %s (%s)", cmd.OrderID, cmd.Purpose)
	}
	return fmt.Sprintf("top-up via order %s", cmd.OrderID)
}
