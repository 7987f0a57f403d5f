package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docuforms/wallet-service/internal/constants"
	"github.com/docuforms/wallet-service/internal/mocks"
	"github.com/docuforms/wallet-service/internal/model"
	"github.com/docuforms/wallet-service/internal/repository"
	"github.com/docuforms/wallet-service/internal/service"
	"github.com/docuforms/wallet-service/pkg/gateway"
)

const webhookSecret = "test-webhook-secret"

var gatewayCfg = gateway.Config{
	KeyID:      "rzp_test_key",
	Currency:   "INR",
	MaxRetries: 3,
}

func newTopUpService(client *mocks.GatewayClient, accounts *mocks.AccountBalanceRepository, transactions *mocks.TransactionRepository) service.TopUpService {
	return service.NewTopUpService(client, gateway.NewSigner(webhookSecret), gatewayCfg,
		accounts, transactions, 3, zap.NewNop(), testMetrics)
}

func TestTopUpService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	cmd := service.CreateOrderCommand{
		UserID:  "user123",
		Amount:  500,
		Purpose: "print credits",
	}

	t.Run("order created on first attempt", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		client.On("CreateOrder", ctx, mock.MatchedBy(func(req gateway.CreateOrderRequest) bool {
			return req.Amount == 500 &&
				req.Currency == "INR" &&
				req.Notes["user_id"] == "user123" &&
				req.Notes["purpose"] == "print credits"
		})).Return(gateway.OrderResponse{
			OrderID:  "order_abc",
			Amount:   500,
			Currency: "INR",
			Status:   "created",
		}, nil).Once()

		result, err := svc.CreateOrder(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, "order_abc", result.OrderID)
		assert.Equal(t, int64(500), result.Amount)
		assert.Equal(t, "rzp_test_key", result.GatewayKeyID)
		client.AssertExpectations(t)
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		client.On("CreateOrder", ctx, mock.Anything).
			Return(gateway.OrderResponse{}, gateway.ErrServerError).Twice()
		client.On("CreateOrder", ctx, mock.Anything).
			Return(gateway.OrderResponse{OrderID: "order_retry", Amount: 500, Currency: "INR"}, nil).Once()

		result, err := svc.CreateOrder(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, "order_retry", result.OrderID)
		client.AssertNumberOfCalls(t, "CreateOrder", 3)
	})

	t.Run("exhausted retries report the gateway unavailable", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		client.On("CreateOrder", ctx, mock.Anything).
			Return(gateway.OrderResponse{}, gateway.ErrTimeout)

		_, err := svc.CreateOrder(ctx, cmd)

		var serviceErr service.Error
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeGatewayUnavailable, serviceErr.Code)
		client.AssertNumberOfCalls(t, "CreateOrder", 3)
	})

	t.Run("rejected order is not retried", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		client.On("CreateOrder", ctx, mock.Anything).
			Return(gateway.OrderResponse{}, gateway.ErrInvalidOrder)

		_, err := svc.CreateOrder(ctx, cmd)

		var serviceErr service.Error
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeGatewayUnavailable, serviceErr.Code)
		client.AssertNumberOfCalls(t, "CreateOrder", 1)
	})

	t.Run("open circuit stops retrying immediately", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		client.On("CreateOrder", ctx, mock.Anything).
			Return(gateway.OrderResponse{}, gateway.ErrCircuitOpen)

		_, err := svc.CreateOrder(ctx, cmd)

		var serviceErr service.Error
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeGatewayUnavailable, serviceErr.Code)
		client.AssertNumberOfCalls(t, "CreateOrder", 1)
	})
}

func TestTopUpService_VerifyAndCredit(t *testing.T) {
	ctx := context.Background()

	signer := gateway.NewSigner(webhookSecret)
	signature := signer.Sign("order_abc", "pay_xyz")

	cmd := service.VerifyPaymentCommand{
		UserID:    "user123",
		OrderID:   "order_abc",
		PaymentID: "pay_xyz",
		Signature: signature,
		Amount:    500,
		Purpose:   "print credits",
	}

	t.Run("valid payment credits the balance once", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		transactions.On("FindByExternalReference", ctx, "pay_xyz").
			Return(model.WalletTransaction{}, repository.ErrTransactionNotFound).Once()
		accounts.On("FindByUserID", ctx, "user123").
			Return(model.AccountBalance{UserID: "user123", Balance: 100}, nil).Once()
		accounts.On("UpdateBalanceIf", ctx, "user123", int64(100), int64(600)).Return(nil).Once()
		transactions.On("Create", ctx, mock.MatchedBy(func(tx *model.WalletTransaction) bool {
			return tx.UserID == "user123" &&
				tx.Amount == 500 &&
				tx.Direction == model.DirectionCredit &&
				tx.BalanceAfter == 600 &&
				tx.ExternalReference != nil && *tx.ExternalReference == "pay_xyz"
		})).Return(nil).Once()

		result, err := svc.VerifyAndCredit(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, int64(500), result.Credited)
		assert.Equal(t, int64(600), result.BalanceAfter)
		assert.False(t, result.Replayed)
		accounts.AssertExpectations(t)
		transactions.AssertExpectations(t)
	})

	t.Run("tampered signature is rejected before any read or write", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		tampered := cmd
		tampered.Signature = flipHexDigit(signature)

		_, err := svc.VerifyAndCredit(ctx, tampered)

		var serviceErr service.Error
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeInvalidSignature, serviceErr.Code)

		transactions.AssertNotCalled(t, "FindByExternalReference", mock.Anything, mock.Anything)
		accounts.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
		accounts.AssertNotCalled(t, "UpdateBalanceIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("signature over different payment id is rejected", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		forged := cmd
		forged.PaymentID = "pay_other"

		_, err := svc.VerifyAndCredit(ctx, forged)

		var serviceErr service.Error
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeInvalidSignature, serviceErr.Code)
	})

	t.Run("replayed payment returns the recorded result", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		ref := "pay_xyz"
		transactions.On("FindByExternalReference", ctx, "pay_xyz").
			Return(model.WalletTransaction{
				ID:                7,
				UserID:            "user123",
				Amount:            500,
				Direction:         model.DirectionCredit,
				ExternalReference: &ref,
				BalanceAfter:      600,
			}, nil).Once()

		result, err := svc.VerifyAndCredit(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, int64(500), result.Credited)
		assert.Equal(t, int64(600), result.BalanceAfter)
		assert.True(t, result.Replayed)
		accounts.AssertNotCalled(t, "UpdateBalanceIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("replayed payment id with a different amount is refused", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		ref := "pay_xyz"
		transactions.On("FindByExternalReference", ctx, "pay_xyz").
			Return(model.WalletTransaction{
				UserID:            "user123",
				Amount:            400,
				Direction:         model.DirectionCredit,
				ExternalReference: &ref,
				BalanceAfter:      500,
			}, nil).Once()

		_, err := svc.VerifyAndCredit(ctx, cmd)

		var serviceErr service.Error
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeDuplicatePayment, serviceErr.Code)
		accounts.AssertNotCalled(t, "UpdateBalanceIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("losing a concurrent append rolls back and replays", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		transactions.On("FindByExternalReference", ctx, "pay_xyz").
			Return(model.WalletTransaction{}, repository.ErrTransactionNotFound).Once()
		accounts.On("FindByUserID", ctx, "user123").
			Return(model.AccountBalance{UserID: "user123", Balance: 100}, nil).Once()
		accounts.On("UpdateBalanceIf", ctx, "user123", int64(100), int64(600)).Return(nil).Once()
		transactions.On("Create", ctx, mock.Anything).
			Return(repository.ErrDuplicateReference).Once()

		// rollback of our credit
		accounts.On("FindByUserID", ctx, "user123").
			Return(model.AccountBalance{UserID: "user123", Balance: 600}, nil).Once()
		accounts.On("UpdateBalanceIf", ctx, "user123", int64(600), int64(100)).Return(nil).Once()

		// the winner's record is now visible
		ref := "pay_xyz"
		transactions.On("FindByExternalReference", ctx, "pay_xyz").
			Return(model.WalletTransaction{
				UserID:            "user456",
				Amount:            500,
				Direction:         model.DirectionCredit,
				ExternalReference: &ref,
				BalanceAfter:      900,
			}, nil).Once()

		result, err := svc.VerifyAndCredit(ctx, cmd)

		require.NoError(t, err)
		assert.True(t, result.Replayed)
		assert.Equal(t, int64(900), result.BalanceAfter)
		accounts.AssertExpectations(t)
		transactions.AssertExpectations(t)
	})

	t.Run("failed credit append is compensated", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		transactions.On("FindByExternalReference", ctx, "pay_xyz").
			Return(model.WalletTransaction{}, repository.ErrTransactionNotFound).Once()
		accounts.On("FindByUserID", ctx, "user123").
			Return(model.AccountBalance{UserID: "user123", Balance: 100}, nil).Once()
		accounts.On("UpdateBalanceIf", ctx, "user123", int64(100), int64(600)).Return(nil).Once()
		transactions.On("Create", ctx, mock.Anything).Return(errors.New("log store down")).Once()

		accounts.On("FindByUserID", ctx, "user123").
			Return(model.AccountBalance{UserID: "user123", Balance: 600}, nil).Once()
		accounts.On("UpdateBalanceIf", ctx, "user123", int64(600), int64(100)).Return(nil).Once()

		_, err := svc.VerifyAndCredit(ctx, cmd)

		var serviceErr service.Error
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeOperationFailed, serviceErr.Code)
		accounts.AssertExpectations(t)
	})

	t.Run("failed compensation surfaces a ledger inconsistency", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		transactions.On("FindByExternalReference", ctx, "pay_xyz").
			Return(model.WalletTransaction{}, repository.ErrTransactionNotFound).Once()
		accounts.On("FindByUserID", ctx, "user123").
			Return(model.AccountBalance{UserID: "user123", Balance: 100}, nil).Once()
		accounts.On("UpdateBalanceIf", ctx, "user123", int64(100), int64(600)).Return(nil).Once()
		transactions.On("Create", ctx, mock.Anything).Return(errors.New("log store down")).Once()

		accounts.On("FindByUserID", ctx, "user123").
			Return(model.AccountBalance{UserID: "user123", Balance: 600}, nil)
		accounts.On("UpdateBalanceIf", ctx, "user123", int64(600), int64(100)).
			Return(repository.ErrBalanceModified)

		_, err := svc.VerifyAndCredit(ctx, cmd)

		var serviceErr service.Error
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeLedgerInconsistency, serviceErr.Code)
	})

	t.Run("persistent balance conflict gives up", func(t *testing.T) {
		client := &mocks.GatewayClient{}
		accounts := &mocks.AccountBalanceRepository{}
		transactions := &mocks.TransactionRepository{}
		svc := newTopUpService(client, accounts, transactions)

		transactions.On("FindByExternalReference", ctx, "pay_xyz").
			Return(model.WalletTransaction{}, repository.ErrTransactionNotFound).Once()
		accounts.On("FindByUserID", ctx, "user123").
			Return(model.AccountBalance{UserID: "user123", Balance: 100}, nil)
		accounts.On("UpdateBalanceIf", ctx, "user123", int64(100), int64(600)).
			Return(repository.ErrBalanceModified)

		_, err := svc.VerifyAndCredit(ctx, cmd)

		var serviceErr service.Error
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeConcurrentConflict, serviceErr.Code)
		transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

// flipHexDigit changes the last hex digit so the string stays valid hex
// but no longer matches the HMAC.
func flipHexDigit(sig string) string {
	last := sig[len(sig)-1]
	replacement := byte('0')
	if last == '0' {
		replacement = '1'
	}
	return sig[:len(sig)-1] + string(replacement)
}
