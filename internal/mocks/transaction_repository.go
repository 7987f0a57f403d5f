package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/docuforms/wallet-service/internal/model"
)

type TransactionRepository struct {
	mock.Mock
}

func (m *TransactionRepository) Create(ctx context.Context, tx *model.WalletTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *TransactionRepository) FindByExternalReference(ctx context.Context, reference string) (model.WalletTransaction, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(model.WalletTransaction), args.Error(1)
}

func (m *TransactionRepository) ListByUserID(ctx context.Context, userID string) ([]model.WalletTransaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WalletTransaction), args.Error(1)
}
