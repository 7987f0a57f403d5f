package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/docuforms/wallet-service/internal/model"
)

type AccountBalanceRepository struct {
	mock.Mock
}

func (m *AccountBalanceRepository) Create(ctx context.Context, ab *model.AccountBalance) error {
	args := m.Called(ctx, ab)
	return args.Error(0)
}

func (m *AccountBalanceRepository) FindByUserID(ctx context.Context, userID string) (model.AccountBalance, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.AccountBalance), args.Error(1)
}

func (m *AccountBalanceRepository) UpdateBalanceIf(ctx context.Context, userID string, expected, next int64) error {
	args := m.Called(ctx, userID, expected, next)
	return args.Error(0)
}
