package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/docuforms/wallet-service/internal/model"
)

type PriceRepository struct {
	mock.Mock
}

func (m *PriceRepository) FindByActionType(ctx context.Context, actionType string) (model.PriceEntry, error) {
	args := m.Called(ctx, actionType)
	return args.Get(0).(model.PriceEntry), args.Error(1)
}
