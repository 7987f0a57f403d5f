package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/docuforms/wallet-service/pkg/gateway"
)

type GatewayClient struct {
	mock.Mock
}

func (m *GatewayClient) CreateOrder(ctx context.Context, request gateway.CreateOrderRequest) (gateway.OrderResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(gateway.OrderResponse), args.Error(1)
}
