package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/docuforms/wallet-service/pkg/gateway"
	"github.com/docuforms/wallet-service/pkg/mocks"
)

func matchOrderBody(request gateway.CreateOrderRequest) interface{} {
	return mock.MatchedBy(func(body interface{}) bool {
		buf, ok := body.(*bytes.Buffer)
		if !ok {
			return false
		}

		var req gateway.CreateOrderRequest
		if err := json.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(&req); err != nil {
			return false
		}

		return req.Amount == request.Amount &&
			req.Currency == request.Currency &&
			req.Receipt == request.Receipt
	})
}

func TestClient_CreateOrder(t *testing.T) {
	cfg := gateway.Config{
		BaseURL:   "https://api.gateway.test",
		KeyID:     "key_test_123",
		KeySecret: "secret_test_456",
		Currency:  "INR",
		Timeout:   30 * time.Second,
	}

	ordersURL := "https://api.gateway.test/v1/orders"

	request := gateway.CreateOrderRequest{
		Amount:   50000,
		Currency: "INR",
		Receipt:  "topup-user123-1700000000",
	}

	t.Run("successful order creation", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		client := gateway.NewClient(cfg, mockClient)

		body := `{
			"id": "order_N8qq8vEZ3pBd2K",
			"amount": 50000,
			"currency": "INR",
			"receipt": "topup-user123-1700000000",
			"status": "created"
		}`

		mockClient.On("Post", context.Background(), ordersURL, matchOrderBody(request), mock.Anything).
			Return(&http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(body)),
			}, nil)

		resp, err := client.CreateOrder(context.Background(), request)

		require.NoError(t, err)
		assert.Equal(t, "order_N8qq8vEZ3pBd2K", resp.OrderID)
		assert.Equal(t, int64(50000), resp.Amount)
		assert.Equal(t, "INR", resp.Currency)
		mockClient.AssertExpectations(t)
	})

	t.Run("authorization header is sent", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		client := gateway.NewClient(cfg, mockClient)

		mockClient.On("Post", context.Background(), ordersURL, mock.Anything,
			mock.MatchedBy(func(headers map[string]string) bool {
				return strings.HasPrefix(headers["Authorization"], "Basic ")
			})).
			Return(&http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"id":"order_1","amount":100,"currency":"INR","status":"created"}`)),
			}, nil)

		_, err := client.CreateOrder(context.Background(), request)

		require.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("gateway rejects order", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		client := gateway.NewClient(cfg, mockClient)

		mockClient.On("Post", context.Background(), ordersURL, mock.Anything, mock.Anything).
			Return(&http.Response{
				StatusCode: http.StatusBadRequest,
				Body:       io.NopCloser(strings.NewReader(`{"error":"amount must be positive"}`)),
			}, nil)

		_, err := client.CreateOrder(context.Background(), request)

		assert.ErrorIs(t, err, gateway.ErrInvalidOrder)
		mockClient.AssertExpectations(t)
	})

	t.Run("timeout is mapped", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		client := gateway.NewClient(cfg, mockClient)

		mockClient.On("Post", context.Background(), ordersURL, mock.Anything, mock.Anything).
			Return((*http.Response)(nil), context.DeadlineExceeded)

		_, err := client.CreateOrder(context.Background(), request)

		assert.ErrorIs(t, err, gateway.ErrTimeout)
		mockClient.AssertExpectations(t)
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		mockClient := &mocks.HTTPClient{}
		client := gateway.NewClient(cfg, mockClient)

		mockClient.On("Post", context.Background(), ordersURL, mock.Anything, mock.Anything).
			Return(&http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(strings.NewReader(`{"error":"boom"}`)),
			}, nil)

		for i := 0; i < 5; i++ {
			_, err := client.CreateOrder(context.Background(), request)
			assert.ErrorIs(t, err, gateway.ErrServerError)
		}

		_, err := client.CreateOrder(context.Background(), request)
		assert.ErrorIs(t, err, gateway.ErrCircuitOpen)
	})
}
