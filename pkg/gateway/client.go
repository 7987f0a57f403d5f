package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/docuforms/wallet-service/pkg/httpclient"
)

const OrdersEndpoint = "/v1/orders"

type Client interface {
	CreateOrder(ctx context.Context, request CreateOrderRequest) (OrderResponse, error)
}

type client struct {
	http    httpclient.HTTPClient
	config  Config
	breaker *gobreaker.CircuitBreaker
}

func NewClient(cfg Config, httpClient httpclient.HTTPClient) Client {
	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &client{
		http:    httpClient,
		config:  cfg,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (c *client) CreateOrder(ctx context.Context, request CreateOrderRequest) (OrderResponse, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.createOrder(ctx, request)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return OrderResponse{}, ErrCircuitOpen
		}
		return OrderResponse{}, err
	}

	return result.(OrderResponse), nil
}

func (c *client) createOrder(ctx context.Context, request CreateOrderRequest) (OrderResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return OrderResponse{}, fmt.Errorf("encoding error: %w", err)
	}

	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": c.authorizationHeader(),
	}

	resp, err := c.http.Post(ctx, c.config.BaseURL+OrdersEndpoint, &buf, headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return OrderResponse{}, ErrTimeout
		}

		return OrderResponse{}, err
	}

	defer resp.Body.Close()

	if resp.StatusCode == StatusOK {
		var response OrderResponse
		if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
			return OrderResponse{}, fmt.Errorf("decoding error: %w", err)
		}

		return response, nil
	}

	return OrderResponse{}, MapStatusToError(resp.StatusCode)
}

func (c *client) authorizationHeader() string {
	credentials := c.config.KeyID + ":" + c.config.KeySecret
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}
