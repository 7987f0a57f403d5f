package service

import "github.com/docuforms/wallet-service/internal/model"

type DeductCommand struct {
	UserID     string
	ActionType string
	Reference  string
}

type DeductResult struct {
	Deducted     int64 `json:"deducted"`
	BalanceAfter int64 `json:"balance_after"`
}

type CreateOrderCommand struct {
	UserID  string
	Amount  int64
	Purpose string
}

type TopUpOrderResult struct {
	OrderID      string `json:"order_id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	GatewayKeyID string `json:"gateway_key_id"`
}

type VerifyPaymentCommand struct {
	UserID    string
	OrderID   string
	PaymentID string
	Signature string
	Amount    int64
	Purpose   string
}

type CreditResult struct {
	Credited     int64 `json:"credited"`
	BalanceAfter int64 `json:"balance_after"`
	Replayed     bool  `json:"-"`
}

type StatementResult struct {
	UserID       string                    `json:"user_id"`
	Balance      int64                     `json:"balance"`
	Transactions []model.WalletTransaction `json:"transactions"`
}
