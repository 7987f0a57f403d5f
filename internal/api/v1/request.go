package v1

type DeductRequest struct {
	ActionType string `json:"action_type" validate:"required,max=64,action_type"`
	Reference  string `json:"reference" validate:"omitempty,max=128"`
}

type CreateTopUpOrderRequest struct {
	Amount  int64  `json:"amount" validate:"required,min=1"`
	Purpose string `json:"purpose" validate:"omitempty,max=128"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" validate:"required,max=128"`
	PaymentID string `json:"payment_id" validate:"required,max=128"`
	Signature string `json:"signature" validate:"required,len=64,hexadecimal"`
	Amount    int64  `json:"amount" validate:"required,min=1"`
	Purpose   string `json:"purpose" validate:"omitempty,max=128"`
}
