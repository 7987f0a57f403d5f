package constants

const MessageErrorFormat = "The '%s' format is invalid"

const (
	ErrCodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	ErrCodePricingNotFound     = "PRICING_NOT_FOUND"
	ErrCodeActionDisabled      = "ACTION_DISABLED"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeConcurrentConflict  = "CONCURRENT_UPDATE_CONFLICT"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeDuplicatePayment    = "DUPLICATE_PAYMENT"
	ErrCodeGatewayUnavailable  = "GATEWAY_UNAVAILABLE"
	ErrCodeLedgerInconsistency = "LEDGER_INCONSISTENCY"
	ErrCodeOperationFailed     = "OPERATION_FAILED"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
)

const (
	ErrMsgAccountNotFound     = "wallet account not found"
	ErrMsgPricingNotFound     = "no price entry for the requested action"
	ErrMsgActionDisabled      = "the requested action is disabled"
	ErrMsgInsufficientBalance = "insufficient balance"
	ErrMsgConcurrentConflict  = "balance was modified concurrently, try again"
	ErrMsgInvalidSignature    = "payment signature verification failed"
	ErrMsgDuplicatePayment    = "payment was already processed with a different amount"
	ErrMsgGatewayUnavailable  = "payment gateway is unavailable, try again later"
	ErrMsgLedgerInconsistency = "wallet could not be settled, support has been notified"
	ErrMsgOperationFailed     = "operation failed"
)

var errorMessages = map[string]string{
	ErrCodeAccountNotFound:     ErrMsgAccountNotFound,
	ErrCodePricingNotFound:     ErrMsgPricingNotFound,
	ErrCodeActionDisabled:      ErrMsgActionDisabled,
	ErrCodeInsufficientBalance: ErrMsgInsufficientBalance,
	ErrCodeConcurrentConflict:  ErrMsgConcurrentConflict,
	ErrCodeInvalidSignature:    ErrMsgInvalidSignature,
	ErrCodeDuplicatePayment:    ErrMsgDuplicatePayment,
	ErrCodeGatewayUnavailable:  ErrMsgGatewayUnavailable,
	ErrCodeLedgerInconsistency: ErrMsgLedgerInconsistency,
	ErrCodeOperationFailed:     ErrMsgOperationFailed,
}

func GetErrorMessage(code string) string {
	msg, exists := errorMessages[code]
	if !exists {
		return ErrMsgOperationFailed
	}
	return msg
}
