package gateway

import "errors"

const (
	StatusOK              = 200
	StatusBadRequest      = 400
	StatusUnauthorized    = 401
	StatusTooManyRequests = 429
)

const (
	ErrCodeInvalidOrder     = "INVALID_ORDER"
	ErrCodeAuthFailed       = "AUTH_FAILED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeServerError      = "SERVER_ERROR"
	ErrCodeCircuitOpen      = "CIRCUIT_OPEN"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
)

var (
	ErrInvalidOrder     = errors.New(ErrCodeInvalidOrder)
	ErrAuthFailed       = errors.New(ErrCodeAuthFailed)
	ErrRateLimited      = errors.New(ErrCodeRateLimited)
	ErrTimeout          = errors.New(ErrCodeTimeout)
	ErrServerError      = errors.New(ErrCodeServerError)
	ErrCircuitOpen      = errors.New(ErrCodeCircuitOpen)
	ErrInvalidSignature = errors.New(ErrCodeInvalidSignature)
)

var statusErrorMap = map[int]error{
	StatusBadRequest:      ErrInvalidOrder,
	StatusUnauthorized:    ErrAuthFailed,
	StatusTooManyRequests: ErrRateLimited,
}

func MapStatusToError(statusCode int) error {
	if err, exists := statusErrorMap[statusCode]; exists {
		return err
	}

	return ErrServerError
}
