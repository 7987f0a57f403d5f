package service

import "fmt"

func NewServiceError(code string, cause error) error {
	return Error{
		Code:  code,
		Cause: cause,
	}
}

type Error struct {
	Code  string
	Cause error
}

func (e Error) Error() string {
	return e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}

// InsufficientFundsError reports the shortfall so the caller can tell
// the user exactly how much is missing.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: required %d, available %d", e.Required, e.Available)
}
