package errors

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/docuforms/wallet-service/internal/constants"
	"github.com/docuforms/wallet-service/internal/service"
)

func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var serviceErr service.Error
		if errors.As(err, &serviceErr) {
			return handleServiceError(c, serviceErr)
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":    constants.ErrCodeOperationFailed,
			"message": "Could not process the request",
		})
	}
}

func handleServiceError(c *fiber.Ctx, err service.Error) error {
	statusMap := map[string]int{
		constants.ErrCodeAccountNotFound:     fiber.StatusNotFound,
		constants.ErrCodePricingNotFound:     fiber.StatusNotFound,
		constants.ErrCodeActionDisabled:      fiber.StatusBadRequest,
		constants.ErrCodeInsufficientBalance: fiber.StatusPaymentRequired,
		constants.ErrCodeConcurrentConflict:  fiber.StatusConflict,
		constants.ErrCodeInvalidSignature:    fiber.StatusBadRequest,
		constants.ErrCodeDuplicatePayment:    fiber.StatusConflict,
		constants.ErrCodeGatewayUnavailable:  fiber.StatusBadGateway,
		constants.ErrCodeLedgerInconsistency: fiber.StatusInternalServerError,
		constants.ErrCodeOperationFailed:     fiber.StatusInternalServerError,
	}

	status, ok := statusMap[err.Code]
	if !ok {
		status = fiber.StatusInternalServerError
	}

	body := fiber.Map{
		"code":    err.Code,
		"message": constants.GetErrorMessage(err.Code),
	}

	// Policy rejections carry enough detail to act on; infrastructure
	// faults stay generic.
	var insufficient service.InsufficientFundsError
	if errors.As(err, &insufficient) {
		body["required"] = insufficient.Required
		body["available"] = insufficient.Available
	}

	return c.Status(status).JSON(body)
}
