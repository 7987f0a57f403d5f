package v1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/docuforms/wallet-service/internal/api/contract"
	"github.com/docuforms/wallet-service/internal/api/v1/middleware"
	"github.com/docuforms/wallet-service/internal/api/validator"
	"github.com/docuforms/wallet-service/internal/constants"
	"github.com/docuforms/wallet-service/internal/metrics"
	"github.com/docuforms/wallet-service/internal/service"
)

type Handler struct {
	logger        *zap.Logger
	walletService service.WalletService
	topUpService  service.TopUpService
	XValidator    validator.IXValidator
	metrics       *metrics.Metrics
}

func NewHandler(logger *zap.Logger, walletService service.WalletService, topUpService service.TopUpService, XValidator validator.IXValidator, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:        logger,
		walletService: walletService,
		topUpService:  topUpService,
		XValidator:    XValidator,
		metrics:       metrics,
	}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *Handler) Deduct(c *fiber.Ctx) error {
	start := time.Now()

	var handlerRequest DeductRequest
	responseError := h.XValidator.Validator(&handlerRequest, constants.MessageErrorFormat, c)
	if responseError.Code != "" {
		h.logger.Warn("Deduct request failed validation", zap.Any("request", handlerRequest))
		return c.JSON(responseError)
	}

	cmd := service.DeductCommand{
		UserID:     middleware.CallerID(c),
		ActionType: handlerRequest.ActionType,
		Reference:  handlerRequest.Reference,
	}

	result, err := h.walletService.Deduct(c.UserContext(), cmd)
	if err != nil {
		return err
	}

	h.logger.Info("Deduction completed",
		zap.String("user_id", cmd.UserID),
		zap.String("action_type", cmd.ActionType),
		zap.Int64("deducted", result.Deducted),
		zap.Duration("duration", time.Since(start)))

	return c.JSON(contract.Response{Code: "success", Message: "balance deducted", Result: result})
}

func (h *Handler) CreateTopUpOrder(c *fiber.Ctx) error {
	var handlerRequest CreateTopUpOrderRequest
	responseError := h.XValidator.Validator(&handlerRequest, constants.MessageErrorFormat, c)
	if responseError.Code != "" {
		h.logger.Warn("Top-up order request failed validation", zap.Any("request", handlerRequest))
		return c.JSON(responseError)
	}

	cmd := service.CreateOrderCommand{
		UserID:  middleware.CallerID(c),
		Amount:  handlerRequest.Amount,
		Purpose: handlerRequest.Purpose,
	}

	result, err := h.topUpService.CreateOrder(c.UserContext(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(contract.Response{Code: "success", Message: "top-up order created", Result: result})
}

func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	start := time.Now()

	var handlerRequest VerifyPaymentRequest
	responseError := h.XValidator.Validator(&handlerRequest, constants.MessageErrorFormat, c)
	if responseError.Code != "" {
		h.logger.Warn("Verify request failed validation",
			zap.String("order_id", handlerRequest.OrderID),
			zap.String("payment_id", handlerRequest.PaymentID))
		return c.JSON(responseError)
	}

	cmd := service.VerifyPaymentCommand{
		UserID:    middleware.CallerID(c),
		OrderID:   handlerRequest.OrderID,
		PaymentID: handlerRequest.PaymentID,
		Signature: handlerRequest.Signature,
		Amount:    handlerRequest.Amount,
		Purpose:   handlerRequest.Purpose,
	}

	result, err := h.topUpService.VerifyAndCredit(c.UserContext(), cmd)
	if err != nil {
		return err
	}

	message := "payment verified and credited"
	if result.Replayed {
		message = "payment already processed"
	}

	h.logger.Info("Payment settled",
		zap.String("user_id", cmd.UserID),
		zap.String("payment_id", cmd.PaymentID),
		zap.Bool("replayed", result.Replayed),
		zap.Duration("duration", time.Since(start)))

	return c.JSON(contract.Response{Code: "success", Message: message, Result: result})
}

func (h *Handler) GetBalance(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	account, err := h.walletService.GetBalance(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(contract.Response{Code: "success", Result: fiber.Map{
		"user_id": account.UserID,
		"balance": account.Balance,
	}})
}

func (h *Handler) GetStatement(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)

	statement, err := h.walletService.GetStatement(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(contract.Response{Code: "success", Result: statement})
}
