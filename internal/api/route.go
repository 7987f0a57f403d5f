package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	v1 "github.com/docuforms/wallet-service/internal/api/v1"
	"github.com/docuforms/wallet-service/internal/api/v1/middleware"
	"github.com/docuforms/wallet-service/internal/config"
)

const prefixV1 = "/api/v1"

func SetupRoutes(app *fiber.App, handler *v1.Handler, cfg *config.Config, logger *zap.Logger) {
	app.Get("/ping", handler.Pong)

	wallet := app.Group(prefixV1+"/wallet", middleware.Authenticate(cfg.Auth.JWTSecret, logger))
	wallet.Post("/deduct", handler.Deduct)
	wallet.Post("/topup/order", handler.CreateTopUpOrder)
	wallet.Post("/topup/verify", handler.VerifyPayment)
	wallet.Get("/balance", handler.GetBalance)
	wallet.Get("/transactions", handler.GetStatement)
}
