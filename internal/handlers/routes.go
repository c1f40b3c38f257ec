package handlers

import (
	"upiswitch/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the HTTP handlers wired by SetupRoutes.
type Handlers struct {
	Payment      *PaymentHandler
	RequestMoney *RequestMoneyHandler
	Ledger       *LedgerHandler
	Fraud        *FraudHandler
	Health       *HealthHandler
}

// SetupRoutes registers the switch's API surface.
func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.ServiceAuth) {
	app.Get("/health", h.Health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/switch", auth.Handler)
	api.Post("/pay", h.Payment.Pay)
	api.Get("/txn/:txnId", h.Payment.GetTransaction)
	api.Post("/request/initiate", h.RequestMoney.Initiate)
	api.Post("/request/approve/:txnId", h.RequestMoney.Approve)
	api.Get("/ledger/:account/statement", h.Ledger.Statement)
	api.Get("/bank/:handle/health", h.Health.BankHealth)

	internal := app.Group("/api/internal", auth.Handler)
	internal.Post("/fraud/block-ring", h.Fraud.BlockRing)
}
