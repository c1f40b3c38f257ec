// Package handlers exposes the switch's HTTP surface: payment routing, the
// request-money flow, ledger statements, bank liveness and incident
// response. Handlers stay thin; all decisions live in the services.
package handlers

import (
	"errors"

	"upiswitch/internal/clients/bank"
	"upiswitch/internal/models"
	"upiswitch/internal/repositories"
	"upiswitch/internal/services/router"
	"upiswitch/internal/utils"
	"upiswitch/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler serves the payment routing endpoints.
type PaymentHandler struct {
	router router.Service
}

// NewPaymentHandler creates a payment handler.
func NewPaymentHandler(svc router.Service) *PaymentHandler {
	return &PaymentHandler{router: svc}
}

// Pay routes a payment intent. Every outcome, including failures, carries
// the stable transaction id so the caller can query status instead of
// blindly retrying.
func (h *PaymentHandler) Pay(c *fiber.Ctx) error {
	var req models.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := validation.ValidatePaymentRequest(&req); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	result, err := h.router.Route(c.Context(), &req)
	if err != nil {
		return mapRoutingError(c, err)
	}
	return c.JSON(result)
}

// GetTransaction returns the durable record for a transaction id.
func (h *PaymentHandler) GetTransaction(c *fiber.Ctx) error {
	txn, err := h.router.GetTransaction(c.Context(), c.Params("txnId"))
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "transaction not found")
		}
		return utils.ServerError(c, "lookup failed")
	}
	return c.JSON(txn)
}

func mapRoutingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, router.ErrRateLimited):
		return utils.Error(c, fiber.StatusTooManyRequests, "Too many transactions from this device. Please try again later.")
	case errors.Is(err, router.ErrNotRequested):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, repositories.ErrTransactionNotFound):
		return utils.Error(c, fiber.StatusNotFound, "transaction not found")
	case errors.Is(err, bank.ErrUnknownInstitution):
		return utils.ServerError(c, err.Error())
	case errors.Is(err, router.ErrScreeningUnavailable):
		return utils.Error(c, fiber.StatusServiceUnavailable, "Fraud screening unavailable. Please retry with the same transaction id.")
	default:
		return utils.ServerError(c, "routing failed")
	}
}
