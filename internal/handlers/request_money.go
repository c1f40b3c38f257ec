package handlers

import (
	"errors"

	"upiswitch/internal/repositories"
	"upiswitch/internal/services/router"
	"upiswitch/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// RequestMoneyHandler serves the deferred request-money flow: a payee
// pre-creates a transaction, the payer later approves it under the same id.
type RequestMoneyHandler struct {
	router router.Service
}

// NewRequestMoneyHandler creates a request-money handler.
func NewRequestMoneyHandler(svc router.Service) *RequestMoneyHandler {
	return &RequestMoneyHandler{router: svc}
}

type initiateRequest struct {
	RequesterVPA string          `json:"requesterVpa"`
	PayerVPA     string          `json:"payerVpa"`
	Amount       decimal.Decimal `json:"amount"`
}

// Initiate creates a REQUESTED transaction on behalf of the payee.
func (h *RequestMoneyHandler) Initiate(c *fiber.Ctx) error {
	var req initiateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if req.RequesterVPA == "" || req.PayerVPA == "" || !req.Amount.IsPositive() {
		return utils.BadRequest(c, "requesterVpa, payerVpa and a positive amount are required")
	}

	txn, err := h.router.InitiateRequest(c.Context(), req.RequesterVPA, req.PayerVPA, req.Amount)
	if err != nil {
		return utils.ServerError(c, "failed to create money request")
	}
	return utils.Success(c, "Request sent", fiber.Map{"txnId": txn.GlobalTxnID})
}

// Approve executes a pending money request with the payer's credential.
func (h *RequestMoneyHandler) Approve(c *fiber.Ctx) error {
	var approval router.ApprovalRequest
	if err := c.BodyParser(&approval); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	result, err := h.router.ApproveRequest(c.Context(), c.Params("txnId"), approval)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "transaction not found")
		}
		return mapRoutingError(c, err)
	}
	return c.JSON(result)
}
