package handlers

import (
	"upiswitch/internal/clients/bank"
	"upiswitch/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler serves service and institution liveness.
type HealthHandler struct {
	bank *bank.Client
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(bankClient *bank.Client) *HealthHandler {
	return &HealthHandler{bank: bankClient}
}

// Health reports switch liveness.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// BankHealth probes an institution adapter. Probe failures are reported, not
// propagated.
func (h *HealthHandler) BankHealth(c *fiber.Ctx) error {
	handle := c.Params("handle")
	if handle == "" {
		return utils.BadRequest(c, "handle is required")
	}
	return c.JSON(fiber.Map{
		"bank":    handle,
		"healthy": h.bank.HealthCheck(c.Context(), handle),
	})
}
