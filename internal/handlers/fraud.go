package handlers

import (
	"upiswitch/internal/services/fraud"
	"upiswitch/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// FraudHandler serves the incident-response endpoints.
type FraudHandler struct {
	fraud fraud.Service
}

// NewFraudHandler creates a fraud handler.
func NewFraudHandler(svc fraud.Service) *FraudHandler {
	return &FraudHandler{fraud: svc}
}

type blockRingRequest struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// BlockRing runs the mule-ring kill switch for a confirmed-fraud pair.
func (h *FraudHandler) BlockRing(c *fiber.Ctx) error {
	var req blockRingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if req.SourceID == "" || req.TargetID == "" {
		return utils.BadRequest(c, "sourceId and targetId are required")
	}

	if err := h.fraud.BlockMuleRing(c.Context(), req.SourceID, req.TargetID); err != nil {
		return utils.Error(c, fiber.StatusBadGateway, "ring takedown incomplete: "+err.Error())
	}
	return utils.Success(c, "Ring blocked", nil)
}
