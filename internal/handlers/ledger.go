package handlers

import (
	"time"

	"upiswitch/internal/repositories"
	"upiswitch/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// LedgerHandler serves account statements from the ledger store.
type LedgerHandler struct {
	ledger repositories.LedgerRepository
}

// NewLedgerHandler creates a ledger handler.
func NewLedgerHandler(ledger repositories.LedgerRepository) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Statement returns ledger entries for an account over an inclusive date
// range, defaulting to the last 30 days.
func (h *LedgerHandler) Statement(c *fiber.Ctx) error {
	account := c.Params("account")
	if account == "" {
		return utils.BadRequest(c, "account is required")
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return utils.BadRequest(c, "invalid from timestamp")
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return utils.BadRequest(c, "invalid to timestamp")
		}
		to = t
	}

	entries, err := h.ledger.Statement(c.Context(), account, from, to)
	if err != nil {
		return utils.ServerError(c, "statement lookup failed")
	}
	return utils.Success(c, "Statement", entries)
}
