package router

import (
	"time"

	"upiswitch/internal/models"
)

// RouterConfig holds routing policy knobs.
type RouterConfig struct {
	// RateLimitCeiling is the maximum number of transactions a single
	// device may originate within RateLimitWindow.
	RateLimitCeiling int
	RateLimitWindow  time.Duration

	// CallTimeout bounds every external call on the routing path. A timeout
	// is treated like any other transport error: indeterminate, PENDING.
	CallTimeout time.Duration

	// DeemApprovedOnIndeterminate selects the terminal status for
	// indeterminate bank outcomes: true presumes money moved
	// (DEEMED_APPROVED), false leaves the transaction PENDING for
	// reconciliation.
	DeemApprovedOnIndeterminate bool
}

// ApprovalRequest carries the payer-side data needed to execute a
// pre-created money request.
type ApprovalRequest struct {
	MPINHash   string               `json:"mpinHash"`
	FraudCheck *models.FraudContext `json:"fraudCheckData,omitempty"`
}
