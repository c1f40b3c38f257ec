package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses
const (
	StatusRequested      = "REQUESTED"
	StatusPending        = "PENDING"
	StatusSuccess        = "SUCCESS"
	StatusFailed         = "FAILED"
	StatusBlockedFraud   = "BLOCKED_FRAUD"
	StatusDeemedApproved = "DEEMED_APPROVED"
)

// IsTerminalStatus reports whether a transaction status admits no further
// transition.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusSuccess, StatusFailed, StatusBlockedFraud, StatusDeemedApproved:
		return true
	}
	return false
}

// FraudContext is the signal bundle captured at payment initiation and fed
// into the fraud pipeline. Field names follow the interchange format used by
// the gateway and the institution adapters.
type FraudContext struct {
	IPAddress  string    `json:"ipAddress"`
	DeviceID   string    `json:"deviceId"`
	GeoLat     float64   `json:"geoLat,omitempty"`
	GeoLong    float64   `json:"geoLong,omitempty"`
	WifiSSID   string    `json:"wifiSsid,omitempty"`
	ClientTime time.Time `json:"clientTime,omitempty"`
}

// PaymentRequest is the immutable payment intent routed by the switch.
// TxnID is the global transaction id and the idempotency key for the whole
// network; when empty the router assigns one.
type PaymentRequest struct {
	TxnID      string          `json:"txnId"`
	PayerVPA   string          `json:"payerVpa" validate:"required"`
	PayeeVPA   string          `json:"payeeVpa" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	MPINHash   string          `json:"mpinHash"`
	FraudCheck *FraudContext   `json:"fraudCheckData,omitempty"`
}

// DeviceID returns the device identifier from the fraud context, if any.
func (r *PaymentRequest) DeviceID() string {
	if r.FraudCheck == nil {
		return ""
	}
	return r.FraudCheck.DeviceID
}

// TransactionResult is the outcome returned to the caller and exchanged with
// the institution adapters. BalanceAfter is reported by adapters on
// successful debits/credits for the ledger's audit trail.
type TransactionResult struct {
	TxnID        string           `json:"txnId"`
	Status       string           `json:"status"`
	Message      string           `json:"message"`
	RiskScore    float64          `json:"riskScore,omitempty"`
	BalanceAfter *decimal.Decimal `json:"balanceAfter,omitempty"`
}
