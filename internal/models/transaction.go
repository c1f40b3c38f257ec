package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Risk flags persisted on a transaction
const (
	RiskFlagSafe   = "SAFE"
	RiskFlagReview = "REVIEW"
	RiskFlagBlock  = "BLOCK"
)

// SwitchTransaction is the durable transaction record and the system of
// record for reconciliation and for the fan-in/velocity fraud queries.
// Keyed by the global transaction id; mutated once per terminal transition,
// never deleted.
type SwitchTransaction struct {
	GlobalTxnID string          `gorm:"primaryKey;column:global_txn_id"`
	PayerVPA    string          `gorm:"column:payer_vpa;not null;index:idx_txn_payer_time,priority:1"`
	PayeeVPA    string          `gorm:"column:payee_vpa;not null;index:idx_txn_payee_time,priority:1"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null"`

	// Routing
	PayerBank string `gorm:"column:payer_bank"`
	PayeeBank string `gorm:"column:payee_bank"`

	// Fraud signals
	SenderIP       string `gorm:"column:sender_ip"`
	SenderDeviceID string `gorm:"column:sender_device_id;index:idx_txn_device_time,priority:1"`

	// Risk verdict
	FraudScore decimal.Decimal `gorm:"type:numeric(5,4);column:ml_fraud_score"`
	RiskFlag   string          `gorm:"column:risk_flag"`
	RiskStage  string          `gorm:"column:risk_stage"`

	Status    string    `gorm:"index:idx_txn_status;not null"`
	Message   string    `gorm:"column:message"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_txn_created;index:idx_txn_payer_time,priority:2;index:idx_txn_payee_time,priority:2;index:idx_txn_device_time,priority:2"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName keeps the table name shared with the reconciliation jobs.
func (SwitchTransaction) TableName() string { return "transactions" }

// Result projects the persisted record into the outcome returned on
// idempotent replay.
func (t *SwitchTransaction) Result() *TransactionResult {
	return &TransactionResult{
		TxnID:     t.GlobalTxnID,
		Status:    t.Status,
		Message:   t.Message,
		RiskScore: t.FraudScore.InexactFloat64(),
	}
}
