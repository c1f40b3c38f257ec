package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry directions
const (
	DirectionDebit  = "DEBIT"
	DirectionCredit = "CREDIT"
)

// LedgerEntry is an immutable, append-only bookkeeping row. The composite
// unique index over (global_txn_id, account_number, direction) is the
// idempotency backstop that makes retried router calls safe: a replay either
// observes the original row or a duplicate-key rejection, never a second
// entry. A reversal is a new entry with the opposite direction under the
// same global transaction id.
type LedgerEntry struct {
	LedgerID      int64           `gorm:"primaryKey;autoIncrement:false;column:ledger_id"`
	GlobalTxnID   string          `gorm:"column:global_txn_id;not null;uniqueIndex:uq_ledger_txn_account_direction,priority:1;index:idx_ledger_txn_direction,priority:1"`
	AccountNumber string          `gorm:"column:account_number;not null;uniqueIndex:uq_ledger_txn_account_direction,priority:2;index:idx_ledger_account_time,priority:1"`
	Direction     string          `gorm:"not null;uniqueIndex:uq_ledger_txn_account_direction,priority:3;index:idx_ledger_txn_direction,priority:2"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(18,2);column:balance_after"`
	CreatedAt     time.Time       `gorm:"column:created_at;index:idx_ledger_account_time,priority:2"`
}

// TableName matches the schema owned by the ledger.
func (LedgerEntry) TableName() string { return "account_ledger" }

// LedgerSequence is the durable counter backing sequence allocation. A single
// row holds the high-water mark; allocation increments it atomically.
type LedgerSequence struct {
	ID    int64 `gorm:"primaryKey"`
	Value int64 `gorm:"not null"`
}

// TableName names the counter table.
func (LedgerSequence) TableName() string { return "ledger_sequences" }
