package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"upiswitch/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrDuplicateEntry signals that a ledger entry with the same
// (globalTxnId, accountNumber, direction) triple already exists. Callers
// treat it as success-equivalent: the original entry stands.
var ErrDuplicateEntry = errors.New("duplicate ledger entry")

const ledgerSequenceRow = 1

// LedgerRepository is the append-only ledger store. Entries are immutable
// once written; there is deliberately no update or delete method.
type LedgerRepository interface {
	NextSequence(ctx context.Context) (int64, error)
	RecordEntry(ctx context.Context, globalTxnID, accountNumber, direction string, amount, balanceAfter decimal.Decimal) (*models.LedgerEntry, error)
	Statement(ctx context.Context, accountNumber string, from, to time.Time) ([]models.LedgerEntry, error)
	ReversalLookup(ctx context.Context, globalTxnID, direction string) ([]models.LedgerEntry, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a ledger repository backed by gorm.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	if db == nil {
		panic("db is required")
	}
	return &ledgerRepository{db: db}
}

// NextSequence allocates a monotonically increasing id from the durable
// counter row. The RETURNING clause keeps increment and read atomic.
func (r *ledgerRepository) NextSequence(ctx context.Context) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).
		Raw("UPDATE ledger_sequences SET value = value + 1 WHERE id = ? RETURNING value", ledgerSequenceRow).
		Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("allocate ledger sequence: %w", err)
	}
	return value, nil
}

// RecordEntry appends a new ledger row. The database uniqueness constraint,
// not application locking, enforces idempotency: retries fail cleanly with
// ErrDuplicateEntry even after a process restart.
func (r *ledgerRepository) RecordEntry(ctx context.Context, globalTxnID, accountNumber, direction string, amount, balanceAfter decimal.Decimal) (*models.LedgerEntry, error) {
	seq, err := r.NextSequence(ctx)
	if err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		LedgerID:      seq,
		GlobalTxnID:   globalTxnID,
		AccountNumber: accountNumber,
		Direction:     direction,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		CreatedAt:     time.Now(),
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEntry
		}
		return nil, fmt.Errorf("record ledger entry: %w", err)
	}
	return entry, nil
}

// Statement returns entries for the account within the inclusive range,
// newest first.
func (r *ledgerRepository) Statement(ctx context.Context, accountNumber string, from, to time.Time) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_number = ? AND created_at BETWEEN ? AND ?", accountNumber, from, to).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("ledger statement: %w", err)
	}
	return entries, nil
}

// ReversalLookup returns the entries matching a direction for a transaction,
// used to confirm whether a compensating reversal is still outstanding.
func (r *ledgerRepository) ReversalLookup(ctx context.Context, globalTxnID, direction string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("global_txn_id = ? AND direction = ?", globalTxnID, direction).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("ledger reversal lookup: %w", err)
	}
	return entries, nil
}
