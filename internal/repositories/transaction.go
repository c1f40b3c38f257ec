package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"upiswitch/internal/models"

	"gorm.io/gorm"
)

// ErrTransactionNotFound signals a lookup miss for a global transaction id.
var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepository persists SwitchTransaction records.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.SwitchTransaction) error
	Save(ctx context.Context, txn *models.SwitchTransaction) error
	FindByID(ctx context.Context, globalTxnID string) (*models.SwitchTransaction, error)
	CountByDeviceSince(ctx context.Context, deviceID string, since time.Time) (int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository backed by gorm.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	if db == nil {
		panic("db is required")
	}
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.SwitchTransaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("create transaction %s: %w", txn.GlobalTxnID, err)
	}
	return nil
}

func (r *transactionRepository) Save(ctx context.Context, txn *models.SwitchTransaction) error {
	if err := r.db.WithContext(ctx).Save(txn).Error; err != nil {
		return fmt.Errorf("save transaction %s: %w", txn.GlobalTxnID, err)
	}
	return nil
}

func (r *transactionRepository) FindByID(ctx context.Context, globalTxnID string) (*models.SwitchTransaction, error) {
	var txn models.SwitchTransaction
	err := r.db.WithContext(ctx).Where("global_txn_id = ?", globalTxnID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("find transaction %s: %w", globalTxnID, err)
	}
	return &txn, nil
}

// CountByDeviceSince counts transactions originating from a device after the
// given instant. Served by the (sender_device_id, created_at) index.
func (r *transactionRepository) CountByDeviceSince(ctx context.Context, deviceID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SwitchTransaction{}).
		Where("sender_device_id = ? AND created_at >= ?", deviceID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count device transactions: %w", err)
	}
	return count, nil
}
