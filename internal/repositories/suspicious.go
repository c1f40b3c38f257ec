package repositories

import (
	"context"
	"errors"
	"fmt"

	"upiswitch/internal/models"

	"gorm.io/gorm"
)

// SuspiciousEntityRepository is the blocklist store consulted by the rule
// stage of the fraud pipeline.
type SuspiciousEntityRepository interface {
	// FindByEntityValue returns the blocklist row for a value, or nil when
	// the value is unknown. Store errors are returned as-is; the rule stage
	// fails closed on them.
	FindByEntityValue(ctx context.Context, value string) (*models.SuspiciousEntity, error)
}

type suspiciousEntityRepository struct {
	db *gorm.DB
}

// NewSuspiciousEntityRepository creates a blocklist repository backed by gorm.
func NewSuspiciousEntityRepository(db *gorm.DB) SuspiciousEntityRepository {
	if db == nil {
		panic("db is required")
	}
	return &suspiciousEntityRepository{db: db}
}

func (r *suspiciousEntityRepository) FindByEntityValue(ctx context.Context, value string) (*models.SuspiciousEntity, error) {
	var entity models.SuspiciousEntity
	err := r.db.WithContext(ctx).Where("entity_value = ?", value).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("blocklist lookup: %w", err)
	}
	return &entity, nil
}
