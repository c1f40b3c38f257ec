package models

import "time"

// Suspicious entity kinds
const (
	EntityKindIP     = "IP"
	EntityKindDevice = "DEVICE"
)

// SuspiciousEntity is a blocklist row consulted by the rule stage of the
// fraud pipeline. An entity is blocked while BlockedUntil lies in the future.
type SuspiciousEntity struct {
	ID           uint       `gorm:"primaryKey"`
	EntityValue  string     `gorm:"column:entity_value;uniqueIndex;not null"`
	EntityKind   string     `gorm:"column:entity_kind"`
	Reason       string     `gorm:"column:reason"`
	BlockedUntil *time.Time `gorm:"column:blocked_until"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
}

// TableName names the blocklist table.
func (SuspiciousEntity) TableName() string { return "suspicious_entities" }

// BlockedAt reports whether the entity is blocked at the given instant.
func (e *SuspiciousEntity) BlockedAt(now time.Time) bool {
	return e.BlockedUntil != nil && e.BlockedUntil.After(now)
}
