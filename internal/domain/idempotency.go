package domain

import "time"

// Idempotency records the outcome of a create request that carried an
// Idempotency-Key header, so a retry with the same key within the TTL returns
// the issue created the first time instead of inserting a duplicate.
type Idempotency struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_idempotency_key"`
	IssueID   string    `gorm:"type:char(36);not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency_keys" }
