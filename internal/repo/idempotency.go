// Package repo implements the data persistence layer for issues, backed by
// GORM. This file provides the IdempotencyRepo used to implement safe-retry
// semantics for POST /issues.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-issue-tracker/internal/domain"
)

// ErrDuplicate indicates that an idempotency record already exists for the key.
var ErrDuplicate = errors.New("duplicate")

// IdempotencyRepo stores Idempotency-Key outcomes.
type IdempotencyRepo struct {
	db *gorm.DB
}

// NewIdempotencyRepo constructs an IdempotencyRepo over db.
func NewIdempotencyRepo(db *gorm.DB) *IdempotencyRepo {
	return &IdempotencyRepo{db: db}
}

// Get returns a non-expired record for key or ErrNotFound.
func (r *IdempotencyRepo) Get(ctx context.Context, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create records key → issueID for ttl. An expired record for the same key is
// replaced; a live one yields ErrDuplicate.
func (r *IdempotencyRepo) Create(ctx context.Context, key, issueID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		Key:       key,
		IssueID:   issueID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key = ? AND expires_at <= ?", key, now).Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") ||
			strings.Contains(low, "duplicate key value") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
