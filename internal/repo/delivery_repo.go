// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Delivery
// model used to deduplicate retried webhook deliveries.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldwerk/go-report-backend/internal/domain"
)

// SeenDelivery reports whether a non-expired delivery row exists for
// (groupID, updateID).
func SeenDelivery(ctx context.Context, db *gorm.DB, groupID, updateID int64, now time.Time) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Delivery{}).
		Where("group_id = ? AND update_id = ? AND expires_at > ?", groupID, updateID, now).
		Count(&n).Error
	return n > 0, err
}

// RecordDelivery inserts a delivery row. A duplicate insert (the same
// update replayed concurrently) returns ErrDuplicate.
func RecordDelivery(ctx context.Context, db *gorm.DB, groupID, updateID int64, ttl time.Duration) error {
	now := time.Now().UTC()
	rec := &domain.Delivery{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		UpdateID:  updateID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// PurgeExpiredDeliveries removes rows whose TTL has elapsed. Best-effort
// housekeeping; callers may ignore the count.
func PurgeExpiredDeliveries(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.Delivery{})
	return res.RowsAffected, res.Error
}
