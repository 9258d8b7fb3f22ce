// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Report
// model: the record store behind the form and status flows.
//
// All functions accept a context and a *gorm.DB handle, making them safe
// for use within transactions or connection-scoped operations. They follow
// the "thin repository" approach: no business logic, only CRUD persistence
// and query composition.
//
// Addressing: every operation is scoped by the (group_id, message_id) key.
// A write targeting a key outside the caller's group matches zero rows, so
// group isolation holds without any in-process locking.
//
// Error semantics:
//   - Missing rows surface as ErrNotFound (gorm.ErrRecordNotFound).
//   - Unique violations on (message_id, group_id) surface as ErrDuplicate.
//   - UpdateReportField rejects columns outside the allow-list with
//     ErrInvalidField. The allow-list is a hard boundary against
//     arbitrary-column injection, not a convenience check.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fieldwerk/go-report-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a (message_id, group_id) collision on insert.
var ErrDuplicate = errors.New("report already exists for message in group")

// ErrInvalidField is returned when an update targets a column outside the
// mutable-field allow-list. This is a programming-contract violation, not
// bad operator input, and must not be swallowed.
var ErrInvalidField = errors.New("field is not mutable")

// ErrInvalidStatus is returned when a status write carries a value outside
// the pending/done enumeration.
var ErrInvalidStatus = errors.New("invalid status value")

// mutableColumns maps the accepted field names to their columns. Only
// these five columns may ever be touched by UpdateReportField.
var mutableColumns = map[string]string{
	domain.FieldClientName:    "client_name",
	domain.FieldAddress:       "address",
	domain.FieldExtraNotes:    "extra_notes",
	domain.FieldMaterials:     "materials",
	domain.FieldScheduledDate: "scheduled_date",
}

// isUniqueViolation reports whether err is a unique-constraint failure.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations,
// so the gorm translation is backed by a string sniff.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateReport inserts a new report row addressed by (groupID, messageID)
// with status pending and CreatedAt set to UTC now. An empty scheduled
// date in the draft is stored as the undefined sentinel.
//
// Returns ErrDuplicate when the addressing key already exists.
func CreateReport(ctx context.Context, db *gorm.DB, groupID, messageID int64, d domain.ReportDraft) (*domain.Report, error) {
	scheduled := d.ScheduledDate
	if scheduled == "" {
		scheduled = domain.ScheduledDateUndefined
	}
	r := &domain.Report{
		MessageID:     messageID,
		GroupID:       groupID,
		ClientName:    d.ClientName,
		Address:       d.Address,
		ExtraNotes:    d.ExtraNotes,
		Materials:     d.Materials,
		ScheduledDate: scheduled,
		Status:        domain.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return r, nil
}

// GetReport fetches a single report by its addressing key, or ErrNotFound.
func GetReport(ctx context.Context, db *gorm.DB, groupID, messageID int64) (*domain.Report, error) {
	var r domain.Report
	err := db.WithContext(ctx).
		Where("message_id = ? AND group_id = ?", messageID, groupID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReportField sets one mutable column of a report. Field names
// outside the allow-list fail with ErrInvalidField before any SQL runs.
// A key that matches no row in the caller's group returns ErrNotFound.
func UpdateReportField(ctx context.Context, db *gorm.DB, groupID, messageID int64, field, value string) error {
	col, ok := mutableColumns[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("message_id = ? AND group_id = ?", messageID, groupID).
		Update(col, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateReportStatus sets the status of a report. The write is idempotent:
// setting the status a report already has is a successful no-op. Values
// outside the enumeration are rejected with ErrInvalidStatus.
func UpdateReportStatus(ctx context.Context, db *gorm.DB, groupID, messageID int64, status string) error {
	if !domain.ValidStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("message_id = ? AND group_id = ?", messageID, groupID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Some drivers report zero affected rows when the stored value is
		// unchanged; only a genuinely missing key is an error.
		var n int64
		if err := db.WithContext(ctx).
			Model(&domain.Report{}).
			Where("message_id = ? AND group_id = ?", messageID, groupID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// DeleteReport removes at most one row. Deleting a key that does not exist
// in the caller's group is a no-op success, not an error.
func DeleteReport(ctx context.Context, db *gorm.DB, groupID, messageID int64) error {
	return db.WithContext(ctx).
		Where("message_id = ? AND group_id = ?", messageID, groupID).
		Delete(&domain.Report{}).Error
}

// CountReports returns the total number of reports in a group. A raw COUNT
// is used so a missing table surfaces as an error.
func CountReports(ctx context.Context, db *gorm.DB, groupID int64) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM reports WHERE group_id = ?", groupID).
		Scan(&total).Error
	return total, err
}

// ListReportsPage returns a paginated slice of a group's reports ordered
// newest first. Ordering is deterministic even when CreatedAt collides
// (id descending tie-break), so a record never straddles two pages.
func ListReportsPage(ctx context.Context, db *gorm.DB, groupID int64, offset, limit int) ([]domain.Report, error) {
	var out []domain.Report
	err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ReassignReportGroup moves a single row's group key after the hosting
// platform renumbered the group. This is the only path that ever changes
// a report's group. Returns ErrNotFound when no row matched the old key.
func ReassignReportGroup(ctx context.Context, db *gorm.DB, oldGroupID, messageID, newGroupID int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("message_id = ? AND group_id = ?", messageID, oldGroupID).
		Update("group_id", newGroupID)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
