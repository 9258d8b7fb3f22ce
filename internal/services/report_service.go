// Package services – ReportService
//
// This file implements the ReportService, the store-facing component that
// owns report persistence semantics: creation with duplicate detection,
// scoped reads, allow-listed field updates, idempotent status writes,
// no-op deletes, paginated listing and group reassignment after a chat
// migration. It wraps the repository behind a narrow interface so the
// form and status flows never touch GORM directly.
//
// Service-level errors (e.g. ErrReportNotFound) are returned for
// predictable cases so handlers can map them to notices consistently.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldwerk/go-report-backend/internal/domain"
	"github.com/fieldwerk/go-report-backend/internal/repo"
	"github.com/fieldwerk/go-report-backend/internal/utils"
)

// ReportRepo defines the repository contract required by the services.
// Implementations are responsible for persistence of report rows, scoped
// by the (group, message) addressing key.
type ReportRepo interface {
	// CreateReport inserts a new pending report addressed by (group, message).
	CreateReport(ctx context.Context, db *gorm.DB, groupID, messageID int64, d domain.ReportDraft) (*domain.Report, error)

	// GetReport fetches a report by its addressing key.
	GetReport(ctx context.Context, db *gorm.DB, groupID, messageID int64) (*domain.Report, error)

	// UpdateReportField sets one allow-listed mutable column.
	UpdateReportField(ctx context.Context, db *gorm.DB, groupID, messageID int64, field, value string) error

	// UpdateReportStatus sets the status (idempotent).
	UpdateReportStatus(ctx context.Context, db *gorm.DB, groupID, messageID int64, status string) error

	// DeleteReport removes at most one row; missing keys are a no-op.
	DeleteReport(ctx context.Context, db *gorm.DB, groupID, messageID int64) error

	// CountReports returns the group's total for pagination.
	CountReports(ctx context.Context, db *gorm.DB, groupID int64) (int64, error)

	// ListReportsPage returns a page ordered newest first.
	ListReportsPage(ctx context.Context, db *gorm.DB, groupID int64, offset, limit int) ([]domain.Report, error)

	// ReassignReportGroup moves one row to a renumbered group.
	ReassignReportGroup(ctx context.Context, db *gorm.DB, oldGroupID, messageID, newGroupID int64) error
}

// DefaultPageSize is the number of reports per list page.
const DefaultPageSize = 10

// ReportService provides report-level persistence operations.
type ReportService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the report repository used by this service.
	Repo ReportRepo
	// PageSize caps list pages; DefaultPageSize when zero.
	PageSize int
}

// NewReportService constructs a ReportService with the default page size.
func NewReportService(db *gorm.DB, r ReportRepo) *ReportService {
	return &ReportService{DB: db, Repo: r, PageSize: DefaultPageSize}
}

// Create inserts a new pending report for the given addressing key.
func (s *ReportService) Create(ctx context.Context, groupID, messageID int64, d domain.ReportDraft) (*domain.Report, error) {
	r, err := s.Repo.CreateReport(ctx, s.DB, groupID, messageID, d)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateReport
		}
		return nil, err
	}
	return r, nil
}

// Get fetches a report in the caller's group, or ErrReportNotFound.
func (s *ReportService) Get(ctx context.Context, groupID, messageID int64) (*domain.Report, error) {
	r, err := s.Repo.GetReport(ctx, s.DB, groupID, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return r, nil
}

// UpdateField sets one mutable field. ErrInvalidField propagates loudly:
// it indicates a routing bug, not operator input.
func (s *ReportService) UpdateField(ctx context.Context, groupID, messageID int64, field, value string) error {
	err := s.Repo.UpdateReportField(ctx, s.DB, groupID, messageID, field, value)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrInvalidField):
		return ErrInvalidField
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrReportNotFound
	default:
		return err
	}
}

// SetStatus writes a status value. Setting the value a report already has
// is a successful no-op.
func (s *ReportService) SetStatus(ctx context.Context, groupID, messageID int64, status string) error {
	err := s.Repo.UpdateReportStatus(ctx, s.DB, groupID, messageID, status)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrInvalidStatus):
		return ErrInvalidStatus
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrReportNotFound
	default:
		return err
	}
}

// Toggle flips a report's status and returns the updated report.
// Overlapping toggles are last-write-wins; status is a single idempotent
// enum flip, not a merge-sensitive field.
func (s *ReportService) Toggle(ctx context.Context, groupID, messageID int64) (*domain.Report, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Toggle",
		trace.WithAttributes(
			attribute.Int64("group.id", groupID),
			attribute.Int64("message.id", messageID),
		),
	)
	defer span.End()

	r, err := s.Get(ctx, groupID, messageID)
	if err != nil {
		return nil, err
	}
	next := r.ToggledStatus()
	if err := s.SetStatus(ctx, groupID, messageID, next); err != nil {
		return nil, err
	}
	r.Status = next
	return r, nil
}

// Delete removes a report; missing keys are a no-op success.
func (s *ReportService) Delete(ctx context.Context, groupID, messageID int64) error {
	return s.Repo.DeleteReport(ctx, s.DB, groupID, messageID)
}

// ListPage returns one page of the group's reports, newest first, together
// with the total count and total page count (0 pages when the group is
// empty). Pages are 0-based; negative pages are normalized to 0.
func (s *ReportService) ListPage(ctx context.Context, groupID int64, page int) ([]domain.Report, int64, int, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int64("group.id", groupID),
			attribute.Int("page", page),
		),
	)
	defer span.End()

	if page < 0 {
		page = 0
	}
	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total, err := s.Repo.CountReports(ctx, s.DB, groupID)
	if err != nil {
		return nil, 0, 0, err
	}
	totalPages := utils.TotalPages(total, pageSize)
	if total == 0 {
		return []domain.Report{}, 0, 0, nil
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	items, err := s.Repo.ListReportsPage(ctx, s.DB, groupID, page*pageSize, pageSize)
	if err != nil {
		return nil, 0, 0, err
	}
	return items, total, totalPages, nil
}

// Reassign moves a single report to a renumbered group after a platform
// migration. A missing row surfaces as ErrReportNotFound so callers can
// decide whether the move mattered.
func (s *ReportService) Reassign(ctx context.Context, oldGroupID, messageID, newGroupID int64) error {
	err := s.Repo.ReassignReportGroup(ctx, s.DB, oldGroupID, messageID, newGroupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReportNotFound
	}
	return err
}
