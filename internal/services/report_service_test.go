package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/fieldwerk/go-report-backend/internal/domain"
	"github.com/fieldwerk/go-report-backend/internal/repo"
)

// ----- Fake repo -----

type fakeReportRepo struct {
	// capture args
	createGroupID int64
	createMsgID   int64
	createDraft   domain.ReportDraft
	createErr     error

	getGroupID int64
	getMsgID   int64
	getReport  *domain.Report
	getErr     error

	updGroupID int64
	updMsgID   int64
	updField   string
	updValue   string
	updErr     error

	statusGroupID int64
	statusMsgID   int64
	statusValue   string
	statusErr     error

	delGroupID int64
	delMsgID   int64
	delErr     error

	countGroupID int64
	countTotal   int64
	countErr     error

	pageGroupID int64
	pageOffset  int
	pageLimit   int
	pageItems   []domain.Report
	pageErr     error

	reOldGroup int64
	reMsgID    int64
	reNewGroup int64
	reErr      error
}

func (r *fakeReportRepo) CreateReport(ctx context.Context, db *gorm.DB, groupID, messageID int64, d domain.ReportDraft) (*domain.Report, error) {
	r.createGroupID, r.createMsgID, r.createDraft = groupID, messageID, d
	if r.createErr != nil {
		return nil, r.createErr
	}
	return &domain.Report{
		MessageID: messageID, GroupID: groupID,
		Address: d.Address, Materials: d.Materials, ExtraNotes: d.ExtraNotes,
		Status: domain.StatusPending,
	}, nil
}

func (r *fakeReportRepo) GetReport(ctx context.Context, db *gorm.DB, groupID, messageID int64) (*domain.Report, error) {
	r.getGroupID, r.getMsgID = groupID, messageID
	return r.getReport, r.getErr
}

func (r *fakeReportRepo) UpdateReportField(ctx context.Context, db *gorm.DB, groupID, messageID int64, field, value string) error {
	r.updGroupID, r.updMsgID, r.updField, r.updValue = groupID, messageID, field, value
	return r.updErr
}

func (r *fakeReportRepo) UpdateReportStatus(ctx context.Context, db *gorm.DB, groupID, messageID int64, status string) error {
	r.statusGroupID, r.statusMsgID, r.statusValue = groupID, messageID, status
	return r.statusErr
}

func (r *fakeReportRepo) DeleteReport(ctx context.Context, db *gorm.DB, groupID, messageID int64) error {
	r.delGroupID, r.delMsgID = groupID, messageID
	return r.delErr
}

func (r *fakeReportRepo) CountReports(ctx context.Context, db *gorm.DB, groupID int64) (int64, error) {
	r.countGroupID = groupID
	return r.countTotal, r.countErr
}

func (r *fakeReportRepo) ListReportsPage(ctx context.Context, db *gorm.DB, groupID int64, offset, limit int) ([]domain.Report, error) {
	r.pageGroupID, r.pageOffset, r.pageLimit = groupID, offset, limit
	return r.pageItems, r.pageErr
}

func (r *fakeReportRepo) ReassignReportGroup(ctx context.Context, db *gorm.DB, oldGroupID, messageID, newGroupID int64) error {
	r.reOldGroup, r.reMsgID, r.reNewGroup = oldGroupID, messageID, newGroupID
	return r.reErr
}

// ----- Tests -----

func TestNewReportService_Defaults(t *testing.T) {
	r := &fakeReportRepo{}
	s := NewReportService(nil, r)

	if s.DB != nil { // DB can be nil in tests
		t.Fatalf("expected nil DB, got %v", s.DB)
	}
	if s.Repo != r {
		t.Fatalf("repo not set")
	}
	if s.PageSize != DefaultPageSize {
		t.Fatalf("PageSize default = %d, got %d", DefaultPageSize, s.PageSize)
	}
}

func TestCreate_ForwardsDraftAndMapsDuplicate(t *testing.T) {
	r := &fakeReportRepo{}
	s := NewReportService(nil, r)

	d := domain.ReportDraft{Address: "Main St 1", Materials: "cylinder"}
	rep, err := s.Create(context.Background(), -100, 42, d)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if rep.Status != domain.StatusPending {
		t.Fatalf("new report status = %q", rep.Status)
	}
	if r.createGroupID != -100 || r.createMsgID != 42 || r.createDraft.Address != "Main St 1" {
		t.Fatalf("repo got (%d,%d,%q)", r.createGroupID, r.createMsgID, r.createDraft.Address)
	}

	r.createErr = repo.ErrDuplicate
	if _, err := s.Create(context.Background(), -100, 42, d); !errors.Is(err, ErrDuplicateReport) {
		t.Fatalf("expected ErrDuplicateReport, got %v", err)
	}
}

func TestGet_MapsNotFound(t *testing.T) {
	r := &fakeReportRepo{getErr: gorm.ErrRecordNotFound}
	s := NewReportService(nil, r)

	if _, err := s.Get(context.Background(), -1, 7); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}

	r.getErr = nil
	r.getReport = &domain.Report{MessageID: 7, GroupID: -1, Status: domain.StatusDone}
	rep, err := s.Get(context.Background(), -1, 7)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rep.Status != domain.StatusDone {
		t.Fatalf("got %+v", rep)
	}
}

func TestUpdateField_ErrorMapping(t *testing.T) {
	r := &fakeReportRepo{}
	s := NewReportService(nil, r)

	if err := s.UpdateField(context.Background(), -1, 7, domain.FieldAddress, "New Rd 2"); err != nil {
		t.Fatalf("UpdateField error: %v", err)
	}
	if r.updField != domain.FieldAddress || r.updValue != "New Rd 2" {
		t.Fatalf("repo got field=%q value=%q", r.updField, r.updValue)
	}

	r.updErr = repo.ErrInvalidField
	if err := s.UpdateField(context.Background(), -1, 7, "chat_id", "x"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
	r.updErr = gorm.ErrRecordNotFound
	if err := s.UpdateField(context.Background(), -1, 7, domain.FieldAddress, "x"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestSetStatus_ErrorMapping(t *testing.T) {
	r := &fakeReportRepo{}
	s := NewReportService(nil, r)

	if err := s.SetStatus(context.Background(), -1, 7, domain.StatusDone); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if r.statusValue != domain.StatusDone {
		t.Fatalf("repo got status %q", r.statusValue)
	}

	r.statusErr = repo.ErrInvalidStatus
	if err := s.SetStatus(context.Background(), -1, 7, "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	r.statusErr = gorm.ErrRecordNotFound
	if err := s.SetStatus(context.Background(), -1, 99, domain.StatusDone); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestToggle_FlipsAndReturnsUpdated(t *testing.T) {
	r := &fakeReportRepo{
		getReport: &domain.Report{MessageID: 7, GroupID: -1, Status: domain.StatusPending},
	}
	s := NewReportService(nil, r)

	rep, err := s.Toggle(context.Background(), -1, 7)
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if rep.Status != domain.StatusDone {
		t.Fatalf("toggled status = %q", rep.Status)
	}
	if r.statusValue != domain.StatusDone {
		t.Fatalf("repo asked to write %q", r.statusValue)
	}

	// And back again.
	r.getReport = &domain.Report{MessageID: 7, GroupID: -1, Status: domain.StatusDone}
	rep, err = s.Toggle(context.Background(), -1, 7)
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if rep.Status != domain.StatusPending {
		t.Fatalf("toggled status = %q", rep.Status)
	}
}

func TestToggle_MissingReport(t *testing.T) {
	r := &fakeReportRepo{getErr: gorm.ErrRecordNotFound}
	s := NewReportService(nil, r)

	if _, err := s.Toggle(context.Background(), -1, 404); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
	if r.statusValue != "" {
		t.Fatalf("status write attempted for missing report")
	}
}

func TestDelete_Forwards(t *testing.T) {
	r := &fakeReportRepo{}
	s := NewReportService(nil, r)

	if err := s.Delete(context.Background(), -5, 11); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if r.delGroupID != -5 || r.delMsgID != 11 {
		t.Fatalf("repo got (%d,%d)", r.delGroupID, r.delMsgID)
	}
}

func TestListPage_EmptyGroup(t *testing.T) {
	r := &fakeReportRepo{countTotal: 0}
	s := NewReportService(nil, r)

	items, total, pages, err := s.ListPage(context.Background(), -1, 0)
	if err != nil {
		t.Fatalf("ListPage error: %v", err)
	}
	if total != 0 || pages != 0 || len(items) != 0 {
		t.Fatalf("expected empty result, got total=%d pages=%d len=%d", total, pages, len(items))
	}
	if r.pageLimit != 0 {
		t.Fatalf("page query should not run for empty group")
	}
}

func TestListPage_OffsetsAndClamping(t *testing.T) {
	r := &fakeReportRepo{
		countTotal: 23,
		pageItems:  []domain.Report{{MessageID: 1, GroupID: -1}},
	}
	s := NewReportService(nil, r)

	_, total, pages, err := s.ListPage(context.Background(), -1, 1)
	if err != nil {
		t.Fatalf("ListPage error: %v", err)
	}
	if total != 23 || pages != 3 {
		t.Fatalf("total=%d pages=%d", total, pages)
	}
	if r.pageOffset != 10 || r.pageLimit != 10 {
		t.Fatalf("page query offset=%d limit=%d", r.pageOffset, r.pageLimit)
	}

	// Past the end clamps to the last page.
	if _, _, _, err := s.ListPage(context.Background(), -1, 99); err != nil {
		t.Fatalf("ListPage error: %v", err)
	}
	if r.pageOffset != 20 {
		t.Fatalf("clamped offset = %d; want 20", r.pageOffset)
	}

	// Negative pages normalize to the first page.
	if _, _, _, err := s.ListPage(context.Background(), -1, -3); err != nil {
		t.Fatalf("ListPage error: %v", err)
	}
	if r.pageOffset != 0 {
		t.Fatalf("negative page offset = %d; want 0", r.pageOffset)
	}
}

func TestListPage_CountError(t *testing.T) {
	r := &fakeReportRepo{countErr: errors.New("boom")}
	s := NewReportService(nil, r)

	if _, _, _, err := s.ListPage(context.Background(), -1, 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestReassign_MapsNotFound(t *testing.T) {
	r := &fakeReportRepo{}
	s := NewReportService(nil, r)

	if err := s.Reassign(context.Background(), -1, 7, -2); err != nil {
		t.Fatalf("Reassign error: %v", err)
	}
	if r.reOldGroup != -1 || r.reMsgID != 7 || r.reNewGroup != -2 {
		t.Fatalf("repo got (%d,%d,%d)", r.reOldGroup, r.reMsgID, r.reNewGroup)
	}

	r.reErr = gorm.ErrRecordNotFound
	if err := s.Reassign(context.Background(), -1, 7, -2); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}
