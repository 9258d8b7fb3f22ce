package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldwerk/go-report-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("report_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func draft(addr, materials, notes string) domain.ReportDraft {
	return domain.ReportDraft{Address: addr, Materials: materials, ExtraNotes: notes}
}

func TestCreateReport_SetsDefaults(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})

	start := time.Now().UTC().Add(-time.Minute)
	r, err := CreateReport(context.Background(), db, 100, 5, draft("12 Oak St", "drill, 3 keys", ""))
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if r.ID == 0 {
		t.Fatalf("expected assigned surrogate key")
	}
	if r.Status != domain.StatusPending {
		t.Fatalf("status = %q, want pending", r.Status)
	}
	if r.ScheduledDate != domain.ScheduledDateUndefined {
		t.Fatalf("scheduled date = %q, want sentinel", r.ScheduledDate)
	}
	if r.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt not set: %v", r.CreatedAt)
	}
}

func TestCreateReport_DuplicateKey(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})
	ctx := context.Background()

	if _, err := CreateReport(ctx, db, 100, 5, draft("a", "m", "")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateReport(ctx, db, 100, 5, draft("b", "m2", "")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second create err = %v, want ErrDuplicate", err)
	}
	// Same message id in a different group is a distinct key.
	if _, err := CreateReport(ctx, db, 200, 5, draft("c", "m3", "")); err != nil {
		t.Fatalf("create in other group: %v", err)
	}
}

func TestGetReport_GroupIsolation(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})
	ctx := context.Background()

	if _, err := CreateReport(ctx, db, 100, 5, draft("12 Oak St", "drill", "")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := GetReport(ctx, db, 100, 5); err != nil {
		t.Fatalf("get own group: %v", err)
	}
	if _, err := GetReport(ctx, db, 200, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get foreign group err = %v, want ErrNotFound", err)
	}
}

func TestUpdateReportField_AllowList(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})
	ctx := context.Background()

	if _, err := CreateReport(ctx, db, 100, 5, draft("12 Oak St", "drill", "")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := UpdateReportField(ctx, db, 100, 5, domain.FieldMaterials, "lock cylinder x2"); err != nil {
		t.Fatalf("update materials: %v", err)
	}
	r, err := GetReport(ctx, db, 100, 5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.Materials != "lock cylinder x2" || r.Address != "12 Oak St" {
		t.Fatalf("unexpected row after update: %+v", r)
	}

	// Non-allow-listed columns must be rejected loudly and leave the row untouched.
	for _, field := range []string{"chat_id", "group_id", "message_id", "status", "id", "created_at"} {
		if err := UpdateReportField(ctx, db, 100, 5, field, "9999"); !errors.Is(err, ErrInvalidField) {
			t.Fatalf("update %q err = %v, want ErrInvalidField", field, err)
		}
	}
	after, err := GetReport(ctx, db, 100, 5)
	if err != nil {
		t.Fatalf("get after rejects: %v", err)
	}
	if after.GroupID != 100 || after.MessageID != 5 || after.Status != domain.StatusPending {
		t.Fatalf("row mutated by rejected update: %+v", after)
	}
}

func TestUpdateReportField_ForeignGroupIsNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})
	ctx := context.Background()

	if _, err := CreateReport(ctx, db, 100, 5, draft("a", "m", "")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := UpdateReportField(ctx, db, 200, 5, domain.FieldAddress, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-group update err = %v, want ErrNotFound", err)
	}
	r, _ := GetReport(ctx, db, 100, 5)
	if r.Address != "a" {
		t.Fatalf("cross-group update mutated row: %+v", r)
	}
}

func TestUpdateReportStatus_Idempotent(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})
	ctx := context.Background()

	if _, err := CreateReport(ctx, db, 100, 5, draft("a", "m", "")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := UpdateReportStatus(ctx, db, 100, 5, domain.StatusDone); err != nil {
		t.Fatalf("first set done: %v", err)
	}
	if err := UpdateReportStatus(ctx, db, 100, 5, domain.StatusDone); err != nil {
		t.Fatalf("second set done should be a no-op success: %v", err)
	}
	r, _ := GetReport(ctx, db, 100, 5)
	if r.Status != domain.StatusDone {
		t.Fatalf("status = %q, want done", r.Status)
	}

	var n int64
	if err := db.Model(&domain.Report{}).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("row count = %d err = %v, want exactly 1", n, err)
	}
}

func TestUpdateReportStatus_Validation(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})
	ctx := context.Background()

	if err := UpdateReportStatus(ctx, db, 100, 5, "cancelled"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
	if err := UpdateReportStatus(ctx, db, 100, 5, domain.StatusDone); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing key err = %v, want ErrNotFound", err)
	}
}

func TestDeleteReport_NoopOnMissing(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})
	ctx := context.Background()

	if _, err := CreateReport(ctx, db, 100, 5, draft("a", "m", "")); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Foreign group: must act on zero rows.
	if err := DeleteReport(ctx, db, 200, 5); err != nil {
		t.Fatalf("cross-group delete should be a no-op: %v", err)
	}
	if _, err := GetReport(ctx, db, 100, 5); err != nil {
		t.Fatalf("row vanished after cross-group delete: %v", err)
	}

	if err := DeleteReport(ctx, db, 100, 5); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetReport(ctx, db, 100, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete err = %v, want ErrNotFound", err)
	}
	// Double delete is still a success.
	if err := DeleteReport(ctx, db, 100, 5); err != nil {
		t.Fatalf("repeat delete should be a no-op: %v", err)
	}
}

func TestListReportsPage_CoversAllRowsOnce(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})
	ctx := context.Background()

	const n = 23
	for i := 0; i < n; i++ {
		if _, err := CreateReport(ctx, db, 100, int64(i+1), draft(fmt.Sprintf("addr %d", i+1), "m", "")); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	// A second group must never leak into the page set.
	if _, err := CreateReport(ctx, db, 200, 999, draft("other", "m", "")); err != nil {
		t.Fatalf("create other group: %v", err)
	}

	total, err := CountReports(ctx, db, 100)
	if err != nil || total != n {
		t.Fatalf("count = %d err = %v, want %d", total, err, n)
	}

	const pageSize = 10
	seen := map[int64]bool{}
	var prev *domain.Report
	for page := 0; page*pageSize < n; page++ {
		items, err := ListReportsPage(ctx, db, 100, page*pageSize, pageSize)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		for i := range items {
			r := items[i]
			if seen[r.MessageID] {
				t.Fatalf("message %d returned twice", r.MessageID)
			}
			seen[r.MessageID] = true
			if prev != nil {
				if r.CreatedAt.After(prev.CreatedAt) {
					t.Fatalf("ordering not descending by created_at")
				}
				if r.CreatedAt.Equal(prev.CreatedAt) && r.ID > prev.ID {
					t.Fatalf("tie-break not descending by id")
				}
			}
			prev = &items[i]
		}
	}
	if len(seen) != n {
		t.Fatalf("saw %d distinct rows, want %d", len(seen), n)
	}
}

func TestListReportsPage_StableOnTimestampCollision(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := CreateReport(ctx, db, 100, int64(i+1), draft("a", "m", "")); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	// Force identical creation timestamps.
	same := time.Date(2024, 12, 19, 14, 30, 0, 0, time.UTC)
	if err := db.Model(&domain.Report{}).Where("group_id = ?", 100).Update("created_at", same).Error; err != nil {
		t.Fatalf("collapse timestamps: %v", err)
	}

	items, err := ListReportsPage(ctx, db, 100, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("got %d rows, want 5", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].ID >= items[i-1].ID {
			t.Fatalf("tie-break by id not descending: %d then %d", items[i-1].ID, items[i].ID)
		}
	}
}

func TestReassignReportGroup(t *testing.T) {
	db := newRepoDB(t, &domain.Report{})
	ctx := context.Background()

	if _, err := CreateReport(ctx, db, 100, 5, draft("a", "m", "")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ReassignReportGroup(ctx, db, 100, 5, 777); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if _, err := GetReport(ctx, db, 100, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old key still resolves: %v", err)
	}
	r, err := GetReport(ctx, db, 777, 5)
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	if r.Address != "a" {
		t.Fatalf("row lost data on reassign: %+v", r)
	}

	if err := ReassignReportGroup(ctx, db, 100, 5, 778); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reassign of missing key err = %v, want ErrNotFound", err)
	}
}

func TestCountReports_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, err := CountReports(context.Background(), db, 100); err == nil {
		t.Fatalf("expected error counting without table")
	}
}
