package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fieldwerk/go-report-backend/internal/domain"
)

func TestOpenSQLite_AndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// Schema should be usable end to end.
	if _, err := CreateReport(context.Background(), db, 1, 1, domain.ReportDraft{Address: "a", Materials: "m"}); err != nil {
		t.Fatalf("create on migrated schema: %v", err)
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "reports.db")
	if _, err := OpenSQLite(path); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}
