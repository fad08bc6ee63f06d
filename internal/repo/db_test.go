package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/wp-category-assistant/internal/domain"
)

// newTestDB opens a private in-memory database per test and migrates the
// given models.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
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

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	// Be tolerant across platforms/drivers:
	// - Windows: *os.PathError ("CreateFile ... cannot find the file specified")
	// - SQLite:  "unable to open database file" / "out of memory (14)"
	// - Unix:    "no such file or directory"
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var (
		journalMode string
		syncVal     int
		fkOn        int
		busyMS      int
	)
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}
	if err := db.Raw("PRAGMA synchronous;").Row().Scan(&syncVal); err != nil {
		t.Fatalf("PRAGMA synchronous: %v", err)
	}
	if syncVal != 1 { // NORMAL
		t.Fatalf("expected synchronous=1 (NORMAL), got %d", syncVal)
	}
	if err := db.Raw("PRAGMA foreign_keys;").Row().Scan(&fkOn); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fkOn != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fkOn)
	}
	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", busyMS)
	}

	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&domain.Message{}, &domain.ActionLog{}, &domain.Preference{}, &domain.Idempotency{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	// Round-trip through the traced handle.
	now := time.Now().UTC()
	msg := &domain.Message{ID: now.UnixMilli(), Text: "hi", Sender: domain.SenderUser, Timestamp: "10:00"}
	if err := AppendMessages(t.Context(), db, "u1", msg); err != nil {
		t.Fatalf("insert message: %v", err)
	}
	got, err := ListMessages(t.Context(), db, "u1", 0)
	if err != nil || len(got) != 1 || got[0].Text != "hi" {
		t.Fatalf("readback failed: err=%v got=%+v", err, got)
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
