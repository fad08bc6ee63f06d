package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/i18n"
	"github.com/tbourn/wp-category-assistant/internal/repo"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormStore(db)
}

// publicFields compares what clients see.
var publicFields = cmpopts.IgnoreFields(domain.Message{}, "RowID", "CreatedAt")

func frozenClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestLog_StoreLoadRoundTrip(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   newGormStore(t),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			log := NewLog(store, i18n.New("fr"), nil)

			var appended []domain.Message
			for i, s := range []domain.Sender{domain.SenderAI, domain.SenderUser, domain.SenderAI} {
				m, err := log.Append(ctx, "u1", s, fmt.Sprintf("message %d", i))
				if err != nil {
					t.Fatalf("append: %v", err)
				}
				appended = append(appended, m)
			}
			if _, err := log.Append(ctx, "u2", domain.SenderUser, "elsewhere"); err != nil {
				t.Fatalf("append other: %v", err)
			}

			loaded, err := log.Load(ctx, "u1")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff(appended, loaded, publicFields); diff != "" {
				t.Fatalf("store/load round trip (-appended +loaded):\n%s", diff)
			}
		})
	}
}

func TestLog_IDsStrictlyIncreasing_WithFrozenClock(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)
	log := NewLog(NewMemoryStore(), i18n.New("fr"), frozenClock(at))

	var prev int64
	for i := 0; i < 5; i++ {
		m, err := log.Append(ctx, "u1", domain.SenderUser, "x")
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if m.ID <= prev {
			t.Fatalf("id %d not greater than previous %d", m.ID, prev)
		}
		if m.Timestamp != "09:30" {
			t.Fatalf("timestamp = %q; want 09:30", m.Timestamp)
		}
		prev = m.ID
	}
	if prev != at.UnixMilli()+4 {
		t.Fatalf("last id = %d; want %d", prev, at.UnixMilli()+4)
	}
}

func TestLog_ResumesAfterStoredIDs(t *testing.T) {
	ctx := context.Background()
	store := newGormStore(t)
	future := time.Now().Add(time.Hour)

	// A previous process wrote with a clock ahead of ours.
	first := NewLog(store, i18n.New("fr"), frozenClock(future))
	old, err := first.Append(ctx, "u1", domain.SenderAI, "bonjour")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	second := NewLog(store, i18n.New("fr"), nil)
	m, err := second.Append(ctx, "u1", domain.SenderUser, "salut")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if m.ID != old.ID+1 {
		t.Fatalf("id = %d; want %d", m.ID, old.ID+1)
	}
}

func TestLog_LastIDCacheStaysBounded(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)
	clock := at
	log := NewLog(NewMemoryStore(), i18n.New("fr"), func() time.Time { return clock })
	log.tracked = 3

	for i := range 3 {
		if _, err := log.Append(ctx, fmt.Sprintf("user-%d", i), domain.SenderUser, "x"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	// Fresh ids may still be in flight, so a full cache keeps them.
	if _, err := log.Append(ctx, "user-3", domain.SenderUser, "x"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(log.last) != 4 {
		t.Fatalf("cached conversations = %d; want 4", len(log.last))
	}

	clock = at.Add(2 * time.Minute)
	for i := 4; i < 40; i++ {
		if _, err := log.Append(ctx, fmt.Sprintf("user-%d", i), domain.SenderUser, "x"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if len(log.last) > 36 {
		t.Fatalf("cached conversations = %d; stale entries were not dropped", len(log.last))
	}
	if _, ok := log.last["user-0"]; ok {
		t.Fatal("stale conversation still cached")
	}

	// A dropped conversation resumes from the store.
	clock = at
	m, err := log.Append(ctx, "user-0", domain.SenderAI, "retour")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if m.ID != at.UnixMilli()+1 {
		t.Fatalf("id = %d; want %d", m.ID, at.UnixMilli()+1)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	msgs := []domain.Message{
		{ID: 1700000000000, Text: "Bonjour !", Sender: domain.SenderAI, Timestamp: "10:00"},
		{ID: 1700000000001, Text: "liste \"tout\"\n", Sender: domain.SenderUser, Timestamp: "10:01"},
	}
	raw, err := Encode(msgs)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(string(raw), `[{"id":1700000000000,"text":"Bonjour !","sender":"ai","timestamp":"10:00"}`) {
		t.Fatalf("unexpected wire form: %s", raw)
	}
	back, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(msgs, back); diff != "" {
		t.Fatalf("codec round trip (-want +got):\n%s", diff)
	}
}

func TestCodec_EmptyAndInvalid(t *testing.T) {
	raw, err := Encode(nil)
	if err != nil || string(raw) != "[]" {
		t.Fatalf("Encode(nil) = (%s, %v); want []", raw, err)
	}
	if _, err := Decode([]byte(`[{"id":1,"text":"x","sender":"robot","timestamp":"10:00"}]`)); err == nil {
		t.Fatalf("expected error for unknown sender")
	}
	if _, err := Decode([]byte(`{`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Append(ctx, "u1", &domain.Message{ID: 1, Text: "a", Sender: domain.SenderUser})

	got, _ := s.Load(ctx, "u1")
	got[0].Text = "mutated"

	again, _ := s.Load(ctx, "u1")
	if again[0].Text != "a" {
		t.Fatalf("Load exposed internal state")
	}
}
