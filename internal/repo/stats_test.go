package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/wp-category-assistant/internal/domain"
)

func TestMessagesStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, _, err := MessagesStats(context.Background(), db, "u1"); err == nil {
		t.Fatalf("expected error due to missing messages table")
	}
}

func TestMessagesStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Message{})
	count, last, err := MessagesStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("MessagesStats error: %v", err)
	}
	if count != 0 || last != 0 {
		t.Fatalf("expected (0, 0), got (%d, %d)", count, last)
	}
}

func TestMessagesStats_FilterAndLast(t *testing.T) {
	db := newTestDB(t, &domain.Message{})
	ctx := context.Background()

	_ = AppendMessages(ctx, db, "u1", msg(1000, domain.SenderUser, "a"), msg(2000, domain.SenderAI, "b"))
	_ = AppendMessages(ctx, db, "u2", msg(9000, domain.SenderUser, "other"))

	count, last, err := MessagesStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("MessagesStats error: %v", err)
	}
	if count != 2 || last != 2000 {
		t.Fatalf("expected (2, 2000), got (%d, %d)", count, last)
	}

	// Appending changes the pair, which is what the ETag relies on.
	_ = AppendMessages(ctx, db, "u1", msg(3000, domain.SenderUser, "c"))
	count2, last2, _ := MessagesStats(ctx, db, "u1")
	if count2 == count || last2 == last {
		t.Fatalf("stats did not change after append: (%d, %d)", count2, last2)
	}
}

func TestActionsStats(t *testing.T) {
	ctx := context.Background()
	if _, _, err := ActionsStats(ctx, newTestDB(t), "u1"); err == nil {
		t.Fatalf("expected error due to missing action_logs table")
	}

	db := newTestDB(t, &domain.ActionLog{})
	count, last, err := ActionsStats(ctx, db, "u1")
	if err != nil || count != 0 || last != "" {
		t.Fatalf("expected (0, \"\", nil), got (%d, %q, %v)", count, last, err)
	}

	t0 := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	_ = CreateActionLog(ctx, db, &domain.ActionLog{ID: "a1", ConversationID: "u1", Action: "LIST_CATEGORIES", Outcome: "listed", CreatedAt: t0})
	_ = CreateActionLog(ctx, db, &domain.ActionLog{ID: "a2", ConversationID: "u1", Action: "LIST_CATEGORIES", Outcome: "listed", CreatedAt: t0.Add(time.Minute)})
	_ = CreateActionLog(ctx, db, &domain.ActionLog{ID: "b1", ConversationID: "u2", Action: "LIST_CATEGORIES", Outcome: "listed", CreatedAt: t0.Add(time.Hour)})

	count, last, err = ActionsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ActionsStats error: %v", err)
	}
	if count != 2 || last != "a2" {
		t.Fatalf("expected (2, a2), got (%d, %q)", count, last)
	}
}
