// Package conversation keeps the append-only message log of each user.
//
// A Log stamps every message with a strictly increasing millisecond id and a
// localized display time before handing it to a Store. Two stores are
// provided: GormStore (SQLite through the repo package) and MemoryStore.
package conversation

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/repo"
)

// Store persists conversation logs. Load returns messages in insertion order.
type Store interface {
	Load(ctx context.Context, conv string) ([]domain.Message, error)
	Append(ctx context.Context, conv string, msgs ...*domain.Message) error
	LastID(ctx context.Context, conv string) (int64, error)
}

// GormStore is a Store backed by the messages table.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore returns a Store over db.
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

func (s *GormStore) Load(ctx context.Context, conv string) ([]domain.Message, error) {
	return repo.ListMessages(ctx, s.DB, conv, 0)
}

func (s *GormStore) Append(ctx context.Context, conv string, msgs ...*domain.Message) error {
	return repo.AppendMessages(ctx, s.DB, conv, msgs...)
}

func (s *GormStore) LastID(ctx context.Context, conv string) (int64, error) {
	return repo.LastMessageID(ctx, s.DB, conv)
}

// MemoryStore keeps logs in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]domain.Message
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string][]domain.Message)}
}

func (s *MemoryStore) Load(_ context.Context, conv string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.logs[conv]))
	copy(out, s.logs[conv])
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, conv string, msgs ...*domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		m.ConversationID = conv
		s.logs[conv] = append(s.logs[conv], *m)
	}
	return nil
}

func (s *MemoryStore) LastID(_ context.Context, conv string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last int64
	for _, m := range s.logs[conv] {
		if m.ID > last {
			last = m.ID
		}
	}
	return last, nil
}
