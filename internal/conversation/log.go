package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/i18n"
)

const (
	// defaultTracked caps how many conversations keep a cached last id
	// before stale entries are dropped.
	defaultTracked = 4096
	// staleAfter is how far behind the clock a cached id must be to be
	// dropped. Fresh ids may belong to stamps that are not stored yet.
	staleAfter = time.Minute
)

// Log appends stamped messages to a Store.
type Log struct {
	store Store
	loc   *i18n.Localizer
	now   func() time.Time

	mu      sync.Mutex
	last    map[string]int64
	tracked int
}

// NewLog returns a Log over store. A nil now uses time.Now.
func NewLog(store Store, loc *i18n.Localizer, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{store: store, loc: loc, now: now, last: make(map[string]int64), tracked: defaultTracked}
}

// Store returns the underlying store.
func (l *Log) Store() Store { return l.store }

// Load returns the whole conversation in insertion order.
func (l *Log) Load(ctx context.Context, conv string) ([]domain.Message, error) {
	return l.store.Load(ctx, conv)
}

// Append stamps and stores one message.
func (l *Log) Append(ctx context.Context, conv string, sender domain.Sender, text string) (domain.Message, error) {
	m, err := l.Stamp(ctx, conv, sender, text)
	if err != nil {
		return domain.Message{}, err
	}
	if err := l.store.Append(ctx, conv, &m); err != nil {
		return domain.Message{}, err
	}
	return m, nil
}

// Stamp builds the next message of conv without storing it: its id is the
// current time in milliseconds, bumped past the last id handed out so ids
// stay strictly increasing even within one millisecond.
func (l *Log) Stamp(ctx context.Context, conv string, sender domain.Sender, text string) (domain.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, seen := l.last[conv]
	if !seen {
		stored, err := l.store.LastID(ctx, conv)
		if err != nil {
			return domain.Message{}, err
		}
		last = stored
	}

	now := l.now()
	id := now.UnixMilli()
	if id <= last {
		id = last + 1
	}
	if !seen && len(l.last) >= l.tracked {
		l.prune(now)
	}
	l.last[conv] = id

	return domain.Message{
		ConversationID: conv,
		ID:             id,
		Text:           text,
		Sender:         sender,
		Timestamp:      l.loc.Clock(now),
		CreatedAt:      now.UTC(),
	}, nil
}

// prune drops cached ids the clock has already passed. Their conversations
// fall back to Store.LastID on the next stamp.
func (l *Log) prune(now time.Time) {
	cutoff := now.Add(-staleAfter).UnixMilli()
	for conv, id := range l.last {
		if id < cutoff {
			delete(l.last, conv)
		}
	}
}
