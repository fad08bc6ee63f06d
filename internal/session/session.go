// Package session holds login state: the submitted WordPress credentials and
// the connection status of both remote dependencies, per session.
//
// Sessions live in memory only; credentials are never written anywhere.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/wp-category-assistant/internal/conversation"
	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/i18n"
	"github.com/tbourn/wp-category-assistant/internal/wordpress"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrNotConnected = errors.New("session not connected")
	ErrSendInFlight = errors.New("a message is already being processed")
)

// Status is the connection state of one dependency.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// WordPressValidator checks WordPress credentials.
type WordPressValidator interface {
	ValidateConnection(ctx context.Context, creds wordpress.Credentials) bool
}

// LLMValidator checks the configured LLM key.
type LLMValidator interface {
	ValidateAPIKey(ctx context.Context) bool
}

// Snapshot is a point-in-time view of a session, safe to hand out.
type Snapshot struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	WPURL     string    `json:"wp_url"`
	Username  string    `json:"username"`
	WordPress Status    `json:"wordpress_status"`
	LLM       Status    `json:"llm_status"`
	Typing    bool      `json:"typing"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// ChatReady reports whether both dependencies are connected.
func (s Snapshot) ChatReady() bool {
	return s.WordPress == StatusConnected && s.LLM == StatusConnected
}

type entry struct {
	snap    Snapshot
	creds   wordpress.Credentials
	sending bool
}

// Manager owns every live session.
type Manager struct {
	wp  WordPressValidator
	llm LLMValidator
	log *conversation.Log
	loc *i18n.Localizer
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager returns a Manager. Sessions idle for longer than ttl are removed
// by Evict.
func NewManager(wp WordPressValidator, llm LLMValidator, log *conversation.Log, loc *i18n.Localizer, ttl time.Duration) *Manager {
	return &Manager{
		wp:       wp,
		llm:      llm,
		log:      log,
		loc:      loc,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Login opens a session for userID and validates both dependencies
// concurrently. The session exists even when a validation fails, so the
// caller can show which one did; the welcome message is appended to the
// user's conversation only when both succeed.
func (m *Manager) Login(ctx context.Context, userID string, creds wordpress.Credentials) (Snapshot, error) {
	now := m.now()
	e := &entry{
		creds: creds,
		snap: Snapshot{
			ID:        uuid.NewString(),
			UserID:    userID,
			WPURL:     creds.WPURL,
			Username:  creds.Username,
			WordPress: StatusConnecting,
			LLM:       StatusConnecting,
			CreatedAt: now,
			LastSeen:  now,
		},
	}
	m.mu.Lock()
	m.sessions[e.snap.ID] = e
	m.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		m.setStatus(&e.snap.WordPress, statusOf(m.wp.ValidateConnection(ctx, creds)))
		return nil
	})
	g.Go(func() error {
		m.setStatus(&e.snap.LLM, statusOf(m.llm.ValidateAPIKey(ctx)))
		return nil
	})
	_ = g.Wait()

	snap := m.snapshot(e)
	zerolog.Ctx(ctx).Info().
		Str("session_id", snap.ID).
		Object("site", creds).
		Str("wordpress", string(snap.WordPress)).
		Str("llm", string(snap.LLM)).
		Msg("login")

	if snap.ChatReady() {
		if _, err := m.log.Append(ctx, userID, domain.SenderAI, m.loc.Text(i18n.Welcome)); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

// Get returns the session and marks it as seen.
func (m *Manager) Get(id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	e.snap.LastSeen = m.now()
	return e.snapView(), nil
}

// Logout drops the session and its credentials.
func (m *Manager) Logout(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// BeginSend reserves the session for one message. It fails when the session
// is unknown, not ready, or already processing a message. The returned
// release must be called when processing ends, whatever the outcome.
func (m *Manager) BeginSend(id string) (wordpress.Credentials, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return wordpress.Credentials{}, nil, ErrNotFound
	}
	if !e.snap.ChatReady() {
		return wordpress.Credentials{}, nil, ErrNotConnected
	}
	if e.sending {
		return wordpress.Credentials{}, nil, ErrSendInFlight
	}
	e.sending = true
	e.snap.LastSeen = m.now()

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			e.sending = false
			e.snap.LastSeen = m.now()
			m.mu.Unlock()
		})
	}
	return e.creds, release, nil
}

// Evict removes sessions idle for longer than the TTL and returns how many
// were removed. Sessions with a message in flight are kept.
func (m *Manager) Evict() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.ttl)
	n := 0
	for id, e := range m.sessions {
		if !e.sending && e.snap.LastSeen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Evict(); n > 0 {
				zerolog.Ctx(ctx).Debug().Int("evicted", n).Msg("idle sessions evicted")
			}
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) setStatus(field *Status, s Status) {
	m.mu.Lock()
	*field = s
	m.mu.Unlock()
}

func (m *Manager) snapshot(e *entry) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return e.snapView()
}

func (e *entry) snapView() Snapshot {
	s := e.snap
	s.Typing = e.sending
	return s
}

func statusOf(ok bool) Status {
	if ok {
		return StatusConnected
	}
	return StatusError
}
