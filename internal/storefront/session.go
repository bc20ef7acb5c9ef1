package storefront

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/botica-storefront/internal/cart"
)

// SessionHeader carries the shopper's session id on requests and responses.
const SessionHeader = "X-Session-ID"

// Session is one shopper's state. All cart mutations for the session go
// through With, one at a time.
type Session struct {
	ID string

	mu       sync.Mutex
	cart     *cart.Engine
	lastSeen atomic.Int64
}

func newSession(id string, now time.Time) *Session {
	s := &Session{ID: id, cart: cart.NewEngine()}
	s.lastSeen.Store(now.UnixNano())
	return s
}

// With runs fn while holding the session lock.
func (s *Session) With(fn func(c *cart.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cart)
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

type SessionsOption func(*Sessions)

// WithObserver is called with +1 for each created session and -n after
// evicting n.
func WithObserver(fn func(delta int)) SessionsOption {
	return func(s *Sessions) {
		s.observe = fn
	}
}

// Sessions is the in-memory session registry. Sessions idle longer than the
// TTL are dropped by EvictIdle.
type Sessions struct {
	ttl     time.Duration
	now     func() time.Time
	observe func(delta int)

	mu    sync.RWMutex
	items map[string]*Session
}

func NewSessions(ttl time.Duration, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		ttl:     ttl,
		now:     time.Now,
		observe: func(int) {},
		items:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the session for id, creating it when unknown. Ids that are
// not UUIDs are replaced by a fresh one; the caller must echo Session.ID
// back to the client.
func (s *Sessions) Resolve(id string) (*Session, bool) {
	now := s.now()

	if sess, ok := s.Get(id); ok {
		sess.touch(now)
		return sess, false
	}

	if _, err := uuid.Parse(id); err != nil {
		id = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.items[id]; ok {
		sess.touch(now)
		return sess, false
	}
	sess := newSession(id, now)
	s.items[id] = sess
	s.observe(1)
	return sess, true
}

func (s *Sessions) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.items[id]
	return sess, ok
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// EvictIdle drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Sessions) EvictIdle() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.items {
		if sess.idleSince(now) > s.ttl {
			delete(s.items, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.observe(-evicted)
	}
	return evicted
}

// RunJanitor calls EvictIdle every interval until ctx is done.
func (s *Sessions) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}
