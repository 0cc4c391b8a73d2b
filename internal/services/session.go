package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sales-dashboard/internal/dataset"
)

// Source produces the base table of a session.
type Source interface {
	Load(ctx context.Context) (*dataset.Table, dataset.LoadInfo, error)
}

// Session memoizes its base table: the source is loaded on first use and
// never again for the lifetime of the session.
type Session struct {
	ID        string
	CreatedAt time.Time

	source   Source
	once     sync.Once
	table    *dataset.Table
	info     dataset.LoadInfo
	err      error
	loaded   atomic.Bool
	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Base returns the session's base table, loading it on the first call.
// Cancellation of ctx does not reach the load.
func (s *Session) Base(ctx context.Context) (*dataset.Table, dataset.LoadInfo, error) {
	s.once.Do(func() {
		s.table, s.info, s.err = s.source.Load(context.WithoutCancel(ctx))
		s.loaded.Store(true)
	})
	return s.table, s.info, s.err
}

// Loaded reports whether the base table has been loaded.
func (s *Session) Loaded() bool {
	return s.loaded.Load()
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	source   Source
	ttl      time.Duration
	logger   *slog.Logger
	limit    int
	created  atomic.Int64
	expired  atomic.Int64
	evicted  atomic.Int64
	now      func() time.Time
}

func NewSessionStore(source Source, ttl time.Duration, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		source:   source,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// SetMaxSessions bounds the number of live sessions, and with it the number
// of base tables held in memory. Zero means unbounded.
func (st *SessionStore) SetMaxSessions(n int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.limit = n
}

// Resolve returns the live session with id, or a new one when id is empty,
// unknown or expired. created is true for a new session.
func (st *SessionStore) Resolve(id string) (sess *Session, created bool) {
	now := st.now()

	if id != "" {
		st.mu.RLock()
		sess = st.sessions[id]
		st.mu.RUnlock()
		if sess != nil && !st.expiredAt(sess, now) {
			sess.touch(now)
			return sess, false
		}
	}

	sess = st.newSession(now)

	st.mu.Lock()
	if st.limit > 0 && len(st.sessions) >= st.limit {
		st.evictOldestLocked()
	}
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	st.created.Add(1)

	st.logger.Debug("session created", "session_id", sess.ID)
	return sess, true
}

// Detached returns a session that is not tracked by the store. It serves
// callers without a session cookie and is dropped with the request.
func (st *SessionStore) Detached() *Session {
	return st.newSession(st.now())
}

func (st *SessionStore) newSession(now time.Time) *Session {
	sess := &Session{ID: uuid.NewString(), CreatedAt: now, source: st.source}
	sess.touch(now)
	return sess
}

// evictOldestLocked drops the least recently seen session. st.mu must be
// held for writing.
func (st *SessionStore) evictOldestLocked() {
	var oldest *Session
	for _, sess := range st.sessions {
		if oldest == nil || sess.LastSeen().Before(oldest.LastSeen()) {
			oldest = sess
		}
	}
	if oldest == nil {
		return
	}
	delete(st.sessions, oldest.ID)
	st.evicted.Add(1)
	st.logger.Debug("session evicted", "session_id", oldest.ID)
}

func (st *SessionStore) expiredAt(sess *Session, now time.Time) bool {
	return st.ttl > 0 && now.Sub(sess.LastSeen()) > st.ttl
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (st *SessionStore) Sweep() int {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		if st.expiredAt(sess, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	st.expired.Add(int64(removed))
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				st.logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *SessionStore) Stats() map[string]any {
	st.mu.RLock()
	limit := st.limit
	st.mu.RUnlock()
	return map[string]any{
		"active_sessions":  st.Len(),
		"created_sessions": st.created.Load(),
		"expired_sessions": st.expired.Load(),
		"evicted_sessions": st.evicted.Load(),
		"max_sessions":     limit,
		"session_ttl":      st.ttl.String(),
	}
}

type sessionContextKey struct{}

func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

func SessionFrom(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionContextKey{}).(*Session); ok {
		return sess
	}
	return nil
}
