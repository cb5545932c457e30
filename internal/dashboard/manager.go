package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	applogger "EarnView/pkg/logger"
)

// Metrics is what the manager reports.
type Metrics interface {
	StaleRecorder
	SetLiveSessions(n int)
}

type noopMetrics struct{ noopStale }

func (noopMetrics) SetLiveSessions(int) {}

// ManagerConfig bounds the session population.
type ManagerConfig struct {
	TTL          time.Duration
	MaxSessions  int
	ReapInterval time.Duration
}

// Manager owns the live sessions.
type Manager struct {
	src     Source
	cfg     ManagerConfig
	log     *applogger.Logger
	metrics Metrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerMetrics reports the live-session count and stale discards.
func WithManagerMetrics(m Metrics) ManagerOption {
	return func(mg *Manager) {
		if m != nil {
			mg.metrics = m
		}
	}
}

// WithManagerLogger sets the logger handed to every session.
func WithManagerLogger(l *applogger.Logger) ManagerOption {
	return func(mg *Manager) {
		if l != nil {
			mg.log = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(mg *Manager) { mg.now = now }
}

func NewManager(src Source, cfg ManagerConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		src:      src,
		cfg:      cfg,
		log:      applogger.Nop(),
		metrics:  noopMetrics{},
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create mounts a new page session. At capacity the least recently seen
// session is closed first.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrSessionClosed
	}
	var evicted *Session
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		evicted = m.oldestLocked()
		delete(m.sessions, evicted.ID())
	}
	s := newSession(uuid.NewString(), m.src, m.log, m.metrics, m.now())
	m.sessions[s.ID()] = s
	n := len(m.sessions)
	m.mu.Unlock()

	if evicted != nil {
		evicted.Close()
		m.log.Info("evicted session", applogger.String("session", evicted.ID()))
	}
	m.metrics.SetLiveSessions(n)
	return s, nil
}

// Get looks up a session and marks it as seen.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if ok {
		s.Close()
		m.metrics.SetLiveSessions(n)
	}
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap closes every session idle for longer than the TTL and returns how
// many were closed.
func (m *Manager) Reap() int {
	if m.cfg.TTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.TTL)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		m.log.Info("reaped idle sessions", applogger.Int("count", len(idle)), applogger.Int("live", n))
		m.metrics.SetLiveSessions(n)
	}
	return len(idle)
}

// Run reaps on every interval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.cfg.ReapInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap()
		}
	}
}

// Close closes every session and refuses new ones.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	m.metrics.SetLiveSessions(0)
}

func (m *Manager) oldestLocked() *Session {
	var oldest *Session
	for _, s := range m.sessions {
		if oldest == nil || s.LastSeen().Before(oldest.LastSeen()) {
			oldest = s
		}
	}
	return oldest
}
