package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/meetscribe/meetscribe/errors"
)

// Manager owns the connection → session mapping. Each connection has at
// most one non-terminal session; a new one may only be created after the
// previous one reaches Completed or Aborted.
type Manager struct {
	deps   Deps
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager
func NewManager(deps Deps, logger *zap.Logger) *Manager {
	return &Manager{
		deps:     deps,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// StartRecording creates and starts a session for a connection. When the
// client supplies a meeting id it seeds a new meeting record under that id;
// otherwise one is generated. A second start on a connection whose session
// is not terminal is rejected.
func (m *Manager) StartRecording(ctx context.Context, connID, meetingID, title string, pusher ClientPusher) (*Session, error) {
	var id uuid.UUID
	if meetingID != "" {
		parsed, err := uuid.Parse(meetingID)
		if err != nil {
			return nil, apperrors.ErrInvalidArgument("meetingId must be a valid UUID")
		}
		id = parsed
	} else {
		id = uuid.New()
	}

	m.mu.Lock()
	if existing, ok := m.sessions[connID]; ok && !existing.State().Terminal() {
		m.mu.Unlock()
		return nil, apperrors.ErrSessionAlreadyActive(existing.ID().String())
	}

	s := newSession(id, pusher, m.deps, m.logger)
	m.sessions[connID] = s
	m.mu.Unlock()

	if err := s.start(ctx, title); err != nil {
		m.mu.Lock()
		delete(m.sessions, connID)
		m.mu.Unlock()
		return nil, err
	}

	return s, nil
}

// Get returns the session owned by a connection, or nil
func (m *Manager) Get(connID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[connID]
}

// Remove tears down a connection's session. A session that is not yet
// terminal is forced to Aborted.
func (m *Manager) Remove(connID string) {
	m.mu.Lock()
	s := m.sessions[connID]
	delete(m.sessions, connID)
	m.mu.Unlock()

	if s == nil {
		return
	}
	if !s.State().Terminal() {
		s.Abort(nil)
	}
	m.logger.Info("connection session removed",
		zap.String("conn_id", connID),
		zap.String("meeting_id", s.ID().String()),
	)
}

// ActiveCount reports how many sessions are currently tracked
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
