// Package session owns the lifecycle of simulation sessions: one loop
// goroutine per active user, no shared mutable state between sessions.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
	"github.com/MTorner/GemeloVital/server/internal/platform/metrics"
	"github.com/MTorner/GemeloVital/server/internal/platform/tuning"
	"github.com/MTorner/GemeloVital/server/internal/sim"
)

var (
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the configured cap is reached.
	ErrTooManySessions = errors.New("session limit reached")
)

// Session pairs a loop with its cancel handle.
type Session struct {
	ID   string
	Loop *sim.Loop

	cancel context.CancelFunc
}

// Manager creates, looks up and tears down sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg         *tuning.Config
	journal     sim.Journal
	broadcaster sim.Broadcaster
	logger      *logger.Logger
}

// NewManager wires a session manager. journal and broadcaster may be nil.
func NewManager(cfg *tuning.Config, journal sim.Journal, broadcaster sim.Broadcaster, log *logger.Logger) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		cfg:         cfg,
		journal:     journal,
		broadcaster: broadcaster,
		logger:      log,
	}
}

// CreateSession builds the initial state for a validated profile, starts the
// loop goroutine and returns the new state.
func (m *Manager) CreateSession(ctx context.Context, profile body.UserProfile) (*body.SimulationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}

	sessionID := uuid.NewString()
	state := body.NewInitialState(sessionID, profile)
	loop := sim.NewLoop(state, m.cfg, m.journal, m.broadcaster, m.logger)

	loopCtx, cancel := context.WithCancel(ctx)
	m.sessions[sessionID] = &Session{ID: sessionID, Loop: loop, cancel: cancel}
	go loop.Run(loopCtx)

	metrics.Get().RecordSession(1)
	m.logger.Info("Session %s created for user %s", sessionID, profile.UserID)
	return state, nil
}

// Get returns the session for an id.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close tears a session down; its state dies with it.
func (m *Manager) Close(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.cancel()
	s.Loop.Stop()
	delete(m.sessions, sessionID)

	metrics.Get().RecordSession(-1)
	m.logger.Info("Session %s closed", sessionID)
	return nil
}

// CloseAll tears down every session, for server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		s.cancel()
		s.Loop.Stop()
		delete(m.sessions, id)
		metrics.Get().RecordSession(-1)
	}
}

// ForEach visits every active session under the manager lock.
func (m *Manager) ForEach(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		fn(s)
	}
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
