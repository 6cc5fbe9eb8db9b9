package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

// Manager owns the live session machines behind the HTTP surface. Each
// session gets its own machine plus a watcher goroutine draining its
// error and notification channels into the log.
type Manager struct {
	responder Responder
	renderer  Renderer
	sink      EventSink
	source    domain.EventSource
	log       *zap.Logger

	mu       sync.Mutex
	machines map[string]*Machine
}

// NewManager creates a session manager.
func NewManager(responder Responder, renderer Renderer, sink EventSink, source domain.EventSource, log *zap.Logger) *Manager {
	return &Manager{
		responder: responder,
		renderer:  renderer,
		sink:      sink,
		source:    source,
		log:       log,
		machines:  make(map[string]*Machine),
	}
}

// StartSession creates a new session bound to the given user and returns
// its ID.
func (mgr *Manager) StartSession(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user ID is required", domain.ErrValidation)
	}

	id := uuid.NewString()
	m := NewMachine(id, mgr.source, mgr.responder, mgr.renderer, mgr.sink, mgr.log)

	if err := m.Start(userID); err != nil {
		m.Stop()
		return "", err
	}

	mgr.mu.Lock()
	mgr.machines[id] = m
	mgr.mu.Unlock()

	go mgr.watch(m)

	mgr.log.Info("Session started",
		zap.String("session_id", id),
		zap.String("user_id", userID))
	return id, nil
}

// HandleInput routes user input to its session. Input for an unknown
// session is an error; input in a non-listening state is dropped by the
// machine itself.
func (mgr *Manager) HandleInput(sessionID, text string) error {
	m, ok := mgr.get(sessionID)
	if !ok {
		return fmt.Errorf("%w: unknown session %s", domain.ErrValidation, sessionID)
	}
	m.HandleInput(text)
	return nil
}

// EndSession terminates a session and removes it from the registry.
// Ending an unknown session is a no-op.
func (mgr *Manager) EndSession(sessionID string) {
	mgr.mu.Lock()
	m, ok := mgr.machines[sessionID]
	delete(mgr.machines, sessionID)
	mgr.mu.Unlock()

	if !ok {
		return
	}

	m.End()
	m.Stop()
	mgr.log.Info("Session ended", zap.String("session_id", sessionID))
}

// SessionState reports the state of a live session.
func (mgr *Manager) SessionState(sessionID string) (State, bool) {
	m, ok := mgr.get(sessionID)
	if !ok {
		return StateIdle, false
	}
	return m.State(), true
}

// Shutdown stops every live session.
func (mgr *Manager) Shutdown() {
	mgr.mu.Lock()
	machines := make([]*Machine, 0, len(mgr.machines))
	for _, m := range mgr.machines {
		machines = append(machines, m)
	}
	mgr.machines = make(map[string]*Machine)
	mgr.mu.Unlock()

	for _, m := range machines {
		m.End()
		m.Stop()
	}
}

func (mgr *Manager) get(sessionID string) (*Machine, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	m, ok := mgr.machines[sessionID]
	return m, ok
}

// watch drains a machine's error and notification channels until it stops.
func (mgr *Manager) watch(m *Machine) {
	for {
		select {
		case ce := <-m.Errors():
			mgr.log.Warn("Session error",
				zap.String("session_id", m.ID()),
				zap.String("component", ce.Component),
				zap.Error(ce.Err))
		case note := <-m.Notifications():
			mgr.log.Debug("Session notification",
				zap.String("session_id", m.ID()),
				zap.String("type", note.Type))
		case <-m.ctx.Done():
			return
		}
	}
}
