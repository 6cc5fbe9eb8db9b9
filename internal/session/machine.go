package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

// State is the session lifecycle state. Exactly one state is active per
// session at any time; all transitions run on the session's command loop.
type State int32

const (
	StateIdle State = iota
	StateListening
	StateProcessing
	StateResponding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateResponding:
		return "responding"
	default:
		return "unknown"
	}
}

// Components reported on the error channel.
const (
	ComponentSession      = "session"
	ComponentConversation = "conversation"
	ComponentRendering    = "rendering"
)

// ComponentError tags a collaborator failure with its origin. Every
// reported error is followed by a fail-safe reset to idle.
type ComponentError struct {
	Component string
	Err       error
}

// Notification types emitted on the notification channel.
const NoteResponsePlayed = "response-played"

// Notification is a lifecycle signal for the session's consumer.
type Notification struct {
	Type string
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdInput
	cmdResult
	cmdRendered
	cmdEnd
)

// transitions enumerates which commands may change state from each state.
// Anything not listed is either a usage error (start) or ignored (input,
// stale collaborator results).
var transitions = map[State]map[commandKind]bool{
	StateIdle:       {cmdStart: true, cmdEnd: true},
	StateListening:  {cmdInput: true, cmdEnd: true},
	StateProcessing: {cmdResult: true, cmdEnd: true},
	StateResponding: {cmdRendered: true, cmdEnd: true},
}

type command struct {
	kind     commandKind
	userID   string
	text     string
	epoch    uint64
	response *domain.AvatarResponse
	err      error
	reply    chan error
}

// Machine is one conversational session's state machine. All state lives
// on a single run loop fed by a command channel, so transitions are
// serialized and at most one collaborator call is in flight. Collaborator
// results carry the epoch they were issued under; a reset bumps the epoch
// and stale results are discarded instead of applied.
type Machine struct {
	id     string
	source domain.EventSource

	responder Responder
	renderer  Renderer
	sink      EventSink
	log       *zap.Logger

	cmds  chan command
	errs  chan ComponentError
	notes chan Notification

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	state atomic.Int32

	// Loop-owned; never touched outside the run goroutine.
	userID string
	epoch  uint64
	turn   int
}

// NewMachine creates a session machine and starts its run loop.
func NewMachine(id string, source domain.EventSource, responder Responder, renderer Renderer, sink EventSink, log *zap.Logger) *Machine {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Machine{
		id:        id,
		source:    source,
		responder: responder,
		renderer:  renderer,
		sink:      sink,
		log:       log.With(zap.String("session_id", id)),
		cmds:      make(chan command, 8),
		errs:      make(chan ComponentError, 16),
		notes:     make(chan Notification, 16),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	m.state.Store(int32(StateIdle))

	go m.run()
	return m
}

// ID returns the session ID.
func (m *Machine) ID() string { return m.id }

// State returns the current session state.
func (m *Machine) State() State { return State(m.state.Load()) }

// Errors is the single channel all collaborator failures surface on.
func (m *Machine) Errors() <-chan ComponentError { return m.errs }

// Notifications delivers lifecycle signals such as response-played.
func (m *Machine) Notifications() <-chan Notification { return m.notes }

// Start binds a user and begins listening. Only legal from idle.
func (m *Machine) Start(userID string) error {
	return m.send(command{kind: cmdStart, userID: userID, reply: make(chan error, 1)})
}

// HandleInput submits raw user input. Input arriving while the session is
// not listening is ignored; no queueing.
func (m *Machine) HandleInput(text string) {
	_ = m.send(command{kind: cmdInput, text: text, reply: make(chan error, 1)})
}

// End terminates the conversation from any state, clearing the bound user.
// It never fails; an in-flight collaborator result is discarded when it
// eventually arrives.
func (m *Machine) End() {
	_ = m.send(command{kind: cmdEnd, reply: make(chan error, 1)})
}

// Stop shuts down the run loop. The machine cannot be reused afterwards.
func (m *Machine) Stop() {
	m.cancel()
	<-m.done
}

func (m *Machine) send(cmd command) error {
	select {
	case m.cmds <- cmd:
	case <-m.ctx.Done():
		return fmt.Errorf("session %s is stopped", m.id)
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-m.ctx.Done():
		return fmt.Errorf("session %s is stopped", m.id)
	}
}

func (m *Machine) run() {
	defer close(m.done)

	for {
		select {
		case <-m.ctx.Done():
			return
		case cmd := <-m.cmds:
			m.handle(cmd)
		}
	}
}

func (m *Machine) handle(cmd command) {
	state := m.State()

	switch cmd.kind {
	case cmdStart:
		if !transitions[state][cmdStart] {
			err := fmt.Errorf("cannot start session in state %s", state)
			m.reportError(ComponentSession, err)
			cmd.reply <- err
			return
		}
		m.userID = cmd.userID
		m.turn = 0
		m.setState(StateListening)
		cmd.reply <- nil

	case cmdInput:
		if !transitions[state][cmdInput] {
			m.log.Debug("Ignoring input outside listening state",
				zap.String("state", state.String()))
			cmd.reply <- nil
			return
		}
		m.beginTurn(cmd.text)
		cmd.reply <- nil

	case cmdResult:
		if state != StateProcessing || cmd.epoch != m.epoch {
			m.log.Debug("Discarding stale conversation result",
				zap.Uint64("result_epoch", cmd.epoch),
				zap.Uint64("current_epoch", m.epoch))
			return
		}
		if cmd.err != nil {
			m.reportError(ComponentConversation, cmd.err)
			m.reset()
			return
		}
		m.beginResponse(cmd.response)

	case cmdRendered:
		if state != StateResponding || cmd.epoch != m.epoch {
			m.log.Debug("Discarding stale render result",
				zap.Uint64("result_epoch", cmd.epoch),
				zap.Uint64("current_epoch", m.epoch))
			return
		}
		if cmd.err != nil {
			m.reportError(ComponentRendering, cmd.err)
			m.reset()
			return
		}
		m.notify(Notification{Type: NoteResponsePlayed})
		m.setState(StateListening)

	case cmdEnd:
		m.epoch++
		m.userID = ""
		m.setState(StateIdle)
		cmd.reply <- nil
	}
}

// beginTurn records the user turn, moves to processing, and issues the
// conversation call under the current epoch.
func (m *Machine) beginTurn(text string) {
	m.setState(StateProcessing)
	m.turn++
	m.recordTurn(domain.SpeakerUser, text)

	m.epoch++
	epoch := m.epoch
	userID := m.userID

	go func() {
		response, err := m.responder.GetPersonalizedAvatarResponse(m.ctx, userID, text, m.id)
		m.deliver(command{kind: cmdResult, epoch: epoch, response: response, err: err})
	}()
}

// beginResponse records the avatar turn, moves to responding, and issues
// the render call under the current epoch.
func (m *Machine) beginResponse(response *domain.AvatarResponse) {
	m.setState(StateResponding)
	m.turn++
	m.recordTurn(domain.SpeakerAvatar, response.Text)

	epoch := m.epoch

	go func() {
		err := m.renderer.Render(m.ctx, &domain.RenderRequest{
			Text:      response.Text,
			Animation: response.Animation,
		})
		m.deliver(command{kind: cmdRendered, epoch: epoch, err: err})
	}()
}

// deliver feeds a collaborator result back into the run loop.
func (m *Machine) deliver(cmd command) {
	select {
	case m.cmds <- cmd:
	case <-m.ctx.Done():
	}
}

// recordTurn forwards one turn to the interaction collector. Collection is
// telemetry; a rejection is logged and never interrupts the conversation.
func (m *Machine) recordTurn(speaker domain.Speaker, message string) {
	err := m.sink.CollectAvatarChatEvent(m.ctx, m.id, m.userID, m.source, time.Now().Unix(), &domain.AvatarChatEvent{
		TurnNumber: m.turn,
		Speaker:    speaker,
		Message:    message,
	})
	if err != nil {
		m.log.Warn("Failed to collect chat turn", zap.Error(err))
	}
}

// reset is the fail-safe transition to idle after a collaborator error.
// Bumping the epoch invalidates any still-in-flight call.
func (m *Machine) reset() {
	m.epoch++
	m.userID = ""
	m.setState(StateIdle)
}

func (m *Machine) setState(next State) {
	prev := m.State()
	m.state.Store(int32(next))
	if prev != next {
		m.log.Debug("Session transition",
			zap.String("from", prev.String()),
			zap.String("to", next.String()))
	}
}

func (m *Machine) reportError(component string, err error) {
	m.log.Warn("Session component error",
		zap.String("component", component),
		zap.Error(err))

	select {
	case m.errs <- ComponentError{Component: component, Err: err}:
	default:
		m.log.Warn("Error channel full, dropping report",
			zap.String("component", component))
	}
}

func (m *Machine) notify(note Notification) {
	select {
	case m.notes <- note:
	default:
		m.log.Warn("Notification channel full, dropping",
			zap.String("type", note.Type))
	}
}
