// Package session tracks per-connection protocol state: the
// device-assigned session id, the reply-id counter and the coarse
// connection state.
package session

import (
	"fmt"
	"sync"
)

// InitialReplyID is the reply counter's start value after every
// (re)initialization (USHRT_MAX - 1, per the protocol manual).
const InitialReplyID uint16 = 65534

// State is the coarse connection state of a session.
type State int

const (
	// Disconnected is the initial state; the session id is always 0 here.
	Disconnected State = iota

	// Connected means a handshake completed without authentication.
	Connected

	// Authenticated means the CommKey challenge was answered.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// InvalidStateError indicates an operation attempted in a state that
// forbids it: an ordering bug in the caller, not a device condition.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid session state: cannot %s while %s", e.Op, e.State)
}

// Session is the shared per-connection state. One *Session is shared
// by reference between the device orchestrator (the sole mutator
// during an exchange) and any concurrent status readers; all access is
// serialized behind an internal mutex that is never held across I/O.
type Session struct {
	mu           sync.Mutex
	sessionID    uint16
	replyCounter uint16
	state        State
}

// New creates a disconnected session.
func New() *Session {
	return &Session{
		replyCounter: InitialReplyID,
		state:        Disconnected,
	}
}

// Initialize adopts a device-assigned session id and moves the session
// to Connected. Fails unless the session is Disconnected.
func (s *Session) Initialize(sessionID uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Disconnected {
		return &InvalidStateError{Op: "initialize", State: s.state}
	}

	s.sessionID = sessionID
	s.replyCounter = InitialReplyID
	s.state = Connected
	return nil
}

// Authenticate marks the session as authenticated. Fails unless the
// session is Connected. The session id and reply counter are unchanged.
func (s *Session) Authenticate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connected {
		return &InvalidStateError{Op: "authenticate", State: s.state}
	}

	s.state = Authenticated
	return nil
}

// Close resets the session to Disconnected from any state. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = 0
	s.replyCounter = InitialReplyID
	s.state = Disconnected
}

// NextReplyID returns the current reply counter and advances it. The
// sequence after Initialize is 65534, 65535, 0, 1, and so on. 65535 is
// a valid emitted id, so wraparound resets the counter after emitting
// it rather than using modulo arithmetic.
func (s *Session) NextReplyID() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.replyCounter
	if id == 65535 {
		s.replyCounter = 0
	} else {
		s.replyCounter = id + 1
	}
	return id
}

// SessionID returns the device-assigned session id (0 when disconnected).
func (s *Session) SessionID() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether a handshake has completed.
func (s *Session) IsConnected() bool {
	return s.State() != Disconnected
}

// IsAuthenticated reports whether the CommKey challenge was answered.
func (s *Session) IsAuthenticated() bool {
	return s.State() == Authenticated
}
