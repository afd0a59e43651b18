// Package state holds the process-wide session state: at most one capture
// or replay runs at a time.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mode is the kind of session currently running.
type Mode int

const (
	Idle Mode = iota
	Capturing
	Replaying
)

func (m Mode) String() string {
	switch m {
	case Capturing:
		return "capturing"
	case Replaying:
		return "replaying"
	default:
		return "idle"
	}
}

// MarshalText renders the mode as its name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*m = Idle
	case "capturing":
		*m = Capturing
	case "replaying":
		*m = Replaying
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}

// ErrAlreadyActive is matched by AlreadyActiveError.
var ErrAlreadyActive = errors.New("a capture or replay session is already active")

// ErrNotActive is returned when a transition names a session that is not
// the current one.
var ErrNotActive = errors.New("session is not active")

// AlreadyActiveError rejects a start request while another session runs.
type AlreadyActiveError struct {
	Current Mode
	Session uuid.UUID
}

func (e *AlreadyActiveError) Error() string {
	return fmt.Sprintf("cannot start: %s session %s is already active", e.Current, e.Session)
}

func (e *AlreadyActiveError) Is(target error) bool {
	return target == ErrAlreadyActive
}

// Snapshot is a point-in-time copy of the state.
type Snapshot struct {
	Mode    Mode      `json:"mode"`
	Looping bool      `json:"looping"`
	Session uuid.UUID `json:"session"`
	Since   time.Time `json:"since"`
}

// Active reports whether any session is running.
func (s Snapshot) Active() bool { return s.Mode != Idle }

// Observer is the read-only view handed to listener goroutines.
type Observer interface {
	Snapshot() Snapshot
}

// Machine owns the session state. Transitions happen only through its
// methods; each Begin returns the session id that End and SetLooping need.
type Machine struct {
	mu        sync.Mutex
	cur       Snapshot
	listeners []func(Snapshot)
	now       func() time.Time
}

// NewMachine returns an idle machine.
func NewMachine() *Machine {
	return &Machine{now: time.Now}
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

// OnChange registers fn to be called after every transition. Callbacks run
// outside the lock, in registration order.
func (m *Machine) OnChange(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// BeginCapture moves Idle → Capturing.
func (m *Machine) BeginCapture() (uuid.UUID, error) {
	return m.begin(Capturing, false)
}

// BeginReplay moves Idle → Replaying(loop).
func (m *Machine) BeginReplay(loop bool) (uuid.UUID, error) {
	return m.begin(Replaying, loop)
}

func (m *Machine) begin(mode Mode, loop bool) (uuid.UUID, error) {
	m.mu.Lock()
	if m.cur.Active() {
		err := &AlreadyActiveError{Current: m.cur.Mode, Session: m.cur.Session}
		m.mu.Unlock()
		return uuid.Nil, err
	}
	m.cur = Snapshot{
		Mode:    mode,
		Looping: loop,
		Session: uuid.New(),
		Since:   m.now(),
	}
	snap, listeners := m.cur, m.listeners
	m.mu.Unlock()

	notify(listeners, snap)
	return snap.Session, nil
}

// SetLooping changes the loop flag of the running replay session.
func (m *Machine) SetLooping(id uuid.UUID, loop bool) error {
	m.mu.Lock()
	if m.cur.Mode != Replaying || m.cur.Session != id {
		m.mu.Unlock()
		return ErrNotActive
	}
	if m.cur.Looping == loop {
		m.mu.Unlock()
		return nil
	}
	m.cur.Looping = loop
	snap, listeners := m.cur, m.listeners
	m.mu.Unlock()

	notify(listeners, snap)
	return nil
}

// End returns the machine to Idle if id is the current session.
func (m *Machine) End(id uuid.UUID) error {
	m.mu.Lock()
	if !m.cur.Active() || m.cur.Session != id {
		m.mu.Unlock()
		return ErrNotActive
	}
	m.cur = Snapshot{Since: m.now()}
	snap, listeners := m.cur, m.listeners
	m.mu.Unlock()

	notify(listeners, snap)
	return nil
}

func notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}
