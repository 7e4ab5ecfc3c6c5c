package core

import (
	"errors"
	"sync"
)

var ErrConnTerminated = errors.New("connection terminated")

// ConnState tracks where a connection is in its life:
//
//	Connected → InRoom → Connected → ... → Terminated
//
// A connection may cycle between Connected and InRoom any number of
// times; Terminated is reached once and is final.
type ConnState int

const (
	StateConnected ConnState = iota
	StateInRoom
	StateTerminated
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateInRoom:
		return "in_room"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Lifecycle is the per-connection state machine. The transport adapter
// owns one instance per connection and consults it before dispatching.
type Lifecycle struct {
	mu    sync.Mutex
	state ConnState
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateConnected}
}

func (l *Lifecycle) State() ConnState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Alive reports whether the connection still accepts events.
func (l *Lifecycle) Alive() bool {
	return l.State() != StateTerminated
}

// EnterRoom moves the connection into InRoom. Entering from InRoom is
// allowed: the caller has already left the previous room.
func (l *Lifecycle) EnterRoom() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateTerminated {
		return ErrConnTerminated
	}
	l.state = StateInRoom
	return nil
}

// LeaveRoom returns the connection to Connected. A no-op when the
// connection was not in a room or is already terminated.
func (l *Lifecycle) LeaveRoom() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateInRoom {
		l.state = StateConnected
	}
}

// Terminate is final. Reports whether this call performed the transition,
// so disconnect cleanup runs exactly once.
func (l *Lifecycle) Terminate() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateTerminated {
		return false
	}
	l.state = StateTerminated
	return true
}
