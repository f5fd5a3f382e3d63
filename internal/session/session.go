package session

import (
	"presencerelay/internal/presence"
	"sync"
)

// State of one connection. Closed is terminal.
type State int

const (
	Connecting State = iota
	Open
	Registered
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Registered:
		return "registered"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Conn is the transport half of a session. Send must not block on a slow peer.
type Conn interface {
	ID() presence.ConnID
	Send(event string, body any) error
	Close() error
}

// Session tracks the lifecycle of one Conn. All transitions go through Manager.
type Session struct {
	conn Conn

	mu    sync.Mutex
	state State
	name  string
}

func (s *Session) ID() presence.ConnID { return s.conn.ID() }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Name returns the bound display name, empty unless Registered.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}
