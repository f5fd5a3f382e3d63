package session

import (
	"errors"
	"presencerelay/internal/events"
	"presencerelay/internal/presence"
	"presencerelay/internal/relay"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	msgRegistered   = "Registered successfully"
	msgNameTaken    = "Username already taken. Try Another one."
	msgConnClosed   = "connection closed"
	reasonNotFound  = "user not found"
	reasonNotLogged = "not registered"
)

// Transition kinds reported to a Recorder.
const (
	KindConnected    = "connected"
	KindRegistered   = "registered"
	KindRejected     = "rejected"
	KindDemoted      = "demoted"
	KindDisconnected = "disconnected"
)

// Transition is one lifecycle change of a connection.
type Transition struct {
	Conn presence.ConnID
	Kind string
	Name string
	At   time.Time
}

// Recorder observes transitions. Record must not block.
type Recorder interface {
	Record(t Transition)
}

type Option func(*Manager)

// WithFailureAcks makes routing misses visible to the sender as send-message-failed.
func WithFailureAcks(on bool) Option {
	return func(m *Manager) { m.failureAcks = on }
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// Manager drives every connection through Connecting → Open → Registered → Closed
// and owns the set of live connections.
type Manager struct {
	registry *presence.Registry
	router   *relay.Router

	mu   sync.RWMutex
	live map[presence.ConnID]*Session

	recorder    Recorder
	failureAcks bool
}

func NewManager(registry *presence.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: registry,
		live:     make(map[presence.ConnID]*Session),
	}
	m.router = relay.NewRouter(registry, m)
	for _, o := range opts {
		o(m)
	}
	return m
}

// Connect admits a new transport connection in the Open (unregistered) state.
func (m *Manager) Connect(c Conn) *Session {
	s := &Session{conn: c, state: Connecting}

	m.mu.Lock()
	m.live[c.ID()] = s
	total := len(m.live)
	m.mu.Unlock()

	s.mu.Lock()
	s.state = Open
	s.mu.Unlock()

	zap.L().Info("session.connected", zap.String("conn_id", string(c.ID())), zap.Int("total", total))
	m.record(c.ID(), KindConnected, "")
	return s
}

// Register handles a "register" event and returns the response to send back.
// A failed attempt while already registered releases the current binding.
func (m *Manager) Register(s *Session, username string) events.RegisterResponseBody {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return events.RegisterResponseBody{Success: false, Message: msgConnClosed}
	}

	name, err := m.registry.Register(s.ID(), username)
	if err != nil {
		requested := presence.Normalize(username)
		zap.L().Info("session.register_rejected",
			zap.String("conn_id", string(s.ID())),
			zap.String("username", requested),
			zap.Error(err),
		)
		m.record(s.ID(), KindRejected, requested)

		if s.state == Registered {
			m.registry.Unregister(s.ID())
			m.record(s.ID(), KindDemoted, s.name)
			s.name = ""
			s.state = Open
		}
		return events.RegisterResponseBody{Success: false, Message: rejectionMessage(err)}
	}

	if s.state != Registered {
		zap.L().Info("session.registered", zap.String("username", name), zap.String("conn_id", string(s.ID())))
		m.record(s.ID(), KindRegistered, name)
	}
	s.name = name
	s.state = Registered
	return events.RegisterResponseBody{Success: true, Message: msgRegistered, Username: name}
}

// SendMessage routes a "send-message" event. Misses are silent unless failure
// acks are enabled.
func (m *Manager) SendMessage(s *Session, to, body string) relay.Outcome {
	if s.State() == Closed {
		return relay.UnregisteredSender
	}

	_, outcome := m.router.Route(s.ID(), to, body)
	if outcome == relay.Delivered || !m.failureAcks {
		return outcome
	}

	reason := reasonNotFound
	if outcome == relay.UnregisteredSender {
		reason = reasonNotLogged
	} else if outcome == relay.DeliveryFailed {
		reason = outcome.String()
	}
	if err := s.conn.Send(events.SendMessageFailed, events.SendMessageFailedBody{To: to, Reason: reason}); err != nil {
		zap.L().Debug("session.failure_ack", zap.String("conn_id", string(s.ID())), zap.Error(err))
	}
	return outcome
}

// Disconnect moves s to Closed and releases its binding. Safe to call more than once.
func (m *Manager) Disconnect(s *Session) {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return
	}
	name, _ := m.registry.Unregister(s.ID())
	s.state = Closed
	s.name = ""
	s.mu.Unlock()

	m.mu.Lock()
	delete(m.live, s.ID())
	total := len(m.live)
	m.mu.Unlock()

	zap.L().Info("session.disconnected",
		zap.String("conn_id", string(s.ID())),
		zap.String("username", name),
		zap.Int("total", total),
	)
	m.record(s.ID(), KindDisconnected, name)
}

// CloseAll closes every live connection and moves it to Closed. It returns
// how many sessions were closed.
func (m *Manager) CloseAll() int {
	m.mu.RLock()
	sessions := lo.Values(m.live)
	m.mu.RUnlock()

	for _, s := range sessions {
		_ = s.conn.Close()
		m.Disconnect(s)
	}
	return len(sessions)
}

// Deliver implements relay.Directory.
func (m *Manager) Deliver(conn presence.ConnID, event string, body any) error {
	m.mu.RLock()
	s, ok := m.live[conn]
	m.mu.RUnlock()
	if !ok || s.State() == Closed {
		return relay.ErrConnGone
	}
	return s.conn.Send(event, body)
}

// Broadcast sends event to every connection live at the time of the call and
// returns how many accepted it.
func (m *Manager) Broadcast(event string, body any) int {
	m.mu.RLock()
	sessions := lo.Values(m.live)
	m.mu.RUnlock()

	sent := 0
	for _, s := range sessions {
		if err := s.conn.Send(event, body); err != nil {
			zap.L().Debug("session.broadcast_skip", zap.String("conn_id", string(s.ID())), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// Stats is a point-in-time view of the server.
type Stats struct {
	Connections int `json:"connections"`
	Registered  int `json:"registered"`
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	conns := len(m.live)
	m.mu.RUnlock()
	return Stats{Connections: conns, Registered: m.registry.Len()}
}

func (m *Manager) record(conn presence.ConnID, kind, name string) {
	if m.recorder == nil {
		return
	}
	m.recorder.Record(Transition{Conn: conn, Kind: kind, Name: name, At: time.Now().UTC()})
}

func rejectionMessage(err error) string {
	if errors.Is(err, presence.ErrNameTaken) {
		return msgNameTaken
	}
	return err.Error()
}
