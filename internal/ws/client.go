package ws

import (
	"encoding/json"
	"errors"
	"presencerelay/internal/events"
	"presencerelay/internal/presence"
	"presencerelay/internal/relay"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errSendQueueFull = errors.New("send queue full")

// clientConn owns one websocket. Writes only ever happen on writePump.
type clientConn struct {
	id      presence.ConnID
	rawConn *websocket.Conn
	send    chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClientConn(id presence.ConnID, raw *websocket.Conn, queue int) *clientConn {
	return &clientConn{
		id:      id,
		rawConn: raw,
		send:    make(chan []byte, queue),
		done:    make(chan struct{}),
	}
}

func (c *clientConn) ID() presence.ConnID { return c.id }

// Send enqueues an event without blocking. A peer that cannot keep up with
// its queue is dropped.
func (c *clientConn) Send(event string, body any) error {
	frame, err := encode(event, body)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return relay.ErrConnGone
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return relay.ErrConnGone
	default:
		zap.L().Warn("ws.send_queue_full", zap.String("conn_id", string(c.id)))
		_ = c.Close()
		// the writer may be stuck on this very peer; unblock it and the reader
		_ = c.rawConn.Close()
		return errSendQueueFull
	}
}

// Close stops the writer, which in turn tears the socket down.
func (c *clientConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *clientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.rawConn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *clientConn) write(mt int, data []byte) error {
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteMessage(mt, data)
}

func encode(event string, body any) ([]byte, error) {
	env := events.Envelope{Event: event}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		env.Body = raw
	}
	return json.Marshal(env)
}
