package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"presencerelay/internal/events"
	"presencerelay/internal/presence"
	"presencerelay/internal/session"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 12 * time.Second
	pingPeriod     = 3 * time.Second // must be < pongWait
	handlerTimeout = 1900 * time.Millisecond
)

// ConnContext is handed to every event handler.
type ConnContext struct {
	Session *session.Session
	Server  *WsServer
}

type WsServer struct {
	manager   *session.Manager
	router    *Router
	upgrader  websocket.Upgrader
	readLimit int64
	queueSize int
}

func NewWsServer(manager *session.Manager, readLimit int64, queueSize int) *WsServer {
	srv := &WsServer{
		manager: manager,
		router:  NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// browsers connect from any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		readLimit: readLimit,
		queueSize: queueSize,
	}
	srv.registerHandlers() // ← all WS events configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry‑point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}

	conn := newClientConn(presence.ConnID(uuid.NewString()), rawConn, s.queueSize)
	sess := s.manager.Connect(conn)

	go conn.writePump()
	go s.reader(sess, conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 register ------------------------------------------------------------
	Register(
		s.router,
		events.Register,
		events.RegisterResponse,
		func(_ context.Context, cc *ConnContext, req events.RegisterRequest) (events.RegisterResponseBody, error) {
			return s.manager.Register(cc.Session, req.Username), nil
		},
	)

	// 🔹 send-message --------------------------------------------------------
	Register(
		s.router,
		events.SendMessage,
		"",
		func(_ context.Context, cc *ConnContext, req events.SendMessageRequest) (struct{}, error) {
			s.manager.SendMessage(cc.Session, req.To, req.Message)
			return struct{}{}, nil
		},
	)
}

func (s *WsServer) reader(sess *session.Session, conn *clientConn) {
	defer func() {
		s.manager.Disconnect(sess)
		_ = conn.Close()
	}()

	raw := conn.rawConn
	if s.readLimit > 0 {
		raw.SetReadLimit(s.readLimit)
	}
	_ = raw.SetReadDeadline(time.Now().Add(pongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{Session: sess, Server: s}

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("ws.read", zap.String("conn_id", string(conn.ID())), zap.Error(err))
			}
			return // client closed or errored
		}

		var env events.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.replyError(conn, err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		reply, res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			s.replyError(conn, err)
			continue
		}

		// ---- success -> {"event":"<reply>", "body":{...}} ----------
		if reply != "" {
			_ = conn.Send(reply, res)
		}
	}
}

func (s *WsServer) replyError(conn *clientConn, err error) {
	_ = conn.Send(events.Error, events.ErrorBody{Error: err.Error()})
}
