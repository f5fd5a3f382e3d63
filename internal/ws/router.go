package ws

import (
	"context"
	"encoding/json"
	"errors"
	"presencerelay/internal/events"
	"sync"

	"github.com/go-playground/validator/v10"
)

var errUnknownEvent = errors.New("unknown_event")

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, c *ConnContext, body json.RawMessage) (any, error)

type route struct {
	reply   string
	handler rawHandler
}

// Router keeps a map[event]handler, à‑la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	routes   map[string]route
	validate *validator.Validate
}

func NewRouter() *Router {
	return &Router{routes: make(map[string]route), validate: validator.New()}
}

// Register binds an event to a strongly‑typed handler. The handler result is
// sent back as reply; an empty reply means the event is fire-and-forget.
func Register[Req any, Res any](
	r *Router,
	event, reply string,
	h func(ctx context.Context, c *ConnContext, req Req) (Res, error),
) {
	if event == "" {
		panic("ws router: empty event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes[event] = route{
		reply: reply,
		handler: func(ctx context.Context, c *ConnContext, body json.RawMessage) (any, error) {
			var req Req
			if len(body) > 0 {
				if err := json.Unmarshal(body, &req); err != nil {
					return nil, err
				}
			}
			if err := r.validate.Struct(req); err != nil {
				var invalid *validator.InvalidValidationError
				if !errors.As(err, &invalid) {
					return nil, err
				}
			}
			return h(ctx, c, req)
		},
	}
}

// dispatch is called by the server’s reader loop.
func (r *Router) dispatch(ctx context.Context, c *ConnContext, env events.Envelope) (string, any, error) {
	r.mu.RLock()
	rt, ok := r.routes[env.Event]
	r.mu.RUnlock()
	if !ok {
		return "", nil, errUnknownEvent
	}
	res, err := rt.handler(ctx, c, env.Body)
	return rt.reply, res, err
}
