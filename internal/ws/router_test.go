package ws

import (
	"context"
	"encoding/json"
	"presencerelay/internal/events"
	"testing"

	"github.com/stretchr/testify/require"
)

type pingReq struct {
	Name string `json:"name" validate:"required"`
}

type pingRes struct {
	Greeting string `json:"greeting"`
}

func newPingRouter() *Router {
	r := NewRouter()
	Register(r, "ping", "pong", func(_ context.Context, _ *ConnContext, req pingReq) (pingRes, error) {
		return pingRes{Greeting: "hello " + req.Name}, nil
	})
	return r
}

func TestRouter_Dispatch(t *testing.T) {
	req := require.New(t)
	r := newPingRouter()

	reply, res, err := r.dispatch(context.Background(), &ConnContext{}, events.Envelope{
		Event: "ping",
		Body:  json.RawMessage(`{"name":"alice"}`),
	})

	req.NoError(err)
	req.Equal("pong", reply)
	req.Equal(pingRes{Greeting: "hello alice"}, res)
}

func TestRouter_Dispatch_Errors(t *testing.T) {
	req := require.New(t)
	r := newPingRouter()

	_, _, err := r.dispatch(context.Background(), &ConnContext{}, events.Envelope{Event: "nope"})
	req.ErrorIs(err, errUnknownEvent)

	_, _, err = r.dispatch(context.Background(), &ConnContext{}, events.Envelope{
		Event: "ping",
		Body:  json.RawMessage(`{"name":42}`),
	})
	req.Error(err)

	_, _, err = r.dispatch(context.Background(), &ConnContext{}, events.Envelope{Event: "ping"})
	req.ErrorContains(err, "required")
}

func TestRegister_Empty_Event_Panics(t *testing.T) {
	require.Panics(t, func() {
		Register(NewRouter(), "", "", func(context.Context, *ConnContext, pingReq) (pingRes, error) {
			return pingRes{}, nil
		})
	})
}
