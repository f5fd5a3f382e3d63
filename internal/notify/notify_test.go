package notify

import (
	"context"
	"errors"
	"presencerelay/internal/events"
	"sync"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"
)

type call struct {
	event string
	body  any
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeBroadcaster) Broadcast(event string, body any) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{event: event, body: body})
	return 3
}

func TestLocal_Publish(t *testing.T) {
	req := require.New(t)
	b := &fakeBroadcaster{}
	n := events.NotificationBody{Title: "hello", Message: "world"}

	req.NoError(NewLocal(b).Publish(context.Background(), n))

	req.Equal([]call{{event: events.Notification, body: n}}, b.calls)
}

func TestRedisBus_Publish(t *testing.T) {
	req := require.New(t)
	rdb, mock := redismock.NewClientMock()
	bus := NewRedisBus(rdb, "presence:notifications", &fakeBroadcaster{})

	mock.ExpectPublish("presence:notifications", `{"title":"hello","message":"world"}`).SetVal(1)

	err := bus.Publish(context.Background(), events.NotificationBody{Title: "hello", Message: "world"})
	req.NoError(err)
	req.NoError(mock.ExpectationsWereMet())
}

func TestRedisBus_Publish_Error(t *testing.T) {
	req := require.New(t)
	rdb, mock := redismock.NewClientMock()
	bus := NewRedisBus(rdb, "presence:notifications", &fakeBroadcaster{})

	mock.ExpectPublish("presence:notifications", `{"message":"down"}`).SetErr(errors.New("connection refused"))

	err := bus.Publish(context.Background(), events.NotificationBody{Message: "down"})
	req.ErrorContains(err, "publish notification")
	req.NoError(mock.ExpectationsWereMet())
}

func TestRedisBus_Relay(t *testing.T) {
	req := require.New(t)
	b := &fakeBroadcaster{}
	bus := NewRedisBus(nil, "presence:notifications", b)

	bus.relay(`{"title":"t","message":"m"}`)
	bus.relay(`not json`)

	req.Equal([]call{{
		event: events.Notification,
		body:  events.NotificationBody{Title: "t", Message: "m"},
	}}, b.calls)
}
