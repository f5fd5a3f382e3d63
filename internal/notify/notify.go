package notify

import (
	"context"
	"presencerelay/internal/events"

	"go.uber.org/zap"
)

// Broadcaster fans an event out to every live connection of this process.
type Broadcaster interface {
	Broadcast(event string, body any) int
}

// Publisher delivers an administrative notification to all live connections.
type Publisher interface {
	Publish(ctx context.Context, n events.NotificationBody) error
}

// Local publishes straight into the in-process broadcaster.
type Local struct {
	b Broadcaster
}

func NewLocal(b Broadcaster) *Local { return &Local{b: b} }

func (l *Local) Publish(_ context.Context, n events.NotificationBody) error {
	sent := l.b.Broadcast(events.Notification, n)
	zap.L().Info("notify.broadcast", zap.String("title", n.Title), zap.Int("recipients", sent))
	return nil
}
