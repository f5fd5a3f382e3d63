package relay

import (
	"errors"
	"presencerelay/internal/events"
	"presencerelay/internal/presence"
	"time"

	"go.uber.org/zap"
)

// ErrConnGone is returned by a Directory when the target connection is no longer live.
var ErrConnGone = errors.New("connection gone")

// Outcome is the result of a routing attempt. Routing never fails with an error.
type Outcome int

const (
	Delivered Outcome = iota
	UnregisteredSender
	RecipientUnavailable
	DeliveryFailed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case UnregisteredSender:
		return "unregistered_sender"
	case RecipientUnavailable:
		return "recipient_unavailable"
	case DeliveryFailed:
		return "delivery_failed"
	}
	return "unknown"
}

// Message only lives for the duration of one Route call.
type Message struct {
	From      string
	To        string
	Body      string
	CreatedAt time.Time
}

// Names resolves bindings in both directions.
type Names interface {
	Lookup(name string) (presence.ConnID, bool)
	NameOf(conn presence.ConnID) (string, bool)
}

// Directory delivers an event to a live connection.
type Directory interface {
	Deliver(conn presence.ConnID, event string, body any) error
}

type Router struct {
	names Names
	dir   Directory
	now   func() time.Time
}

func NewRouter(names Names, dir Directory) *Router {
	return &Router{names: names, dir: dir, now: time.Now}
}

// Route forwards body from the sender's connection to whoever holds recipient.
// Delivery is at most once; nothing is queued when the recipient is offline.
func (r *Router) Route(sender presence.ConnID, recipient, body string) (Message, Outcome) {
	msg := Message{To: recipient, Body: body, CreatedAt: r.now()}

	from, ok := r.names.NameOf(sender)
	if !ok {
		zap.L().Debug("relay.unregistered_sender", zap.String("conn_id", string(sender)))
		return msg, UnregisteredSender
	}
	msg.From = from

	target, ok := r.names.Lookup(recipient)
	if !ok {
		zap.L().Info("relay.user_not_found", zap.String("to", recipient), zap.String("from", from))
		return msg, RecipientUnavailable
	}

	err := r.dir.Deliver(target, events.ReceiveMessage, events.ReceiveMessageBody{
		From:    msg.From,
		Message: msg.Body,
	})
	if err != nil {
		zap.L().Warn("relay.deliver_failed", zap.String("to", recipient), zap.Error(err))
		if errors.Is(err, ErrConnGone) {
			return msg, RecipientUnavailable
		}
		return msg, DeliveryFailed
	}
	zap.L().Debug("relay.message_sent", zap.String("from", from), zap.String("to", recipient))
	return msg, Delivered
}
