package relay

import (
	"errors"
	"presencerelay/internal/events"
	"presencerelay/internal/presence"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type delivery struct {
	conn  presence.ConnID
	event string
	body  any
}

type fakeDirectory struct {
	mu        sync.Mutex
	delivered []delivery
	fail      map[presence.ConnID]error
}

func (d *fakeDirectory) Deliver(conn presence.ConnID, event string, body any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail[conn]; err != nil {
		return err
	}
	d.delivered = append(d.delivered, delivery{conn: conn, event: event, body: body})
	return nil
}

func setup(t *testing.T) (*presence.Registry, *fakeDirectory, *Router) {
	t.Helper()
	registry := presence.NewRegistry(0)
	dir := &fakeDirectory{fail: map[presence.ConnID]error{}}
	router := NewRouter(registry, dir)
	router.now = func() time.Time { return time.Unix(1700000000, 0) }
	return registry, dir, router
}

func TestRouter_Route_Delivers_With_Sender_Name(t *testing.T) {
	req := require.New(t)
	registry, dir, router := setup(t)

	// Given alice and bob are registered
	_, err := registry.Register("conn-a", "alice")
	req.NoError(err)
	_, err = registry.Register("conn-b", "bob")
	req.NoError(err)

	// When alice sends "hi" to bob
	msg, outcome := router.Route("conn-a", "bob", "hi")

	// Then bob receives it stamped with alice's name
	req.Equal(Delivered, outcome)
	req.Equal("alice", msg.From)
	req.Equal(time.Unix(1700000000, 0), msg.CreatedAt)
	req.Len(dir.delivered, 1)
	req.Equal(presence.ConnID("conn-b"), dir.delivered[0].conn)
	req.Equal(events.ReceiveMessage, dir.delivered[0].event)
	req.Equal(events.ReceiveMessageBody{From: "alice", Message: "hi"}, dir.delivered[0].body)
}

func TestRouter_Route_Unknown_Recipient_Is_Dropped(t *testing.T) {
	req := require.New(t)
	registry, dir, router := setup(t)
	_, err := registry.Register("conn-a", "alice")
	req.NoError(err)

	// When alice writes to someone who never registered
	_, outcome := router.Route("conn-a", "carol", "hi")

	// Then nothing is delivered anywhere
	req.Equal(RecipientUnavailable, outcome)
	req.Empty(dir.delivered)

	// And a later registration of carol does not receive the old message
	_, err = registry.Register("conn-c", "carol")
	req.NoError(err)
	req.Empty(dir.delivered)
}

func TestRouter_Route_Unregistered_Sender_Is_Dropped(t *testing.T) {
	req := require.New(t)
	registry, dir, router := setup(t)
	_, err := registry.Register("conn-b", "bob")
	req.NoError(err)

	_, outcome := router.Route("conn-x", "bob", "hi")

	req.Equal(UnregisteredSender, outcome)
	req.Empty(dir.delivered)
}

func TestRouter_Route_Does_Not_Echo_To_Sender(t *testing.T) {
	req := require.New(t)
	registry, dir, router := setup(t)
	_, err := registry.Register("conn-a", "alice")
	req.NoError(err)
	_, err = registry.Register("conn-b", "bob")
	req.NoError(err)

	router.Route("conn-a", "bob", "one")
	router.Route("conn-a", "bob", "two")

	req.Len(dir.delivered, 2)
	for _, d := range dir.delivered {
		req.NotEqual(presence.ConnID("conn-a"), d.conn)
	}
}

func TestRouter_Route_Closed_Recipient(t *testing.T) {
	req := require.New(t)
	registry, dir, router := setup(t)
	_, err := registry.Register("conn-a", "alice")
	req.NoError(err)
	_, err = registry.Register("conn-b", "bob")
	req.NoError(err)
	_, err = registry.Register("conn-c", "carol")
	req.NoError(err)
	dir.fail["conn-b"] = ErrConnGone
	dir.fail["conn-c"] = errors.New("queue full")

	_, outcome := router.Route("conn-a", "bob", "hi")
	req.Equal(RecipientUnavailable, outcome)

	_, outcome = router.Route("conn-a", "carol", "hi")
	req.Equal(DeliveryFailed, outcome)
}

func TestOutcome_String(t *testing.T) {
	req := require.New(t)
	req.Equal("delivered", Delivered.String())
	req.Equal("unregistered_sender", UnregisteredSender.String())
	req.Equal("recipient_unavailable", RecipientUnavailable.String())
	req.Equal("delivery_failed", DeliveryFailed.String())
	req.Equal("unknown", Outcome(42).String())
}
