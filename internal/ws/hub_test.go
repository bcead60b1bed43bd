package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/b10856039/chat-web-app-backend-render/internal/models"
)

func newTestClient(userID int) *Client {
	return NewClient(nil, userID)
}

func drainEvent(t *testing.T, c *Client) models.RoomEvent {
	t.Helper()
	select {
	case payload := <-c.send:
		var event models.RoomEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	default:
		t.Fatal("no event queued")
		return models.RoomEvent{}
	}
}

func requireNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected event queued: %s", payload)
	default:
	}
}

func TestBroadcastReachesAllSubscribersIncludingSender(t *testing.T) {
	hub := NewHub(zap.NewNop())
	sender := newTestClient(1)
	peer := newTestClient(2)
	outsider := newTestClient(3)
	for _, c := range []*Client{sender, peer, outsider} {
		hub.Register(c)
	}
	hub.Subscribe(sender, 7)
	hub.Subscribe(peer, 7)

	hub.BroadcastMessage(7, models.Message{ID: 11, RoomID: 7, UserID: 1, Content: "hi"})

	for _, c := range []*Client{sender, peer} {
		event := drainEvent(t, c)
		require.Equal(t, models.EventMessageReceived, event.Type)
		require.Equal(t, 7, event.RoomID)
		require.NotNil(t, event.Message)
		require.Equal(t, 11, event.Message.ID)
	}
	requireNoEvent(t, outsider)
}

func TestSubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(1)
	hub.Register(client)
	hub.Subscribe(client, 7)
	hub.Subscribe(client, 7)

	hub.BroadcastMessage(7, models.Message{ID: 11, RoomID: 7})

	drainEvent(t, client)
	requireNoEvent(t, client)
}

func TestSubscribeUnregisteredClientIgnored(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(1)
	hub.Subscribe(client, 7)

	hub.BroadcastMessage(7, models.Message{ID: 11, RoomID: 7})
	requireNoEvent(t, client)
}

func TestUnregisterCleansEveryRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(1)
	peer := newTestClient(2)
	hub.Register(client)
	hub.Register(peer)
	for _, roomID := range []int{7, 8, 9} {
		hub.Subscribe(client, roomID)
	}
	hub.Subscribe(peer, 8)

	hub.Unregister(client)

	for _, roomID := range []int{7, 8, 9} {
		hub.BroadcastMessage(roomID, models.Message{ID: roomID, RoomID: roomID})
	}
	drainEvent(t, peer)
	require.Equal(t, 1, hub.ActiveConnections())

	hub.Unregister(peer)
	require.Zero(t, hub.ActiveConnections())
}

func TestEnqueueAfterDisconnectIsSafe(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(1)
	peer := newTestClient(2)
	hub.Register(client)
	hub.Register(peer)
	hub.Subscribe(client, 7)
	hub.Subscribe(peer, 7)

	// A broadcaster can snapshot the room group, lose the race with
	// Unregister, and only then deliver. Replaying that order must not
	// panic on the departed connection's closed channel.
	hub.mu.RLock()
	group := make([]*Client, 0, len(hub.rooms[7]))
	for c := range hub.rooms[7] {
		group = append(group, c)
	}
	hub.mu.RUnlock()

	hub.Unregister(client)

	payload, err := json.Marshal(models.RoomEvent{Type: models.EventMessageReceived, RoomID: 7})
	require.NoError(t, err)
	for _, c := range group {
		if c == client {
			require.False(t, c.enqueue(payload))
		} else {
			require.True(t, c.enqueue(payload))
		}
	}
	event := drainEvent(t, peer)
	require.Equal(t, models.EventMessageReceived, event.Type)

	// Direct delivery to the departed connection stays a no-op too.
	hub.SendError(client, "send failed")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(1)
	hub.Register(client)
	hub.Subscribe(client, 7)
	hub.Unsubscribe(client, 7)

	hub.BroadcastMessage(7, models.Message{ID: 11, RoomID: 7})
	requireNoEvent(t, client)
	require.Empty(t, hub.Subscriptions(client))
}

func TestUnsubscribeUserDropsAllTheirConnections(t *testing.T) {
	hub := NewHub(zap.NewNop())
	first := newTestClient(5)
	second := newTestClient(5)
	peer := newTestClient(2)
	for _, c := range []*Client{first, second, peer} {
		hub.Register(c)
		hub.Subscribe(c, 7)
	}

	hub.UnsubscribeUser(5, 7, "kicked from room")

	for _, c := range []*Client{first, second} {
		event := drainEvent(t, c)
		require.Equal(t, models.EventRoomLeft, event.Type)
		require.Equal(t, "kicked from room", event.Reason)
	}

	hub.BroadcastMessage(7, models.Message{ID: 11, RoomID: 7})
	drainEvent(t, peer)
	requireNoEvent(t, first)
	requireNoEvent(t, second)
}

func TestDropRoomNotifiesEveryone(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a := newTestClient(1)
	b := newTestClient(2)
	for _, c := range []*Client{a, b} {
		hub.Register(c)
		hub.Subscribe(c, 7)
	}

	hub.DropRoom(7, "room deleted")

	for _, c := range []*Client{a, b} {
		event := drainEvent(t, c)
		require.Equal(t, models.EventRoomLeft, event.Type)
		require.Equal(t, "room deleted", event.Reason)
	}

	hub.BroadcastMessage(7, models.Message{ID: 11, RoomID: 7})
	requireNoEvent(t, a)
	requireNoEvent(t, b)
}

func TestSendErrorIsCallerScoped(t *testing.T) {
	hub := NewHub(zap.NewNop())
	caller := newTestClient(1)
	peer := newTestClient(2)
	hub.Register(caller)
	hub.Register(peer)
	hub.Subscribe(caller, 7)
	hub.Subscribe(peer, 7)

	hub.SendError(caller, "not an active member of the room")

	event := drainEvent(t, caller)
	require.Equal(t, models.EventOperationFailed, event.Type)
	require.Equal(t, "not an active member of the room", event.Reason)
	requireNoEvent(t, peer)
}
