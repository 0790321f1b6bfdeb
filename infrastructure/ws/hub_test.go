package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func receive(t *testing.T, c *UserClient) string {
	t.Helper()
	select {
	case msg, ok := <-c.SendChan():
		if !ok {
			t.Fatal("send channel closed")
		}
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func expectEmpty(t *testing.T, c *UserClient) {
	t.Helper()
	select {
	case msg := <-c.SendChan():
		t.Fatalf("Expected no message, got %q", msg)
	default:
	}
}

// TestHubBroadcast verifies queued broadcasts reach every registered client.
func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a, b := newTestClient(1), newTestClient(2)
	hub.Presence().Register(a)
	hub.Presence().Register(b)

	hub.Broadcast([]byte("hello"))

	if got := receive(t, a); got != "hello" {
		t.Errorf("a got %q", got)
	}
	if got := receive(t, b); got != "hello" {
		t.Errorf("b got %q", got)
	}
}

// TestHubDeliverDeduplicates verifies a client listed twice receives one copy.
func TestHubDeliverDeduplicates(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, b := newTestClient(1), newTestClient(2)
	hub.Join(a, RoomKey(1, 2))
	hub.Join(b, RoomKey(1, 2))

	targets := append([]*UserClient{b}, hub.RoomMembers(RoomKey(1, 2))...)
	if n := hub.Deliver([]byte("m"), targets...); n != 2 {
		t.Errorf("Expected 2 deliveries, got %d", n)
	}

	receive(t, b)
	expectEmpty(t, b)
	receive(t, a)
}

// TestHubSendToUser verifies direct delivery only reaches online users.
func TestHubSendToUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := newTestClient(1)
	hub.Presence().Register(a)

	if !hub.SendToUser(1, []byte("direct")) {
		t.Error("Expected delivery to online user")
	}
	if hub.SendToUser(2, []byte("direct")) {
		t.Error("Expected no delivery to offline user")
	}
	if got := receive(t, a); got != "direct" {
		t.Errorf("Got %q", got)
	}
}

// TestHubDropsToClosedClient verifies closed clients are skipped and reported.
func TestHubDropsToClosedClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	var drops atomic.Int32
	hub.SetOnDrop(func(int64) { drops.Add(1) })

	a := newTestClient(1)
	hub.Presence().Register(a)
	a.Close()
	a.Close()

	if hub.SendToUser(1, []byte("x")) {
		t.Error("Expected delivery to closed client to fail")
	}
	if drops.Load() != 1 {
		t.Errorf("Expected 1 drop, got %d", drops.Load())
	}
}

// TestHubRunClosesClientsOnShutdown verifies cancelling Run closes every client.
func TestHubRunClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := newTestClient(1)
	hub.Presence().Register(a)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if !a.IsClosed() {
		t.Error("Expected client closed after shutdown")
	}
	// Broadcast after shutdown must not block.
	hub.Broadcast([]byte("late"))
}

// TestHubPresenceChangesCoalesce verifies pending presence signals collapse into
// one onlineUsers frame carrying the set at send time.
func TestHubPresenceChangesCoalesce(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, b := newTestClient(1), newTestClient(2)

	hub.Presence().Register(a)
	hub.NotifyPresenceChanged()
	hub.Presence().Register(b)
	hub.NotifyPresenceChanged()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	var frame struct {
		Event string  `json:"event"`
		Data  []int64 `json:"data"`
	}
	if err := json.Unmarshal([]byte(receive(t, a)), &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Event != "onlineUsers" || len(frame.Data) != 2 || frame.Data[0] != 1 || frame.Data[1] != 2 {
		t.Errorf("Unexpected frame %+v", frame)
	}

	receive(t, b)
	time.Sleep(20 * time.Millisecond)
	expectEmpty(t, a)
	expectEmpty(t, b)
}
