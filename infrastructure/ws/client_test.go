package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// TestClientPumps verifies frames are read in order, echoed through the send
// channel, and that Close ends the connection from the server side.
func TestClientPumps(t *testing.T) {
	upgrader := websocket.Upgrader{}
	serverClient := make(chan *UserClient, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(1, conn, ClientConfig{MaxMessageSize: 1024, RateLimitBurst: 10, RateLimitInterval: time.Second}, zerolog.Nop())
		serverClient <- c
		go c.WritePump()
		c.ReadPump(func(data []byte) {
			c.Send(append([]byte("echo:"), data...))
		}, nil)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	for _, msg := range []string{"one", "two"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("WriteMessage() error = %v", err)
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range []string{"echo:one", "echo:two"} {
		_, got, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		if string(got) != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}

	c := <-serverClient
	c.Close()

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
		t.Errorf("Expected close frame after Close(), got %v", err)
	}
}

// TestClientReadLimit verifies oversized frames terminate the read loop.
func TestClientReadLimit(t *testing.T) {
	upgrader := websocket.Upgrader{}
	finished := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(1, conn, ClientConfig{MaxMessageSize: 16, RateLimitBurst: 10}, zerolog.Nop())
		c.ReadPump(func([]byte) {}, nil)
		close(finished)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_ = conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64)))

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("ReadPump did not stop on oversized frame")
	}
}

// TestClientRateLimitReportsThrottledFrames verifies frames over the limit are
// not handled and that the sender hears about each one.
func TestClientRateLimitReportsThrottledFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(1, conn, ClientConfig{MaxMessageSize: 1024, RateLimitBurst: 1, RateLimitInterval: time.Hour}, zerolog.Nop())
		go c.WritePump()
		c.ReadPump(func(data []byte) {
			c.Send(append([]byte("echo:"), data...))
		}, func() {
			c.Send([]byte("throttled"))
		})
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	for _, msg := range []string{"one", "two"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("WriteMessage() error = %v", err)
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range []string{"echo:one", "throttled"} {
		_, got, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		if string(got) != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
