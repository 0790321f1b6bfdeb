package ws

import (
	"context"
	"sync"

	"comictalk/internal/entity"

	"github.com/rs/zerolog"
)

// Hub owns presence and room membership for one server instance. Broadcasts
// to every connection are queued to the Run loop.
type Hub struct {
	presence  *Presence
	rooms     *roomRegistry
	broadcast chan []byte
	// presenceChanged holds at most one pending signal; the online set is
	// read when the signal is handled, so pending changes coalesce.
	presenceChanged chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	log       zerolog.Logger

	mu     sync.RWMutex
	onDrop func(userId int64)
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		presence:  NewPresence(),
		rooms:     newRoomRegistry(),
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
		log:       log,

		presenceChanged: make(chan struct{}, 1),
	}
}

// Run delivers queued broadcasts until ctx is cancelled or Shutdown is
// called, then closes every registered client.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case message := <-h.broadcast:
			for _, client := range h.presence.snapshot() {
				h.deliver(client, message)
			}
		case <-h.presenceChanged:
			h.broadcastOnline()
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Presence() *Presence {
	return h.presence
}

// Broadcast queues message for every connected client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// NotifyPresenceChanged asks the Run loop to send the current online set to
// every connection. It never blocks.
func (h *Hub) NotifyPresenceChanged() {
	select {
	case h.presenceChanged <- struct{}{}:
	default:
	}
}

// SendToUser delivers message to the user's current connection, if any.
func (h *Hub) SendToUser(userId int64, message []byte) bool {
	client, ok := h.presence.HandleFor(userId)
	if !ok {
		return false
	}
	return h.deliver(client, message)
}

// Deliver sends message once to each distinct client and returns how many
// accepted it.
func (h *Hub) Deliver(message []byte, clients ...*UserClient) int {
	seen := make(map[*UserClient]struct{}, len(clients))
	delivered := 0
	for _, client := range clients {
		if client == nil {
			continue
		}
		if _, dup := seen[client]; dup {
			continue
		}
		seen[client] = struct{}{}
		if h.deliver(client, message) {
			delivered++
		}
	}
	return delivered
}

// Join subscribes client to room. Joining twice is a no-op.
func (h *Hub) Join(client *UserClient, room string) {
	h.rooms.join(room, client)
}

func (h *Hub) LeaveAll(client *UserClient) {
	h.rooms.leaveAll(client)
}

func (h *Hub) RoomMembers(room string) []*UserClient {
	return h.rooms.list(room)
}

func (h *Hub) GetClientCount() int {
	return h.presence.Count()
}

func (h *Hub) SetOnDrop(callback func(userId int64)) {
	h.mu.Lock()
	h.onDrop = callback
	h.mu.Unlock()
}

func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) deliver(client *UserClient, message []byte) bool {
	if client.Send(message) {
		return true
	}

	h.log.Debug().Int64("user_id", client.UserId).Msg("delivery dropped")
	h.mu.RLock()
	onDrop := h.onDrop
	h.mu.RUnlock()
	if onDrop != nil {
		onDrop(client.UserId)
	}
	return false
}

func (h *Hub) broadcastOnline() {
	payload, err := entity.EncodeEvent(entity.EventOnlineUsers, h.presence.ListOnline())
	if err != nil {
		h.log.Error().Err(err).Msg("encode onlineUsers")
		return
	}
	for _, client := range h.presence.snapshot() {
		h.deliver(client, payload)
	}
}

func (h *Hub) closeAll() {
	clients := h.presence.snapshot()
	for _, client := range clients {
		client.Close()
	}
	h.log.Info().Int("clients", len(clients)).Msg("hub stopped")
}
