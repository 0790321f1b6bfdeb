package ws

import (
	"strconv"
	"sync"
)

// RoomKey is the canonical "min-max" key of a two-party conversation.
func RoomKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return strconv.FormatInt(a, 10) + "-" + strconv.FormatInt(b, 10)
}

type roomRegistry struct {
	mu      sync.RWMutex
	members map[string]map[*UserClient]struct{}
	joined  map[*UserClient]map[string]struct{}
}

func newRoomRegistry() *roomRegistry {
	return &roomRegistry{
		members: make(map[string]map[*UserClient]struct{}),
		joined:  make(map[*UserClient]map[string]struct{}),
	}
}

func (r *roomRegistry) join(room string, client *UserClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.members[room] == nil {
		r.members[room] = make(map[*UserClient]struct{})
	}
	r.members[room][client] = struct{}{}

	if r.joined[client] == nil {
		r.joined[client] = make(map[string]struct{})
	}
	r.joined[client][room] = struct{}{}
}

func (r *roomRegistry) leaveAll(client *UserClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.joined[client] {
		delete(r.members[room], client)
		if len(r.members[room]) == 0 {
			delete(r.members, room)
		}
	}
	delete(r.joined, client)
}

func (r *roomRegistry) list(room string) []*UserClient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*UserClient, 0, len(r.members[room]))
	for client := range r.members[room] {
		clients = append(clients, client)
	}
	return clients
}

func (r *roomRegistry) roomsOf(client *UserClient) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.joined[client])
}
