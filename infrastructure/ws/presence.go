package ws

import (
	"slices"
	"sync"
)

// Presence maps each connected user to its active connection. A reconnect
// replaces the previous handle for that user.
type Presence struct {
	mu      sync.RWMutex
	clients map[int64]*UserClient
}

func NewPresence() *Presence {
	return &Presence{
		clients: make(map[int64]*UserClient),
	}
}

// Register stores client as the handle for its user and returns the handle it
// replaced, if any.
func (p *Presence) Register(client *UserClient) *UserClient {
	p.mu.Lock()
	defer p.mu.Unlock()

	previous := p.clients[client.UserId]
	p.clients[client.UserId] = client
	if previous == client {
		return nil
	}
	return previous
}

func (p *Presence) Unregister(userId int64) {
	p.mu.Lock()
	delete(p.clients, userId)
	p.mu.Unlock()
}

// Release removes the entry for userId only while it still points at client,
// so a stale connection cannot evict a newer one.
func (p *Presence) Release(userId int64, client *UserClient) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current, ok := p.clients[userId]; ok && current == client {
		delete(p.clients, userId)
		return true
	}
	return false
}

// ListOnline returns a sorted snapshot of the connected user ids.
func (p *Presence) ListOnline() []int64 {
	p.mu.RLock()
	ids := make([]int64, 0, len(p.clients))
	for id := range p.clients {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

func (p *Presence) IsOnline(userId int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.clients[userId]
	return ok
}

func (p *Presence) HandleFor(userId int64) (*UserClient, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.clients[userId]
	return client, ok
}

func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

func (p *Presence) snapshot() []*UserClient {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clients := make([]*UserClient, 0, len(p.clients))
	for _, client := range p.clients {
		clients = append(clients, client)
	}
	return clients
}
