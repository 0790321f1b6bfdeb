package ws

import "context"

type IHub interface {
	Run(ctx context.Context)
	Presence() *Presence
	Broadcast(message []byte)
	NotifyPresenceChanged()
	SendToUser(userId int64, message []byte) bool
	Deliver(message []byte, clients ...*UserClient) int
	Join(client *UserClient, room string)
	LeaveAll(client *UserClient)
	RoomMembers(room string) []*UserClient
	GetClientCount() int
	SetOnDrop(callback func(userId int64))
	Shutdown()
}

var _ IHub = (*Hub)(nil)
