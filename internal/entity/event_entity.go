package entity

import "encoding/json"

// Real-time event names exchanged over the websocket.
const (
	EventJoinChat    = "joinChat"
	EventSendMessage = "sendMessage"
	EventMarkAsRead  = "markAsRead"
	EventOnlineUsers = "onlineUsers"
	EventNewMessage  = "newMessage"
	EventError       = "error"
)

// Event is the envelope of every websocket frame.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type OutgoingEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// EncodeEvent marshals a server-initiated event.
func EncodeEvent(name string, data any) ([]byte, error) {
	return json.Marshal(OutgoingEvent{Event: name, Data: data})
}
