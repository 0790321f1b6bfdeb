package entity

// ConversationSummary is one entry of a user's conversation list.
type ConversationSummary struct {
	User        UserSummary `json:"user"`
	LastMessage Message     `json:"lastMessage"`
	UnreadCount int         `json:"unreadCount"`
}
