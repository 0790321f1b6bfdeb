package entity

import "time"

type Message struct {
	Id         int64     `bson:"_id" json:"messageId" gorm:"primaryKey;autoIncrement"`
	SenderId   int64     `bson:"senderId" json:"senderId" gorm:"not null;index:idx_messages_pair"`
	ReceiverId int64     `bson:"receiverId" json:"receiverId" gorm:"not null;index:idx_messages_pair"`
	Message    string    `bson:"message" json:"message" gorm:"type:text;not null"`
	IsRead     bool      `bson:"isRead" json:"isRead" gorm:"not null;default:false"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt" gorm:"index"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (Message) TableName() string {
	return "messages"
}

// Counterpart returns the other participant of the message as seen by userId.
func (m Message) Counterpart(userId int64) int64 {
	if m.SenderId == userId {
		return m.ReceiverId
	}
	return m.SenderId
}

// After reports whether m is more recent than other in conversation order.
func (m Message) After(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.Id > other.Id
	}
	return m.CreatedAt.After(other.CreatedAt)
}

type SendMessageRequest struct {
	ReceiverId int64  `json:"receiverId"`
	Message    string `json:"message"`
}
