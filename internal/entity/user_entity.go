package entity

import "time"

type User struct {
	Id           int64      `bson:"_id" json:"userId" gorm:"primaryKey;autoIncrement"`
	Email        string     `bson:"email" json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `bson:"passwordHash" json:"-" gorm:"not null"` // Don't expose password in JSON
	Fullname     string     `bson:"fullname" json:"fullname"`
	Avatar       string     `bson:"avatar,omitempty" json:"avatar,omitempty"`
	LastSeenAt   *time.Time `bson:"lastSeenAt,omitempty" json:"lastSeenAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary is the public projection of a user embedded in chat payloads.
type UserSummary struct {
	Id       int64  `json:"userId"`
	Fullname string `json:"fullname,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		Id:       u.Id,
		Fullname: u.Fullname,
		Avatar:   u.Avatar,
	}
}

// UpdateProfileRequest changes the caller's public profile. Omitted fields are
// left as they are; an empty avatar clears it.
type UpdateProfileRequest struct {
	Fullname *string `json:"fullname,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

type ProfileResponse struct {
	User     User `json:"user"`
	IsOnline bool `json:"isOnline"`
}
