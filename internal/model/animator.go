package model

import "time"

// Animator 原画师档案
type Animator struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Slug          string    `json:"slug" gorm:"type:varchar(160);uniqueIndex;not null"`
	Name          string    `json:"name" gorm:"type:varchar(128);not null;index"`
	NativeName    string    `json:"nativeName,omitempty" gorm:"type:varchar(128)"`
	Bio           string    `json:"bio,omitempty" gorm:"type:text"`
	AvatarURL     string    `json:"avatarUrl,omitempty" gorm:"type:text"`
	FavoriteCount int64     `json:"favoriteCount" gorm:"not null;default:0"`
	VoteScore     int64     `json:"voteScore" gorm:"not null;default:0;index"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Animator) TableName() string { return "animators" }
