package model

import "time"

// Comment 片段评论
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ClipID    string    `json:"clipId" gorm:"type:varchar(36);not null;index:idx_comment_clip"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;index"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_comment_clip"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Comment) TableName() string { return "comments" }
