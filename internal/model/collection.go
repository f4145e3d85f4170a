package model

import "time"

// Collection 用户片段合集
type Collection struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `json:"userId" gorm:"type:varchar(36);not null;index"`
	Title       string    `json:"title" gorm:"type:varchar(200);not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	IsPublic    bool      `json:"isPublic" gorm:"not null;default:false"`
	ClipCount   int64     `json:"clipCount" gorm:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Collection) TableName() string { return "collections" }

// CollectionClip 合集条目
type CollectionClip struct {
	CollectionID string    `json:"collectionId" gorm:"primaryKey;type:varchar(36)"`
	ClipID       string    `json:"clipId" gorm:"primaryKey;type:varchar(36);index"`
	Position     int       `json:"position" gorm:"not null;default:0"`
	AddedAt      time.Time `json:"addedAt" gorm:"autoCreateTime"`

	Clip *Clip `json:"clip,omitempty" gorm:"foreignKey:ClipID"`
}

func (CollectionClip) TableName() string { return "collection_clips" }
