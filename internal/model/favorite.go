package model

import "time"

// Favorite 片段收藏（用户 A 收藏片段 C）
type Favorite struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;index:idx_fav_user;uniqueIndex:idx_fav_pair"`
	ClipID    string    `json:"clipId" gorm:"type:varchar(36);not null;index:idx_fav_clip;uniqueIndex:idx_fav_pair"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Favorite) TableName() string { return "favorites" }

// AnimatorFavorite 原画师收藏
type AnimatorFavorite struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `json:"userId" gorm:"type:varchar(36);not null;index:idx_afav_user;uniqueIndex:idx_afav_pair"`
	AnimatorID string    `json:"animatorId" gorm:"type:varchar(36);not null;index:idx_afav_animator;uniqueIndex:idx_afav_pair"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (AnimatorFavorite) TableName() string { return "animator_favorites" }
