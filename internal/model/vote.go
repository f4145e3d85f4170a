package model

import "time"

// VoteTarget 投票对象类型
type VoteTarget string

const (
	VoteTargetClip     VoteTarget = "CLIP"
	VoteTargetAnimator VoteTarget = "ANIMATOR"
)

// Vote 社区投票，每个用户对同一对象只有一票
type Vote struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex:idx_vote_triplet"`
	TargetType VoteTarget `json:"targetType" gorm:"type:varchar(16);not null;uniqueIndex:idx_vote_triplet"`
	TargetID   string     `json:"targetId" gorm:"type:varchar(36);not null;uniqueIndex:idx_vote_triplet;index"`
	Value      int        `json:"value" gorm:"not null"` // 1 or -1
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (Vote) TableName() string { return "votes" }
