package model

import "time"

// VerificationStatus 署名可信度
type VerificationStatus string

const (
	VerificationVerified    VerificationStatus = "VERIFIED"
	VerificationSpeculative VerificationStatus = "SPECULATIVE"
	VerificationDisputed    VerificationStatus = "DISPUTED"
)

// Rank 越小越可信
func (v VerificationStatus) Rank() int {
	switch v {
	case VerificationVerified:
		return 0
	case VerificationSpeculative:
		return 1
	case VerificationDisputed:
		return 2
	default:
		return 3
	}
}

func (v VerificationStatus) Valid() bool { return v.Rank() < 3 }

// 常见职务（Attribution.Role）
const (
	CreditKeyAnimation      = "KEY_ANIMATION"
	CreditAnimationDirector = "ANIMATION_DIRECTOR"
	CreditEffects           = "EFFECTS"
	CreditInBetween         = "IN_BETWEEN"
	CreditCharacterDesign   = "CHARACTER_DESIGN"
)

// Attribution 片段署名（Clip 与 Animator 的多对多关联）
type Attribution struct {
	ID                 string             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ClipID             string             `json:"clipId" gorm:"type:varchar(36);not null;index;uniqueIndex:idx_attr_triplet"`
	AnimatorID         string             `json:"animatorId" gorm:"type:varchar(36);not null;index;uniqueIndex:idx_attr_triplet"`
	Role               string             `json:"role" gorm:"type:varchar(32);not null;uniqueIndex:idx_attr_triplet"`
	VerificationStatus VerificationStatus `json:"verificationStatus" gorm:"type:varchar(16);not null;default:'SPECULATIVE'"`
	Source             string             `json:"source,omitempty" gorm:"type:text"`
	CreatedAt          time.Time          `json:"createdAt"`

	Animator *Animator `json:"animator,omitempty" gorm:"foreignKey:AnimatorID"`
	Clip     *Clip     `json:"clip,omitempty" gorm:"foreignKey:ClipID"`
}

func (Attribution) TableName() string { return "attributions" }

// BestVerification 返回 rank 最小的状态
func BestVerification(attrs []Attribution) *VerificationStatus {
	var best *VerificationStatus
	for i := range attrs {
		s := attrs[i].VerificationStatus
		if !s.Valid() {
			continue
		}
		if best == nil || s.Rank() < best.Rank() {
			v := s
			best = &v
		}
	}
	return best
}
