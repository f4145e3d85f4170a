package model

import "time"

// RelationType 原画师关系类型
type RelationType string

const (
	RelationMentor    RelationType = "MENTOR"
	RelationColleague RelationType = "COLLEAGUE"
	RelationInfluence RelationType = "INFLUENCE"
)

func (t RelationType) Valid() bool {
	switch t {
	case RelationMentor, RelationColleague, RelationInfluence:
		return true
	}
	return false
}

// AnimatorRelation 有向关系（From 指向 To，如 From 是 To 的师傅）
type AnimatorRelation struct {
	ID             string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FromAnimatorID string       `json:"fromAnimatorId" gorm:"type:varchar(36);not null;index:idx_rel_from;uniqueIndex:idx_rel_triplet"`
	ToAnimatorID   string       `json:"toAnimatorId" gorm:"type:varchar(36);not null;index:idx_rel_to;uniqueIndex:idx_rel_triplet"`
	RelationType   RelationType `json:"relationType" gorm:"type:varchar(16);not null;uniqueIndex:idx_rel_triplet"`
	// 复合唯一键，避免重复关系
	// idx_rel_triplet = (from_animator_id, to_animator_id, relation_type)
	Note      string    `json:"note,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (AnimatorRelation) TableName() string { return "animator_relations" }
