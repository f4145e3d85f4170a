package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/model"
)

// RelationRepository 原画师关系链
type RelationRepository interface {
	Create(ctx context.Context, rel *model.AnimatorRelation) error
	Delete(ctx context.Context, animatorID, id string) error
	Exists(ctx context.Context, fromID, toID string, relType model.RelationType) (bool, error)
	ListOutgoing(ctx context.Context, animatorID string) ([]*model.AnimatorRelation, error)
	ListIncoming(ctx context.Context, animatorID string) ([]*model.AnimatorRelation, error)
}

type relationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) RelationRepository { return &relationRepository{db: db} }

// Create 重复关系由唯一索引拒绝（返回 ErrDuplicatedKey）
func (r *relationRepository) Create(ctx context.Context, rel *model.AnimatorRelation) error {
	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(rel).Error
}

// Delete 只删除与 animatorID 相连的关系
func (r *relationRepository) Delete(ctx context.Context, animatorID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND (from_animator_id = ? OR to_animator_id = ?)", id, animatorID, animatorID).
		Delete(&model.AnimatorRelation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *relationRepository) Exists(ctx context.Context, fromID, toID string, relType model.RelationType) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.AnimatorRelation{}).
		Where("from_animator_id = ? AND to_animator_id = ? AND relation_type = ?", fromID, toID, relType).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *relationRepository) ListOutgoing(ctx context.Context, animatorID string) ([]*model.AnimatorRelation, error) {
	var res []*model.AnimatorRelation
	err := r.db.WithContext(ctx).Where("from_animator_id = ?", animatorID).Order("created_at ASC").Find(&res).Error
	return res, err
}

func (r *relationRepository) ListIncoming(ctx context.Context, animatorID string) ([]*model.AnimatorRelation, error) {
	var res []*model.AnimatorRelation
	err := r.db.WithContext(ctx).Where("to_animator_id = ?", animatorID).Order("created_at ASC").Find(&res).Error
	return res, err
}
