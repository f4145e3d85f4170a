package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/model"
)

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	ListByClip(ctx context.Context, clipID string, offset, limit int) ([]*model.Comment, int64, error)
}

type commentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// ListByClip 按时间正序
func (r *commentRepository) ListByClip(ctx context.Context, clipID string, offset, limit int) ([]*model.Comment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Comment{}).Where("clip_id = ?", clipID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Comment
	err := q.Preload("User").Order("created_at ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}
