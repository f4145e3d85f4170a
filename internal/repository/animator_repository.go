package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/model"
)

type AnimatorRepository interface {
	Create(ctx context.Context, animator *model.Animator) error
	GetByID(ctx context.Context, id string) (*model.Animator, error)
	GetBySlug(ctx context.Context, slug string) (*model.Animator, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Animator, error)
	List(ctx context.Context, query string, offset, limit int) ([]*model.Animator, int64, error)
	Search(ctx context.Context, query string, limit int) ([]*model.Animator, error)
	Rank(ctx context.Context, offset, limit int) ([]*model.Animator, int64, error)
	AdjustFavoriteCount(ctx context.Context, id string, delta int64) error
	AdjustVoteScore(ctx context.Context, id string, delta int64) error
}

type animatorRepository struct{ db *gorm.DB }

func NewAnimatorRepository(db *gorm.DB) AnimatorRepository { return &animatorRepository{db: db} }

func (r *animatorRepository) Create(ctx context.Context, animator *model.Animator) error {
	return r.db.WithContext(ctx).Create(animator).Error
}

func (r *animatorRepository) GetByID(ctx context.Context, id string) (*model.Animator, error) {
	var a model.Animator
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *animatorRepository) GetBySlug(ctx context.Context, slug string) (*model.Animator, error) {
	var a model.Animator
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByIDs 批量查询，返回顺序不保证
func (r *animatorRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.Animator, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var res []*model.Animator
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&res).Error
	return res, err
}

func (r *animatorRepository) List(ctx context.Context, query string, offset, limit int) ([]*model.Animator, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Animator{})
	if s := strings.TrimSpace(query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(native_name) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Animator
	err := q.Order("name ASC").Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}

func (r *animatorRepository) Search(ctx context.Context, query string, limit int) ([]*model.Animator, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var res []*model.Animator
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(native_name) LIKE ?", like, like).
		Order("favorite_count DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *animatorRepository) Rank(ctx context.Context, offset, limit int) ([]*model.Animator, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Animator{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Animator
	err := r.db.WithContext(ctx).
		Order("vote_score DESC").Order("favorite_count DESC").Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, total, err
}

func (r *animatorRepository) AdjustFavoriteCount(ctx context.Context, id string, delta int64) error {
	res := r.db.WithContext(ctx).Model(&model.Animator{}).Where("id = ?", id).
		UpdateColumn("favorite_count", clampedDelta("favorite_count", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *animatorRepository) AdjustVoteScore(ctx context.Context, id string, delta int64) error {
	res := r.db.WithContext(ctx).Model(&model.Animator{}).Where("id = ?", id).
		UpdateColumn("vote_score", gorm.Expr("vote_score + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
