package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/sakugabase/internal/model"
)

// FavoriteRepository 收藏关系（片段、原画师），(user, target) 唯一
type FavoriteRepository interface {
	AddClip(ctx context.Context, userID, clipID string) (bool, error)
	RemoveClip(ctx context.Context, userID, clipID string) (bool, error)
	HasClip(ctx context.Context, userID, clipID string) (bool, error)
	ClipIDsFavorited(ctx context.Context, userID string, clipIDs []string) (map[string]bool, error)
	ListClips(ctx context.Context, userID string, offset, limit int) ([]*model.Clip, int64, error)

	AddAnimator(ctx context.Context, userID, animatorID string) (bool, error)
	RemoveAnimator(ctx context.Context, userID, animatorID string) (bool, error)
	HasAnimator(ctx context.Context, userID, animatorID string) (bool, error)
}

type favoriteRepository struct{ db *gorm.DB }

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository { return &favoriteRepository{db: db} }

// AddClip 幂等：已收藏返回 false
func (r *favoriteRepository) AddClip(ctx context.Context, userID, clipID string) (bool, error) {
	f := &model.Favorite{ID: uuid.New().String(), UserID: userID, ClipID: clipID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f)
	return res.RowsAffected == 1, res.Error
}

func (r *favoriteRepository) RemoveClip(ctx context.Context, userID, clipID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND clip_id = ?", userID, clipID).Delete(&model.Favorite{})
	return res.RowsAffected > 0, res.Error
}

func (r *favoriteRepository) HasClip(ctx context.Context, userID, clipID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND clip_id = ?", userID, clipID).Count(&cnt).Error
	return cnt > 0, err
}

// ClipIDsFavorited 批量判断列表中哪些片段已收藏
func (r *favoriteRepository) ClipIDsFavorited(ctx context.Context, userID string, clipIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(clipIDs))
	if userID == "" || len(clipIDs) == 0 {
		return out, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND clip_id IN ?", userID, clipIDs).
		Pluck("clip_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *favoriteRepository) ListClips(ctx context.Context, userID string, offset, limit int) ([]*model.Clip, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Favorite{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Clip
	err := r.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.clip_id = clips.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, total, err
}

func (r *favoriteRepository) AddAnimator(ctx context.Context, userID, animatorID string) (bool, error) {
	f := &model.AnimatorFavorite{ID: uuid.New().String(), UserID: userID, AnimatorID: animatorID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f)
	return res.RowsAffected == 1, res.Error
}

func (r *favoriteRepository) RemoveAnimator(ctx context.Context, userID, animatorID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND animator_id = ?", userID, animatorID).Delete(&model.AnimatorFavorite{})
	return res.RowsAffected > 0, res.Error
}

func (r *favoriteRepository) HasAnimator(ctx context.Context, userID, animatorID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.AnimatorFavorite{}).
		Where("user_id = ? AND animator_id = ?", userID, animatorID).Count(&cnt).Error
	return cnt > 0, err
}
