package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/sakugabase/internal/model"
)

type CollectionRepository interface {
	Create(ctx context.Context, c *model.Collection) error
	GetByID(ctx context.Context, id string) (*model.Collection, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Collection, int64, error)
	Delete(ctx context.Context, id string) error
	AddClip(ctx context.Context, collectionID, clipID string) (bool, error)
	RemoveClip(ctx context.Context, collectionID, clipID string) (bool, error)
	ListClips(ctx context.Context, collectionID string) ([]*model.CollectionClip, error)
	CountClips(ctx context.Context, collectionIDs []string) (map[string]int64, error)
}

type collectionRepository struct{ db *gorm.DB }

func NewCollectionRepository(db *gorm.DB) CollectionRepository { return &collectionRepository{db: db} }

func (r *collectionRepository) Create(ctx context.Context, c *model.Collection) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *collectionRepository) GetByID(ctx context.Context, id string) (*model.Collection, error) {
	var c model.Collection
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *collectionRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Collection, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Collection{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Collection
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}

// Delete 连同条目一起删除
func (r *collectionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&model.CollectionClip{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Collection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddClip 追加到末尾；已存在时返回 false
func (r *collectionRepository) AddClip(ctx context.Context, collectionID, clipID string) (bool, error) {
	var added bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&model.CollectionClip{}).
			Where("collection_id = ?", collectionID).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error; err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.CollectionClip{
			CollectionID: collectionID,
			ClipID:       clipID,
			Position:     next,
		})
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected == 1
		return nil
	})
	return added, err
}

func (r *collectionRepository) RemoveClip(ctx context.Context, collectionID, clipID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("collection_id = ? AND clip_id = ?", collectionID, clipID).
		Delete(&model.CollectionClip{})
	return res.RowsAffected > 0, res.Error
}

func (r *collectionRepository) ListClips(ctx context.Context, collectionID string) ([]*model.CollectionClip, error) {
	var res []*model.CollectionClip
	err := r.db.WithContext(ctx).
		Preload("Clip").
		Where("collection_id = ?", collectionID).
		Order("position ASC").
		Find(&res).Error
	return res, err
}

func (r *collectionRepository) CountClips(ctx context.Context, collectionIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(collectionIDs))
	if len(collectionIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		CollectionID string
		N            int64
	}
	if err := r.db.WithContext(ctx).Model(&model.CollectionClip{}).
		Select("collection_id, COUNT(*) AS n").
		Where("collection_id IN ?", collectionIDs).
		Group("collection_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CollectionID] = row.N
	}
	return out, nil
}
