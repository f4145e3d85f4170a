package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/model"
)

type VoteRepository interface {
	// Get 返回当前投票值，未投票为 0
	Get(ctx context.Context, userID string, target model.VoteTarget, targetID string) (int, error)
	Set(ctx context.Context, userID string, target model.VoteTarget, targetID string, value int) error
	Clear(ctx context.Context, userID string, target model.VoteTarget, targetID string) error
}

type voteRepository struct{ db *gorm.DB }

func NewVoteRepository(db *gorm.DB) VoteRepository { return &voteRepository{db: db} }

func (r *voteRepository) Get(ctx context.Context, userID string, target model.VoteTarget, targetID string) (int, error) {
	var v model.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target, targetID).
		First(&v).Error
	if IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v.Value, nil
}

func (r *voteRepository) Set(ctx context.Context, userID string, target model.VoteTarget, targetID string, value int) error {
	res := r.db.WithContext(ctx).Model(&model.Vote{}).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target, targetID).
		Update("value", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&model.Vote{
		ID:         uuid.New().String(),
		UserID:     userID,
		TargetType: target,
		TargetID:   targetID,
		Value:      value,
	}).Error
}

func (r *voteRepository) Clear(ctx context.Context, userID string, target model.VoteTarget, targetID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target, targetID).
		Delete(&model.Vote{}).Error
}
