package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
)

type VoteInput struct {
	Value *int `json:"value" binding:"required,oneof=-1 0 1"`
}

// VoteResult 投票后的状态
type VoteResult struct {
	Value     int   `json:"value"`
	VoteScore int64 `json:"voteScore"`
}

type VoteService interface {
	Vote(ctx context.Context, actor Actor, target model.VoteTarget, targetID string, value int) (*VoteResult, error)
}

type voteService struct {
	db    *gorm.DB
	authz authz.Authorizer
}

func NewVoteService(db *gorm.DB, az authz.Authorizer) VoteService {
	return &voteService{db: db, authz: az}
}

// Vote value 为 1/-1 设置投票，0 撤销；voteScore 按差值调整
func (s *voteService) Vote(ctx context.Context, actor Actor, target model.VoteTarget, targetID string, value int) (*VoteResult, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if value < -1 || value > 1 {
		return nil, apperrors.Validation("invalid vote",
			apperrors.FieldError{Field: "value", Message: "must be one of: -1 0 1"})
	}
	obj := authz.ObjClip
	if target == model.VoteTargetAnimator {
		obj = authz.ObjAnimator
	}
	if !s.authz.Can(actor.Role, obj, authz.ActVote) {
		return nil, apperrors.Forbidden("insufficient role to vote")
	}

	res := VoteResult{Value: value}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		votes := repository.NewVoteRepository(tx)

		var (
			adjust func(context.Context, string, int64) error
			score  func() (int64, error)
		)
		switch target {
		case model.VoteTargetClip:
			clips := repository.NewClipRepository(tx)
			clip, err := clips.GetByID(ctx, targetID)
			if err != nil {
				return translate(err, "clip")
			}
			if clip.SubmissionStatus != model.StatusApproved {
				return apperrors.NotFound("clip")
			}
			adjust = clips.AdjustVoteScore
			score = func() (int64, error) {
				c, err := clips.GetByID(ctx, targetID)
				if err != nil {
					return 0, err
				}
				return c.VoteScore, nil
			}
		case model.VoteTargetAnimator:
			animators := repository.NewAnimatorRepository(tx)
			if _, err := animators.GetByID(ctx, targetID); err != nil {
				return translate(err, "animator")
			}
			adjust = animators.AdjustVoteScore
			score = func() (int64, error) {
				a, err := animators.GetByID(ctx, targetID)
				if err != nil {
					return 0, err
				}
				return a.VoteScore, nil
			}
		default:
			return apperrors.Validation("unknown vote target")
		}

		prev, err := votes.Get(ctx, actor.UserID, target, targetID)
		if err != nil {
			return err
		}
		if value == 0 {
			err = votes.Clear(ctx, actor.UserID, target, targetID)
		} else if value != prev {
			err = votes.Set(ctx, actor.UserID, target, targetID, value)
		}
		if err != nil {
			return err
		}
		if delta := int64(value - prev); delta != 0 {
			if err := adjust(ctx, targetID, delta); err != nil {
				return err
			}
		}
		res.VoteScore, err = score()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
