package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/storage"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/pagination"
)

// ToggleResult 切换后的收藏状态
type ToggleResult struct {
	Favorited     bool  `json:"favorited"`
	FavoriteCount int64 `json:"favoriteCount"`
}

type FavoriteService interface {
	ToggleClip(ctx context.Context, actor Actor, clipID string) (*ToggleResult, error)
	ToggleAnimator(ctx context.Context, actor Actor, animatorID string) (*ToggleResult, error)
	ListClips(ctx context.Context, actor Actor, page pagination.Page) ([]*model.Clip, int64, error)
}

type favoriteService struct {
	db       *gorm.DB
	authz    authz.Authorizer
	resolver storage.URLResolver
}

func NewFavoriteService(db *gorm.DB, az authz.Authorizer, resolver storage.URLResolver) FavoriteService {
	return &favoriteService{db: db, authz: az, resolver: resolver}
}

// ToggleClip 已收藏则取消并减计数，否则收藏并加计数；同一事务
func (s *favoriteService) ToggleClip(ctx context.Context, actor Actor, clipID string) (*ToggleResult, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if !s.authz.Can(actor.Role, authz.ObjClip, authz.ActFavorite) {
		return nil, apperrors.Forbidden("insufficient role to favorite clips")
	}

	var res ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clips := repository.NewClipRepository(tx)
		favs := repository.NewFavoriteRepository(tx)

		clip, err := clips.GetByID(ctx, clipID)
		if err != nil {
			return translate(err, "clip")
		}
		if clip.SubmissionStatus != model.StatusApproved {
			return apperrors.NotFound("clip")
		}

		removed, err := favs.RemoveClip(ctx, actor.UserID, clipID)
		if err != nil {
			return err
		}
		if removed {
			if err := clips.AdjustFavoriteCount(ctx, clipID, -1); err != nil {
				return err
			}
		} else {
			added, err := favs.AddClip(ctx, actor.UserID, clipID)
			if err != nil {
				return err
			}
			if added {
				if err := clips.AdjustFavoriteCount(ctx, clipID, 1); err != nil {
					return err
				}
			}
		}
		res.Favorited = !removed

		updated, err := clips.GetByID(ctx, clipID)
		if err != nil {
			return err
		}
		res.FavoriteCount = updated.FavoriteCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *favoriteService) ToggleAnimator(ctx context.Context, actor Actor, animatorID string) (*ToggleResult, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if !s.authz.Can(actor.Role, authz.ObjAnimator, authz.ActFavorite) {
		return nil, apperrors.Forbidden("insufficient role to favorite animators")
	}

	var res ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		animators := repository.NewAnimatorRepository(tx)
		favs := repository.NewFavoriteRepository(tx)

		if _, err := animators.GetByID(ctx, animatorID); err != nil {
			return translate(err, "animator")
		}

		removed, err := favs.RemoveAnimator(ctx, actor.UserID, animatorID)
		if err != nil {
			return err
		}
		if removed {
			if err := animators.AdjustFavoriteCount(ctx, animatorID, -1); err != nil {
				return err
			}
		} else {
			added, err := favs.AddAnimator(ctx, actor.UserID, animatorID)
			if err != nil {
				return err
			}
			if added {
				if err := animators.AdjustFavoriteCount(ctx, animatorID, 1); err != nil {
					return err
				}
			}
		}
		res.Favorited = !removed

		updated, err := animators.GetByID(ctx, animatorID)
		if err != nil {
			return err
		}
		res.FavoriteCount = updated.FavoriteCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListClips 当前用户收藏的片段，最近收藏在前
func (s *favoriteService) ListClips(ctx context.Context, actor Actor, page pagination.Page) ([]*model.Clip, int64, error) {
	if err := requireAuth(actor); err != nil {
		return nil, 0, err
	}
	clips, total, err := repository.NewFavoriteRepository(s.db).ListClips(ctx, actor.UserID, page.Offset(), page.Limit)
	if err != nil {
		return nil, 0, err
	}
	for _, c := range clips {
		presentClip(ctx, s.resolver, c)
	}
	return clips, total, nil
}
