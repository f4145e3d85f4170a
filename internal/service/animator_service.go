package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/storage"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/logger"
	"github.com/d60-Lab/sakugabase/pkg/pagination"
)

const profileClipLimit = 50

type AnimatorInput struct {
	Name       string `json:"name" binding:"required,min=1,max=128"`
	NativeName string `json:"nativeName" binding:"max=128"`
	Bio        string `json:"bio" binding:"max=5000"`
	AvatarURL  string `json:"avatarUrl" binding:"omitempty,url"`
}

type RelationInput struct {
	ToAnimatorID string             `json:"toAnimatorId" binding:"required"`
	RelationType model.RelationType `json:"relationType" binding:"required,oneof=MENTOR COLLEAGUE INFLUENCE"`
	Note         string             `json:"note" binding:"max=2000"`
}

// AnimatorProfile 档案页：原画师、已审核作品与收藏状态
type AnimatorProfile struct {
	*model.Animator
	Clips     []*model.Clip `json:"clips"`
	Favorited *bool         `json:"favorited,omitempty"`
}

// AnimatorService 原画师与关系链
type AnimatorService interface {
	List(ctx context.Context, query string, page pagination.Page) ([]*model.Animator, int64, error)
	GetBySlug(ctx context.Context, actor Actor, slug string) (*AnimatorProfile, error)
	Create(ctx context.Context, actor Actor, in AnimatorInput) (*model.Animator, error)
	AddRelation(ctx context.Context, actor Actor, fromID string, in RelationInput) (*model.AnimatorRelation, error)
	RemoveRelation(ctx context.Context, actor Actor, animatorID, relationID string) error
}

type animatorService struct {
	animators repository.AnimatorRepository
	relations repository.RelationRepository
	clips     repository.ClipRepository
	favorites repository.FavoriteRepository
	authz     authz.Authorizer
	resolver  storage.URLResolver
	cache     GraphCache
}

// NewAnimatorService cache 可为 nil；新增关系时用于使图谱缓存失效
func NewAnimatorService(db *gorm.DB, az authz.Authorizer, resolver storage.URLResolver, cache GraphCache) AnimatorService {
	return &animatorService{
		animators: repository.NewAnimatorRepository(db),
		relations: repository.NewRelationRepository(db),
		clips:     repository.NewClipRepository(db),
		favorites: repository.NewFavoriteRepository(db),
		authz:     az,
		resolver:  resolver,
		cache:     cache,
	}
}

func (s *animatorService) List(ctx context.Context, query string, page pagination.Page) ([]*model.Animator, int64, error) {
	return s.animators.List(ctx, query, page.Offset(), page.Limit)
}

func (s *animatorService) GetBySlug(ctx context.Context, actor Actor, slug string) (*AnimatorProfile, error) {
	a, err := s.animators.GetBySlug(ctx, slug)
	if err != nil {
		return nil, translate(err, "animator")
	}
	clips, err := s.clips.ListByAnimator(ctx, a.ID, profileClipLimit)
	if err != nil {
		return nil, err
	}
	for _, c := range clips {
		presentClip(ctx, s.resolver, c)
	}
	p := &AnimatorProfile{Animator: a, Clips: clips}
	if actor.Authenticated() {
		fav, err := s.favorites.HasAnimator(ctx, actor.UserID, a.ID)
		if err != nil {
			return nil, err
		}
		p.Favorited = &fav
	}
	return p, nil
}

func (s *animatorService) Create(ctx context.Context, actor Actor, in AnimatorInput) (*model.Animator, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if !s.authz.Can(actor.Role, authz.ObjAnimator, authz.ActCreate) {
		return nil, apperrors.Forbidden("moderator role required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("invalid animator", apperrors.FieldError{Field: "name", Message: "is required"})
	}
	a := &model.Animator{
		ID:         uuid.NewString(),
		Slug:       Slugify(name),
		Name:       name,
		NativeName: in.NativeName,
		Bio:        in.Bio,
		AvatarURL:  in.AvatarURL,
	}
	err := s.animators.Create(ctx, a)
	if repository.IsDuplicate(err) {
		// 同名原画师加随机后缀
		a.Slug = a.Slug + "-" + uuid.NewString()[:6]
		err = s.animators.Create(ctx, a)
	}
	if err != nil {
		return nil, translate(err, "animator")
	}
	return a, nil
}

// AddRelation 建立 from -> to 的关系；不允许指向自己
func (s *animatorService) AddRelation(ctx context.Context, actor Actor, fromID string, in RelationInput) (*model.AnimatorRelation, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if !s.authz.Can(actor.Role, authz.ObjRelation, authz.ActCreate) {
		return nil, apperrors.Forbidden("moderator role required")
	}
	if !in.RelationType.Valid() {
		return nil, apperrors.Validation("invalid relation",
			apperrors.FieldError{Field: "relationType", Message: "must be one of: MENTOR COLLEAGUE INFLUENCE"})
	}
	if fromID == in.ToAnimatorID {
		return nil, apperrors.Validation("cannot relate an animator to itself",
			apperrors.FieldError{Field: "toAnimatorId", Message: "must differ from the source animator"})
	}
	if _, err := s.animators.GetByID(ctx, fromID); err != nil {
		return nil, translate(err, "animator")
	}
	if _, err := s.animators.GetByID(ctx, in.ToAnimatorID); err != nil {
		return nil, translate(err, "target animator")
	}
	exists, err := s.relations.Exists(ctx, fromID, in.ToAnimatorID, in.RelationType)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Duplicate("relation already exists")
	}

	rel := &model.AnimatorRelation{
		FromAnimatorID: fromID,
		ToAnimatorID:   in.ToAnimatorID,
		RelationType:   in.RelationType,
		Note:           in.Note,
	}
	if err := s.relations.Create(ctx, rel); err != nil {
		return nil, translate(err, "relation")
	}
	s.invalidateGraph(ctx)
	return rel, nil
}

// RemoveRelation 删除与该原画师相连的一条关系
func (s *animatorService) RemoveRelation(ctx context.Context, actor Actor, animatorID, relationID string) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if !s.authz.Can(actor.Role, authz.ObjRelation, authz.ActDelete) {
		return apperrors.Forbidden("moderator role required")
	}
	if err := s.relations.Delete(ctx, animatorID, relationID); err != nil {
		return translate(err, "relation")
	}
	s.invalidateGraph(ctx)
	return nil
}

func (s *animatorService) invalidateGraph(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		logger.Warn("graph cache invalidation failed", zap.Error(err))
	}
}
