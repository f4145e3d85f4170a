package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/storage"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/pagination"
)

type CollectionInput struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=2000"`
	IsPublic    bool   `json:"isPublic"`
}

type AddClipInput struct {
	ClipID string `json:"clipId" binding:"required"`
}

// CollectionDetail 合集及其条目
type CollectionDetail struct {
	*model.Collection
	Clips []*model.Clip `json:"clips"`
}

type CollectionService interface {
	Create(ctx context.Context, actor Actor, in CollectionInput) (*model.Collection, error)
	ListMine(ctx context.Context, actor Actor, page pagination.Page) ([]*model.Collection, int64, error)
	Get(ctx context.Context, actor Actor, id string) (*CollectionDetail, error)
	Delete(ctx context.Context, actor Actor, id string) error
	AddClip(ctx context.Context, actor Actor, id, clipID string) (bool, error)
	RemoveClip(ctx context.Context, actor Actor, id, clipID string) error
}

type collectionService struct {
	db       *gorm.DB
	authz    authz.Authorizer
	resolver storage.URLResolver
}

func NewCollectionService(db *gorm.DB, az authz.Authorizer, resolver storage.URLResolver) CollectionService {
	return &collectionService{db: db, authz: az, resolver: resolver}
}

func (s *collectionService) Create(ctx context.Context, actor Actor, in CollectionInput) (*model.Collection, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if !s.authz.Can(actor.Role, authz.ObjCollection, authz.ActManage) {
		return nil, apperrors.Forbidden("insufficient role to manage collections")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 200 {
		return nil, apperrors.Validation("invalid collection",
			apperrors.FieldError{Field: "title", Message: "must be between 1 and 200 characters"})
	}
	c := &model.Collection{
		ID:          uuid.NewString(),
		UserID:      actor.UserID,
		Title:       title,
		Description: in.Description,
		IsPublic:    in.IsPublic,
	}
	if err := repository.NewCollectionRepository(s.db).Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *collectionService) ListMine(ctx context.Context, actor Actor, page pagination.Page) ([]*model.Collection, int64, error) {
	if err := requireAuth(actor); err != nil {
		return nil, 0, err
	}
	repo := repository.NewCollectionRepository(s.db)
	list, total, err := repo.ListByUser(ctx, actor.UserID, page.Offset(), page.Limit)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	counts, err := repo.CountClips(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, c := range list {
		c.ClipCount = counts[c.ID]
	}
	return list, total, nil
}

// load 私有合集对非所有者表现为不存在
func (s *collectionService) load(ctx context.Context, actor Actor, id string) (*model.Collection, error) {
	c, err := repository.NewCollectionRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "collection")
	}
	if !c.IsPublic && c.UserID != actor.UserID {
		return nil, apperrors.NotFound("collection")
	}
	return c, nil
}

func (s *collectionService) owned(ctx context.Context, actor Actor, id string) (*model.Collection, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != actor.UserID {
		return nil, apperrors.Forbidden("only the owner can modify this collection")
	}
	return c, nil
}

func (s *collectionService) Get(ctx context.Context, actor Actor, id string) (*CollectionDetail, error) {
	c, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	items, err := repository.NewCollectionRepository(s.db).ListClips(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &CollectionDetail{Collection: c, Clips: make([]*model.Clip, 0, len(items))}
	for _, it := range items {
		if it.Clip == nil || it.Clip.SubmissionStatus != model.StatusApproved {
			continue
		}
		presentClip(ctx, s.resolver, it.Clip)
		d.Clips = append(d.Clips, it.Clip)
	}
	c.ClipCount = int64(len(d.Clips))
	return d, nil
}

func (s *collectionService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return translate(repository.NewCollectionRepository(s.db).Delete(ctx, id), "collection")
}

// AddClip 幂等，返回是否新增
func (s *collectionService) AddClip(ctx context.Context, actor Actor, id, clipID string) (bool, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return false, err
	}
	clip, err := repository.NewClipRepository(s.db).GetByID(ctx, clipID)
	if err != nil {
		return false, translate(err, "clip")
	}
	if clip.SubmissionStatus != model.StatusApproved {
		return false, apperrors.NotFound("clip")
	}
	return repository.NewCollectionRepository(s.db).AddClip(ctx, id, clipID)
}

func (s *collectionService) RemoveClip(ctx context.Context, actor Actor, id, clipID string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	removed, err := repository.NewCollectionRepository(s.db).RemoveClip(ctx, id, clipID)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NotFound("collection item")
	}
	return nil
}
