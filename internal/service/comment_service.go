package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/pagination"
)

const maxCommentLength = 2000

type CommentInput struct {
	Body string `json:"body" binding:"required,min=1,max=2000"`
}

type CommentService interface {
	List(ctx context.Context, clipID string, page pagination.Page) ([]*model.Comment, int64, error)
	Create(ctx context.Context, actor Actor, clipID string, in CommentInput) (*model.Comment, error)
}

type commentService struct {
	db    *gorm.DB
	authz authz.Authorizer
}

func NewCommentService(db *gorm.DB, az authz.Authorizer) CommentService {
	return &commentService{db: db, authz: az}
}

func (s *commentService) List(ctx context.Context, clipID string, page pagination.Page) ([]*model.Comment, int64, error) {
	clip, err := repository.NewClipRepository(s.db).GetByID(ctx, clipID)
	if err != nil {
		return nil, 0, translate(err, "clip")
	}
	if clip.SubmissionStatus != model.StatusApproved {
		return nil, 0, apperrors.NotFound("clip")
	}
	return repository.NewCommentRepository(s.db).ListByClip(ctx, clipID, page.Offset(), page.Limit)
}

// Create 写评论并在同一事务内增加 commentCount
func (s *commentService) Create(ctx context.Context, actor Actor, clipID string, in CommentInput) (*model.Comment, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if !s.authz.Can(actor.Role, authz.ObjComment, authz.ActCreate) {
		return nil, apperrors.Forbidden("insufficient role to comment")
	}
	body := strings.TrimSpace(in.Body)
	if body == "" || utf8.RuneCountInString(body) > maxCommentLength {
		return nil, apperrors.Validation("invalid comment",
			apperrors.FieldError{Field: "body", Message: rangeMessage(1, maxCommentLength) + " characters"})
	}

	comment := &model.Comment{ID: uuid.NewString(), ClipID: clipID, UserID: actor.UserID, Body: body}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clips := repository.NewClipRepository(tx)
		clip, err := clips.GetByID(ctx, clipID)
		if err != nil {
			return translate(err, "clip")
		}
		if clip.SubmissionStatus != model.StatusApproved {
			return apperrors.NotFound("clip")
		}
		if err := repository.NewCommentRepository(tx).Create(ctx, comment); err != nil {
			return err
		}
		return clips.AdjustCommentCount(ctx, clipID, 1)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}
