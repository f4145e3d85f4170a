package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/storage"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/pagination"
)

// ClipDetail 片段及派生字段
type ClipDetail struct {
	*model.Clip
	VerificationStatus *model.VerificationStatus `json:"verificationStatus"`
	Favorited          *bool                     `json:"favorited,omitempty"`
}

// ClipListQuery 列表参数
type ClipListQuery struct {
	Page     pagination.Page
	Query    string
	Animator string // slug
	Status   model.SubmissionStatus
	Sort     repository.ClipSort
}

type AttributionInput struct {
	AnimatorID         string                   `json:"animatorId" binding:"required"`
	Role               string                   `json:"role" binding:"required,max=32"`
	VerificationStatus model.VerificationStatus `json:"verificationStatus" binding:"omitempty,oneof=VERIFIED SPECULATIVE DISPUTED"`
	Source             string                   `json:"source" binding:"max=2000"`
}

type SubmitClipInput struct {
	Title           string             `json:"title" binding:"required,min=1,max=200"`
	Description     string             `json:"description" binding:"max=5000"`
	SeriesTitle     string             `json:"seriesTitle" binding:"max=200"`
	Episode         string             `json:"episode" binding:"max=32"`
	VideoURL        string             `json:"videoUrl" binding:"required,url"`
	ThumbnailURL    string             `json:"thumbnailUrl" binding:"omitempty,url"`
	DurationSeconds float64            `json:"durationSeconds" binding:"required,gt=0,lte=45"`
	Attributions    []AttributionInput `json:"attributions" binding:"dive"`
}

// SearchResult 全站搜索
type SearchResult struct {
	Clips     []*model.Clip     `json:"clips"`
	Animators []*model.Animator `json:"animators"`
}

const searchLimit = 10

type ClipService interface {
	List(ctx context.Context, actor Actor, q ClipListQuery) ([]ClipDetail, int64, error)
	GetBySlug(ctx context.Context, actor Actor, slug, viewerKey string) (*ClipDetail, error)
	Submit(ctx context.Context, actor Actor, in SubmitClipInput) (*model.Clip, error)
	Search(ctx context.Context, query string) (*SearchResult, error)
}

type clipService struct {
	clips     repository.ClipRepository
	animators repository.AnimatorRepository
	favorites repository.FavoriteRepository
	authz     authz.Authorizer
	resolver  storage.URLResolver
	views     *ViewCounter
}

func NewClipService(db *gorm.DB, az authz.Authorizer, resolver storage.URLResolver, views *ViewCounter) ClipService {
	return &clipService{
		clips:     repository.NewClipRepository(db),
		animators: repository.NewAnimatorRepository(db),
		favorites: repository.NewFavoriteRepository(db),
		authz:     az,
		resolver:  resolver,
		views:     views,
	}
}

func (s *clipService) List(ctx context.Context, actor Actor, q ClipListQuery) ([]ClipDetail, int64, error) {
	status := q.Status
	if status == "" {
		status = model.StatusApproved
	}
	if status != model.StatusApproved && !s.authz.Can(actor.Role, authz.ObjClip, authz.ActViewUnpublished) {
		return nil, 0, apperrors.Forbidden("only moderators can list unpublished clips")
	}

	filter := repository.ClipFilter{Status: status, Query: q.Query, Sort: q.Sort}
	if q.Animator != "" {
		a, err := s.animators.GetBySlug(ctx, q.Animator)
		if repository.IsNotFound(err) {
			return []ClipDetail{}, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		filter.AnimatorID = a.ID
	}

	clips, total, err := s.clips.List(ctx, filter, q.Page.Offset(), q.Page.Limit)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.details(ctx, actor, clips)
	return out, total, err
}

func (s *clipService) details(ctx context.Context, actor Actor, clips []*model.Clip) ([]ClipDetail, error) {
	out := make([]ClipDetail, len(clips))
	var favorited map[string]bool
	if actor.Authenticated() && len(clips) > 0 {
		ids := make([]string, len(clips))
		for i, c := range clips {
			ids[i] = c.ID
		}
		var err error
		if favorited, err = s.favorites.ClipIDsFavorited(ctx, actor.UserID, ids); err != nil {
			return nil, err
		}
	}
	for i, c := range clips {
		out[i] = ClipDetail{Clip: c, VerificationStatus: c.VerificationStatus()}
		if favorited != nil {
			f := favorited[c.ID]
			out[i].Favorited = &f
		}
		presentClip(ctx, s.resolver, c)
	}
	return out, nil
}

// GetBySlug 未通过审核的片段仅提交者与审核员可见
func (s *clipService) GetBySlug(ctx context.Context, actor Actor, slug, viewerKey string) (*ClipDetail, error) {
	c, err := s.clips.GetBySlug(ctx, slug)
	if err != nil {
		return nil, translate(err, "clip")
	}
	if c.SubmissionStatus != model.StatusApproved &&
		c.SubmittedByID != actor.UserID &&
		!s.authz.Can(actor.Role, authz.ObjClip, authz.ActViewUnpublished) {
		return nil, apperrors.NotFound("clip")
	}

	d := &ClipDetail{Clip: c, VerificationStatus: c.VerificationStatus()}
	if actor.Authenticated() {
		fav, err := s.favorites.HasClip(ctx, actor.UserID, c.ID)
		if err != nil {
			return nil, err
		}
		d.Favorited = &fav
	}
	if c.SubmissionStatus == model.StatusApproved && s.views != nil {
		s.views.Record(c.ID, viewerKey)
	}
	presentClip(ctx, s.resolver, c)
	return d, nil
}

func (s *clipService) Submit(ctx context.Context, actor Actor, in SubmitClipInput) (*model.Clip, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if !s.authz.Can(actor.Role, authz.ObjClip, authz.ActSubmit) {
		return nil, apperrors.Forbidden("insufficient role to submit clips")
	}
	if err := validateSubmission(in); err != nil {
		return nil, err
	}

	if len(in.Attributions) > 0 {
		ids := make([]string, 0, len(in.Attributions))
		seen := make(map[string]bool, len(in.Attributions))
		for _, a := range in.Attributions {
			if !seen[a.AnimatorID] {
				seen[a.AnimatorID] = true
				ids = append(ids, a.AnimatorID)
			}
		}
		found, err := s.animators.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(found) != len(ids) {
			return nil, apperrors.Validation("unknown animator in attributions",
				apperrors.FieldError{Field: "attributions", Message: "references an unknown animator"})
		}
	}

	clip := &model.Clip{
		ID:               uuid.NewString(),
		Slug:             Slugify(in.Title) + "-" + uuid.NewString()[:6],
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		SeriesTitle:      in.SeriesTitle,
		Episode:          in.Episode,
		VideoURL:         in.VideoURL,
		ThumbnailURL:     in.ThumbnailURL,
		DurationSeconds:  in.DurationSeconds,
		SubmissionStatus: model.StatusPending,
		SubmittedByID:    actor.UserID,
	}
	for _, a := range in.Attributions {
		status := a.VerificationStatus
		if status == "" {
			status = model.VerificationSpeculative
		}
		clip.Attributions = append(clip.Attributions, model.Attribution{
			ID:                 uuid.NewString(),
			AnimatorID:         a.AnimatorID,
			Role:               a.Role,
			VerificationStatus: status,
			Source:             a.Source,
		})
	}

	if err := s.clips.Create(ctx, clip); err != nil {
		return nil, translate(err, "clip")
	}
	return clip, nil
}

func validateSubmission(in SubmitClipInput) error {
	var fields []apperrors.FieldError
	if t := strings.TrimSpace(in.Title); t == "" || len(t) > 200 {
		fields = append(fields, apperrors.FieldError{Field: "title", Message: "must be between 1 and 200 characters"})
	}
	if in.VideoURL == "" {
		fields = append(fields, apperrors.FieldError{Field: "videoUrl", Message: "is required"})
	}
	if in.DurationSeconds <= 0 || in.DurationSeconds > model.MaxClipDurationSeconds {
		fields = append(fields, apperrors.FieldError{
			Field:   "durationSeconds",
			Message: fmt.Sprintf("must be greater than 0 and at most %d", model.MaxClipDurationSeconds),
		})
	}
	type triplet struct{ animator, role string }
	seen := make(map[triplet]bool, len(in.Attributions))
	for i, a := range in.Attributions {
		if a.VerificationStatus != "" && !a.VerificationStatus.Valid() {
			fields = append(fields, apperrors.FieldError{
				Field:   fmt.Sprintf("attributions[%d].verificationStatus", i),
				Message: "must be one of: VERIFIED SPECULATIVE DISPUTED",
			})
		}
		key := triplet{a.AnimatorID, a.Role}
		if seen[key] {
			fields = append(fields, apperrors.FieldError{
				Field:   fmt.Sprintf("attributions[%d]", i),
				Message: "duplicate animator and role",
			})
		}
		seen[key] = true
	}
	if len(fields) > 0 {
		return apperrors.Validation("invalid clip submission", fields...)
	}
	return nil
}

func (s *clipService) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Validation("query is required", apperrors.FieldError{Field: "q", Message: "is required"})
	}
	clips, err := s.clips.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	animators, err := s.animators.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	for _, c := range clips {
		presentClip(ctx, s.resolver, c)
	}
	return &SearchResult{Clips: clips, Animators: animators}, nil
}

// Slugify 小写 ASCII 字母数字，其余折叠为 '-'
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > 60 {
		out = strings.TrimRight(out[:60], "-")
	}
	if out == "" {
		return "clip"
	}
	return out
}

// presentClip 将存储 key 替换为可访问地址
func presentClip(ctx context.Context, resolver storage.URLResolver, c *model.Clip) {
	if resolver == nil || c == nil {
		return
	}
	c.VideoURL = resolver.Resolve(ctx, c.VideoURL)
	c.ThumbnailURL = resolver.Resolve(ctx, c.ThumbnailURL)
}

func rangeMessage(min, max int) string {
	return fmt.Sprintf("must be between %d and %d", min, max)
}
