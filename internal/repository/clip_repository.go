package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/model"
)

// ClipSort 列表排序方式
type ClipSort string

const (
	SortRecent    ClipSort = "recent"
	SortPopular   ClipSort = "popular"
	SortFavorites ClipSort = "favorites"
)

// ClipFilter 列表过滤条件
type ClipFilter struct {
	Status     model.SubmissionStatus
	Query      string
	AnimatorID string
	Sort       ClipSort
}

type ClipRepository interface {
	Create(ctx context.Context, clip *model.Clip) error
	GetByID(ctx context.Context, id string) (*model.Clip, error)
	GetBySlug(ctx context.Context, slug string) (*model.Clip, error)
	List(ctx context.Context, filter ClipFilter, offset, limit int) ([]*model.Clip, int64, error)
	ListTrendingCandidates(ctx context.Context, since time.Time, batchSize int) ([]*model.Clip, error)
	LoadAttributions(ctx context.Context, clips []*model.Clip) error
	ListByAnimator(ctx context.Context, animatorID string, limit int) ([]*model.Clip, error)
	ListPending(ctx context.Context, offset, limit int) ([]*model.Clip, int64, error)
	Search(ctx context.Context, query string, limit int) ([]*model.Clip, error)
	Rank(ctx context.Context, offset, limit int) ([]*model.Clip, int64, error)
	IncrementViews(ctx context.Context, id string, n int64) error
	AdjustFavoriteCount(ctx context.Context, id string, delta int64) error
	AdjustCommentCount(ctx context.Context, id string, delta int64) error
	AdjustVoteScore(ctx context.Context, id string, delta int64) error
	Transition(ctx context.Context, id string, from, to model.SubmissionStatus, moderatorID string, at time.Time, reason string) (bool, error)
}

type clipRepository struct {
	db *gorm.DB
}

func NewClipRepository(db *gorm.DB) ClipRepository { return &clipRepository{db: db} }

// Create 片段与署名一并写入
func (r *clipRepository) Create(ctx context.Context, clip *model.Clip) error {
	return r.db.WithContext(ctx).Create(clip).Error
}

func (r *clipRepository) GetByID(ctx context.Context, id string) (*model.Clip, error) {
	var c model.Clip
	err := r.db.WithContext(ctx).
		Preload("Attributions.Animator").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clipRepository) GetBySlug(ctx context.Context, slug string) (*model.Clip, error) {
	var c model.Clip
	err := r.db.WithContext(ctx).
		Preload("Attributions.Animator").
		Where("slug = ?", slug).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clipRepository) List(ctx context.Context, filter ClipFilter, offset, limit int) ([]*model.Clip, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Clip{})
	if filter.Status != "" {
		q = q.Where("clips.submission_status = ?", filter.Status)
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(clips.title) LIKE ? OR LOWER(clips.series_title) LIKE ?)", like, like)
	}
	if filter.AnimatorID != "" {
		q = q.Where("clips.id IN (?)",
			r.db.Model(&model.Attribution{}).Select("clip_id").Where("animator_id = ?", filter.AnimatorID))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case SortPopular:
		q = q.Order("clips.view_count DESC").Order("clips.created_at DESC")
	case SortFavorites:
		q = q.Order("clips.favorite_count DESC").Order("clips.created_at DESC")
	default:
		q = q.Order("clips.created_at DESC")
	}

	var res []*model.Clip
	err := q.Preload("Attributions").Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}

// ListTrendingCandidates 窗口期内全部已审核片段，按批读取，不预加载署名
func (r *clipRepository) ListTrendingCandidates(ctx context.Context, since time.Time, batchSize int) ([]*model.Clip, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	var (
		res   []*model.Clip
		batch []*model.Clip
	)
	err := r.db.WithContext(ctx).
		Where("submission_status = ? AND created_at >= ?", model.StatusApproved, since).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			res = append(res, batch...)
			return nil
		}).Error
	return res, err
}

// LoadAttributions 为给定片段批量填充署名
func (r *clipRepository) LoadAttributions(ctx context.Context, clips []*model.Clip) error {
	if len(clips) == 0 {
		return nil
	}
	byID := make(map[string]*model.Clip, len(clips))
	ids := make([]string, 0, len(clips))
	for _, c := range clips {
		c.Attributions = nil
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}
	var attrs []model.Attribution
	if err := r.db.WithContext(ctx).Where("clip_id IN ?", ids).Order("created_at ASC").Find(&attrs).Error; err != nil {
		return err
	}
	for _, a := range attrs {
		c := byID[a.ClipID]
		c.Attributions = append(c.Attributions, a)
	}
	return nil
}

func (r *clipRepository) ListByAnimator(ctx context.Context, animatorID string, limit int) ([]*model.Clip, error) {
	var res []*model.Clip
	err := r.db.WithContext(ctx).
		Preload("Attributions").
		Where("submission_status = ?", model.StatusApproved).
		Where("id IN (?)", r.db.Model(&model.Attribution{}).Select("clip_id").Where("animator_id = ?", animatorID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

// ListPending 审核队列，先提交先审
func (r *clipRepository) ListPending(ctx context.Context, offset, limit int) ([]*model.Clip, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Clip{}).Where("submission_status = ?", model.StatusPending).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Clip
	err := q.Preload("Attributions.Animator").Order("created_at ASC").Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}

func (r *clipRepository) Search(ctx context.Context, query string, limit int) ([]*model.Clip, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var res []*model.Clip
	err := r.db.WithContext(ctx).
		Where("submission_status = ?", model.StatusApproved).
		Where("(LOWER(title) LIKE ? OR LOWER(series_title) LIKE ?)", like, like).
		Order("view_count DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

// Rank 社区排行：票数、收藏数、标题
func (r *clipRepository) Rank(ctx context.Context, offset, limit int) ([]*model.Clip, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Clip{}).Where("submission_status = ?", model.StatusApproved).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Clip
	err := q.Order("vote_score DESC").Order("favorite_count DESC").Order("title ASC").
		Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}

func (r *clipRepository) IncrementViews(ctx context.Context, id string, n int64) error {
	return r.db.WithContext(ctx).Model(&model.Clip{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", n)).Error
}

func (r *clipRepository) AdjustFavoriteCount(ctx context.Context, id string, delta int64) error {
	return r.adjust(ctx, id, "favorite_count", delta)
}

func (r *clipRepository) AdjustCommentCount(ctx context.Context, id string, delta int64) error {
	return r.adjust(ctx, id, "comment_count", delta)
}

func (r *clipRepository) AdjustVoteScore(ctx context.Context, id string, delta int64) error {
	res := r.db.WithContext(ctx).Model(&model.Clip{}).Where("id = ?", id).
		UpdateColumn("vote_score", gorm.Expr("vote_score + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *clipRepository) adjust(ctx context.Context, id, column string, delta int64) error {
	res := r.db.WithContext(ctx).Model(&model.Clip{}).Where("id = ?", id).
		UpdateColumn(column, clampedDelta(column, delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Transition 条件更新审核状态；返回 false 表示当前状态不是 from
func (r *clipRepository) Transition(ctx context.Context, id string, from, to model.SubmissionStatus, moderatorID string, at time.Time, reason string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Clip{}).
		Where("id = ? AND submission_status = ?", id, from).
		Updates(map[string]any{
			"submission_status": to,
			"moderated_by_id":   moderatorID,
			"moderated_at":      at,
			"rejection_reason":  reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
