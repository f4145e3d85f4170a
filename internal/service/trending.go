package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/d60-Lab/sakugabase/config"
	"github.com/d60-Lab/sakugabase/internal/metrics"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/storage"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
)

// TrendingWeights 热度公式常量
type TrendingWeights struct {
	ViewWeight     float64
	FavoriteWeight float64
	CommentWeight  float64
	AgeOffsetHours float64
	Gravity        float64
}

// DefaultTrendingWeights 1 / 2 / 1.5，偏移 2 小时，重力 1.8
var DefaultTrendingWeights = TrendingWeights{
	ViewWeight:     1,
	FavoriteWeight: 2,
	CommentWeight:  1.5,
	AgeOffsetHours: 2,
	Gravity:        1.8,
}

// WeightsFromConfig 未配置的项使用默认值
func WeightsFromConfig(cfg config.TrendingConfig) TrendingWeights {
	w := TrendingWeights{
		ViewWeight:     cfg.ViewWeight,
		FavoriteWeight: cfg.FavoriteWeight,
		CommentWeight:  cfg.CommentWeight,
		AgeOffsetHours: cfg.AgeOffsetHours,
		Gravity:        cfg.Gravity,
	}
	if w == (TrendingWeights{}) {
		return DefaultTrendingWeights
	}
	if w.AgeOffsetHours <= 0 {
		w.AgeOffsetHours = DefaultTrendingWeights.AgeOffsetHours
	}
	if w.Gravity <= 0 {
		w.Gravity = DefaultTrendingWeights.Gravity
	}
	return w
}

// Score 计算热度：
//
//	points = log10(max(views,1))*viewW + favorites*favW + comments*commentW
//	score  = points / (ageHours + offset)^gravity
//
// 负数计数按 0 处理，createdAt 晚于 now 时年龄按 0 处理。
func (w TrendingWeights) Score(views, favorites, comments int64, createdAt, now time.Time) float64 {
	if views < 1 {
		views = 1
	}
	if favorites < 0 {
		favorites = 0
	}
	if comments < 0 {
		comments = 0
	}
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	points := math.Log10(float64(views))*w.ViewWeight +
		float64(favorites)*w.FavoriteWeight +
		float64(comments)*w.CommentWeight
	return points / math.Pow(ageHours+w.AgeOffsetHours, w.Gravity)
}

// CalculateTrendingScore 使用默认常量
func CalculateTrendingScore(views, favorites, comments int64, createdAt, now time.Time) float64 {
	return DefaultTrendingWeights.Score(views, favorites, comments, createdAt, now)
}

// TrendingQuery 热门查询参数；nil 表示使用默认值
type TrendingQuery struct {
	Limit      *int
	Offset     *int
	WindowDays *int
}

// TrendingClip 带热度分的片段
type TrendingClip struct {
	*model.Clip
	VerificationStatus *model.VerificationStatus `json:"verificationStatus"`
	TrendingScore      float64                   `json:"trendingScore"`
}

// TrendingPage 分页结果
type TrendingPage struct {
	Items  []TrendingClip
	Total  int64
	Limit  int
	Offset int
}

type TrendingService struct {
	clips    repository.ClipRepository
	resolver storage.URLResolver
	cfg      config.TrendingConfig
	weights  TrendingWeights
	now      func() time.Time
}

func NewTrendingService(clips repository.ClipRepository, resolver storage.URLResolver, cfg config.TrendingConfig) *TrendingService {
	return &TrendingService{
		clips:    clips,
		resolver: resolver,
		cfg:      cfg,
		weights:  WeightsFromConfig(cfg),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type resolvedQuery struct {
	limit, offset, windowDays int
}

func (s *TrendingService) resolve(q TrendingQuery) (resolvedQuery, error) {
	r := resolvedQuery{
		limit:      orDefault(s.cfg.DefaultLimit, 12),
		windowDays: orDefault(s.cfg.DefaultWindowDays, 30),
	}
	maxLimit := orDefault(s.cfg.MaxLimit, 50)
	maxWindow := orDefault(s.cfg.MaxWindowDays, 90)

	var fields []apperrors.FieldError
	if q.Limit != nil {
		if *q.Limit < 1 || *q.Limit > maxLimit {
			fields = append(fields, apperrors.FieldError{Field: "limit", Message: rangeMessage(1, maxLimit)})
		}
		r.limit = *q.Limit
	}
	if q.Offset != nil {
		if *q.Offset < 0 {
			fields = append(fields, apperrors.FieldError{Field: "offset", Message: "must be at least 0"})
		}
		r.offset = *q.Offset
	}
	if q.WindowDays != nil {
		if *q.WindowDays < 1 || *q.WindowDays > maxWindow {
			fields = append(fields, apperrors.FieldError{Field: "windowDays", Message: rangeMessage(1, maxWindow)})
		}
		r.windowDays = *q.WindowDays
	}
	if len(fields) > 0 {
		return r, apperrors.Validation("invalid trending parameters", fields...)
	}
	return r, nil
}

// Trending 在窗口期内的已审核片段上计算热度，降序后分页
func (s *TrendingService) Trending(ctx context.Context, q TrendingQuery) (*TrendingPage, error) {
	rq, err := s.resolve(q)
	if err != nil {
		return nil, err
	}
	now := s.now()
	since := now.Add(-time.Duration(rq.windowDays) * 24 * time.Hour)

	candidates, err := s.clips.ListTrendingCandidates(ctx, since, s.cfg.CandidateBatchSize)
	if err != nil {
		return nil, err
	}
	metrics.TrendingCandidates.Set(float64(len(candidates)))

	scored := make([]TrendingClip, len(candidates))
	for i, c := range candidates {
		scored[i] = TrendingClip{
			Clip:          c,
			TrendingScore: s.weights.Score(c.ViewCount, c.FavoriteCount, c.CommentCount, c.CreatedAt, now),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.TrendingScore != b.TrendingScore {
			return a.TrendingScore > b.TrendingScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	page := &TrendingPage{Total: int64(len(scored)), Limit: rq.limit, Offset: rq.offset}
	if rq.offset >= len(scored) {
		page.Items = []TrendingClip{}
		return page, nil
	}
	end := rq.offset + rq.limit
	if end > len(scored) {
		end = len(scored)
	}
	page.Items = scored[rq.offset:end]
	pageClips := make([]*model.Clip, len(page.Items))
	for i := range page.Items {
		pageClips[i] = page.Items[i].Clip
	}
	if err := s.clips.LoadAttributions(ctx, pageClips); err != nil {
		return nil, err
	}
	for i := range page.Items {
		page.Items[i].VerificationStatus = page.Items[i].Clip.VerificationStatus()
		presentClip(ctx, s.resolver, page.Items[i].Clip)
	}
	return page, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
