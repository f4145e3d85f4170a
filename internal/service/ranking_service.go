package service

import (
	"context"

	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/storage"
	"github.com/d60-Lab/sakugabase/pkg/pagination"
)

// 排行榜每页上限
const (
	RankingDefaultLimit = 20
	RankingMaxLimit     = 50
)

// RankingService 社区排行：票数、收藏数、名称
type RankingService interface {
	Animators(ctx context.Context, w pagination.Window) ([]*model.Animator, int64, error)
	Clips(ctx context.Context, w pagination.Window) ([]*model.Clip, int64, error)
}

type rankingService struct {
	animators repository.AnimatorRepository
	clips     repository.ClipRepository
	resolver  storage.URLResolver
}

func NewRankingService(animators repository.AnimatorRepository, clips repository.ClipRepository, resolver storage.URLResolver) RankingService {
	return &rankingService{animators: animators, clips: clips, resolver: resolver}
}

func (s *rankingService) Animators(ctx context.Context, w pagination.Window) ([]*model.Animator, int64, error) {
	return s.animators.Rank(ctx, w.Offset, w.Limit)
}

func (s *rankingService) Clips(ctx context.Context, w pagination.Window) ([]*model.Clip, int64, error) {
	clips, total, err := s.clips.Rank(ctx, w.Offset, w.Limit)
	if err != nil {
		return nil, 0, err
	}
	for _, c := range clips {
		presentClip(ctx, s.resolver, c)
	}
	return clips, total, nil
}
