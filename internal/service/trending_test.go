package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/sakugabase/config"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/testutil"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
)

func TestCalculateTrendingScore_ZeroEngagement(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 0.0, CalculateTrendingScore(0, 0, 0, now, now))
}

func TestCalculateTrendingScore_Formula(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	created := now.Add(-10 * time.Hour)

	got := CalculateTrendingScore(1000, 4, 2, created, now)
	want := (3.0 + 8.0 + 3.0) / math.Pow(12, 1.8)
	assert.InDelta(t, want, got, 1e-12)
}

func TestCalculateTrendingScore_FiniteAndNonNegative(t *testing.T) {
	now := time.Now()
	for _, tc := range []struct {
		views, favs, comments int64
		age                   time.Duration
	}{
		{0, 0, 0, 0},
		{1, 0, 0, time.Hour},
		{math.MaxInt32, 1000, 1000, 0},
		{10, 10, 10, 24 * 365 * time.Hour},
		{-5, -3, -1, time.Hour},
	} {
		s := CalculateTrendingScore(tc.views, tc.favs, tc.comments, now.Add(-tc.age), now)
		assert.False(t, math.IsNaN(s) || math.IsInf(s, 0), "score %v", s)
		assert.GreaterOrEqual(t, s, 0.0)
	}
}

func TestCalculateTrendingScore_FutureCreatedAtTreatedAsNew(t *testing.T) {
	now := time.Now()
	future := CalculateTrendingScore(100, 5, 1, now.Add(3*time.Hour), now)
	fresh := CalculateTrendingScore(100, 5, 1, now, now)
	assert.Equal(t, fresh, future)
}

func TestCalculateTrendingScore_DecaysWithAge(t *testing.T) {
	now := time.Now()
	prev := math.Inf(1)
	for h := 0; h <= 24*60; h += 7 {
		s := CalculateTrendingScore(500, 12, 3, now.Add(-time.Duration(h)*time.Hour), now)
		assert.LessOrEqual(t, s, prev, "age %dh", h)
		prev = s
	}
}

func TestCalculateTrendingScore_NewerWins(t *testing.T) {
	now := time.Now()
	newer := CalculateTrendingScore(50, 3, 1, now.Add(-1*time.Hour), now)
	older := CalculateTrendingScore(50, 3, 1, now.Add(-5*time.Hour), now)
	assert.Greater(t, newer, older)
}

func TestWeightsFromConfig_Defaults(t *testing.T) {
	assert.Equal(t, DefaultTrendingWeights, WeightsFromConfig(testutil.TestConfig().Trending))
	assert.Equal(t, DefaultTrendingWeights, WeightsFromConfig(config.TrendingConfig{}))

	cfg := testutil.TestConfig().Trending
	cfg.Gravity = 0
	assert.Equal(t, 1.8, WeightsFromConfig(cfg).Gravity)
}

func newTrendingService(t *testing.T) (*TrendingService, *testutil.Fixture, time.Time) {
	t.Helper()
	fx := testutil.NewFixture(t)
	now := time.Now().UTC().Truncate(time.Second)
	svc := NewTrendingService(repository.NewClipRepository(fx.DB), nil, testutil.TestConfig().Trending)
	svc.now = func() time.Time { return now }
	return svc, fx, now
}

func TestTrendingService_OrderAndWindow(t *testing.T) {
	svc, fx, now := newTrendingService(t)

	hot := fx.Clip("hot", testutil.WithCreatedAt(now.Add(-2*time.Hour)), testutil.WithCounts(5000, 40, 10))
	warm := fx.Clip("warm", testutil.WithCreatedAt(now.Add(-30*time.Hour)), testutil.WithCounts(5000, 40, 10))
	cold := fx.Clip("cold", testutil.WithCreatedAt(now.Add(-24*20*time.Hour)), testutil.WithCounts(100, 1, 0))
	fx.Clip("ancient", testutil.WithCreatedAt(now.Add(-24*45*time.Hour)), testutil.WithCounts(99999, 999, 99))
	fx.Clip("pending", testutil.WithStatus(model.StatusPending), testutil.WithCreatedAt(now.Add(-time.Hour)), testutil.WithCounts(99999, 999, 99))

	page, err := svc.Trending(context.Background(), TrendingQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 12, page.Limit)
	assert.Equal(t, []string{hot.ID, warm.ID, cold.ID}, []string{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})
	assert.Greater(t, page.Items[0].TrendingScore, page.Items[1].TrendingScore)

	days := 60
	page, err = svc.Trending(context.Background(), TrendingQuery{WindowDays: &days})
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)
}

func TestTrendingService_ScoresEveryCandidateAcrossBatches(t *testing.T) {
	fx := testutil.NewFixture(t)
	now := time.Now().UTC().Truncate(time.Second)
	cfg := testutil.TestConfig().Trending
	cfg.CandidateBatchSize = 2
	svc := NewTrendingService(repository.NewClipRepository(fx.DB), nil, cfg)
	svc.now = func() time.Time { return now }

	animator := fx.Animator("Yoshinori Kanada")
	viral := fx.Clip("viral",
		testutil.WithCreatedAt(now.Add(-6*time.Hour)),
		testutil.WithCounts(100000, 500, 200),
		testutil.WithAttribution(animator.ID, model.VerificationVerified))
	for i := 0; i < 3; i++ {
		fx.Clip("quiet", testutil.WithCreatedAt(now.Add(-time.Duration(i+1)*time.Minute)))
	}

	limit := 1
	page, err := svc.Trending(context.Background(), TrendingQuery{Limit: &limit})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, viral.ID, page.Items[0].ID)
	require.Len(t, page.Items[0].Attributions, 1)
	require.NotNil(t, page.Items[0].VerificationStatus)
	assert.Equal(t, model.VerificationVerified, *page.Items[0].VerificationStatus)
}

func TestTrendingService_TiesPreferNewer(t *testing.T) {
	svc, fx, now := newTrendingService(t)

	older := fx.Clip("older", testutil.WithCreatedAt(now.Add(-3*time.Hour)))
	newer := fx.Clip("newer", testutil.WithCreatedAt(now.Add(-1*time.Hour)))

	page, err := svc.Trending(context.Background(), TrendingQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	// 零互动得分均为 0
	assert.Equal(t, newer.ID, page.Items[0].ID)
	assert.Equal(t, older.ID, page.Items[1].ID)
}

func TestTrendingService_Pagination(t *testing.T) {
	svc, fx, now := newTrendingService(t)
	for i := 0; i < 5; i++ {
		fx.Clip("clip", testutil.WithCreatedAt(now.Add(-time.Duration(i+1)*time.Hour)), testutil.WithCounts(100, 5, 0))
	}

	limit, offset := 2, 4
	page, err := svc.Trending(context.Background(), TrendingQuery{Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(5), page.Total)

	offset = 10
	page, err = svc.Trending(context.Background(), TrendingQuery{Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestTrendingService_ValidatesParameters(t *testing.T) {
	svc, _, _ := newTrendingService(t)
	ptr := func(v int) *int { return &v }

	for name, q := range map[string]TrendingQuery{
		"limit zero":      {Limit: ptr(0)},
		"limit too large": {Limit: ptr(51)},
		"negative offset": {Offset: ptr(-1)},
		"window zero":     {WindowDays: ptr(0)},
		"window too long": {WindowDays: ptr(91)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Trending(context.Background(), q)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}
