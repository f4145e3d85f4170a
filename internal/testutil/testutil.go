// Package testutil 测试用 sqlite 数据库与数据构造
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/config"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/pkg/database"
)

// NewDB 每个测试独立的内存库，已完成迁移
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := "testdb_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel:    "silent",
		AutoMigrate: true,
	}}
	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// TestConfig 默认参数，与 config.yaml 一致
func TestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", Expire: time.Hour, Issuer: "sakugabase-test"},
		Trending: config.TrendingConfig{
			Gravity:            1.8,
			ViewWeight:         1,
			FavoriteWeight:     2,
			CommentWeight:      1.5,
			AgeOffsetHours:     2,
			DefaultWindowDays:  30,
			MaxWindowDays:      90,
			DefaultLimit:       12,
			MaxLimit:           50,
			CandidateBatchSize: 500,
		},
		Moderation: config.ModerationConfig{ApproveTrustDelta: 5, RejectTrustDelta: -2},
		Graph:      config.GraphConfig{DefaultDepth: 2, MaxDepth: 3, DefaultMaxNodes: 50, MaxNodes: 100},
		Views:      config.ViewsConfig{QueueSize: 100, Workers: 1},
	}
}

func CreateUser(t testing.TB, db *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		DisplayName:  username,
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateAnimator(t testing.TB, db *gorm.DB, name string) *model.Animator {
	t.Helper()
	a := &model.Animator{
		ID:   uuid.NewString(),
		Slug: strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Name: name,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// ClipOption 调整 fixture 字段
type ClipOption func(*model.Clip)

func WithStatus(s model.SubmissionStatus) ClipOption {
	return func(c *model.Clip) { c.SubmissionStatus = s }
}

func WithCreatedAt(at time.Time) ClipOption {
	return func(c *model.Clip) { c.CreatedAt = at }
}

func WithCounts(views, favorites, comments int64) ClipOption {
	return func(c *model.Clip) {
		c.ViewCount = views
		c.FavoriteCount = favorites
		c.CommentCount = comments
	}
}

func WithAttribution(animatorID string, status model.VerificationStatus) ClipOption {
	return func(c *model.Clip) {
		c.Attributions = append(c.Attributions, model.Attribution{
			ID:                 uuid.NewString(),
			AnimatorID:         animatorID,
			Role:               model.CreditKeyAnimation,
			VerificationStatus: status,
		})
	}
}

// CreateClip 默认已通过审核
func CreateClip(t testing.TB, db *gorm.DB, submitterID, title string, opts ...ClipOption) *model.Clip {
	t.Helper()
	c := &model.Clip{
		ID:               uuid.NewString(),
		Slug:             strings.ToLower(strings.ReplaceAll(title, " ", "-")) + "-" + uuid.NewString()[:6],
		Title:            title,
		VideoURL:         "videos/" + title + ".mp4",
		DurationSeconds:  10,
		SubmissionStatus: model.StatusApproved,
		SubmittedByID:    submitterID,
	}
	for _, opt := range opts {
		opt(c)
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func CreateRelation(t testing.TB, db *gorm.DB, fromID, toID string, relType model.RelationType) *model.AnimatorRelation {
	t.Helper()
	r := &model.AnimatorRelation{ID: uuid.NewString(), FromAnimatorID: fromID, ToAnimatorID: toID, RelationType: relType}
	require.NoError(t, db.Create(r).Error)
	return r
}

// Fixture 测试库加一个默认提交者
type Fixture struct {
	t         testing.TB
	DB        *gorm.DB
	Submitter *model.User
}

func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	db := NewDB(t)
	return &Fixture{t: t, DB: db, Submitter: CreateUser(t, db, "submitter", model.RoleUser)}
}

func (f *Fixture) Clip(title string, opts ...ClipOption) *model.Clip {
	f.t.Helper()
	return CreateClip(f.t, f.DB, f.Submitter.ID, title, opts...)
}

func (f *Fixture) User(username string, role model.Role) *model.User {
	f.t.Helper()
	return CreateUser(f.t, f.DB, username, role)
}

func (f *Fixture) Animator(name string) *model.Animator {
	f.t.Helper()
	return CreateAnimator(f.t, f.DB, name)
}
