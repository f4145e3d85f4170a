// seed 通过服务层写入演示用户、画师、关系与已审核片段
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/d60-Lab/sakugabase/config"
	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/database"
	"github.com/d60-Lab/sakugabase/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

type demoClip struct {
	title, series, episode string
	seconds                float64
	animators              []string
	approve                bool
}

func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	db := must(database.InitDB(cfg))
	defer database.Close(db)
	ctx := context.Background()

	az := must(authz.NewEnforcer())
	auth := service.NewAuthService(db, cfg.JWT)
	users := service.NewUserService(db, az)
	animators := service.NewAnimatorService(db, az, nil, nil)
	clips := service.NewClipService(db, az, nil, nil)
	moderation := service.NewModerationService(db, az, cfg.Moderation)
	votes := service.NewVoteService(db, az)
	comments := service.NewCommentService(db, az)

	// 账号
	admin := must(auth.Register(ctx, service.RegisterInput{Username: "admin", Email: "admin@example.com", Password: "sakuga-admin", DisplayName: "Admin"}))
	// 首个管理员直接写库，其余角色走管理接口
	mustDo(repository.NewUserRepository(db).SetRole(ctx, admin.User.ID, model.RoleAdmin))
	adminActor := service.Actor{UserID: admin.User.ID, Role: model.RoleAdmin}

	curator := must(auth.Register(ctx, service.RegisterInput{Username: "curator", Email: "curator@example.com", Password: "sakuga-curator", DisplayName: "Curator"}))
	must(users.SetRole(ctx, adminActor, curator.User.ID, service.RoleInput{Role: model.RoleModerator}))
	curatorActor := service.Actor{UserID: curator.User.ID, Role: model.RoleModerator}

	fan := must(auth.Register(ctx, service.RegisterInput{Username: "sakugafan", Email: "fan@example.com", Password: "sakuga-fan1", DisplayName: "Sakuga Fan"}))
	fanActor := service.Actor{UserID: fan.User.ID, Role: model.RoleUser}

	names := []string{"Yoshinori Kanada", "Masahiro Ando", "Yutaka Nakamura", "Shinya Ohira", "Mitsuo Iso", "Norio Matsumoto"}
	ids := make(map[string]string, len(names))
	for _, n := range names {
		a := must(animators.Create(ctx, adminActor, service.AnimatorInput{Name: n}))
		ids[n] = a.ID
	}

	relations := []struct {
		from, to string
		t        model.RelationType
	}{
		{"Yoshinori Kanada", "Masahiro Ando", model.RelationInfluence},
		{"Yoshinori Kanada", "Yutaka Nakamura", model.RelationInfluence},
		{"Yoshinori Kanada", "Shinya Ohira", model.RelationMentor},
		{"Shinya Ohira", "Norio Matsumoto", model.RelationInfluence},
		{"Mitsuo Iso", "Shinya Ohira", model.RelationColleague},
	}
	for _, r := range relations {
		must(animators.AddRelation(ctx, curatorActor, ids[r.from], service.RelationInput{ToAnimatorID: ids[r.to], RelationType: r.t}))
	}

	demo := []demoClip{
		{"Cowboy Bebop Ep 5 Opening Fight", "Cowboy Bebop", "5", 12, []string{"Yutaka Nakamura"}, true},
		{"FLCL Guitar Swing", "FLCL", "5", 8, []string{"Norio Matsumoto"}, true},
		{"Birth Kanada Explosion", "Birth", "", 15, []string{"Yoshinori Kanada"}, true},
		{"Denno Coil Chase", "Denno Coil", "1", 20, []string{"Mitsuo Iso", "Shinya Ohira"}, true},
		{"Unverified Sakuga Cut", "", "", 6, []string{"Masahiro Ando"}, false},
	}
	for i, d := range demo {
		in := service.SubmitClipInput{
			Title: d.title, SeriesTitle: d.series, Episode: d.episode, DurationSeconds: d.seconds,
			VideoURL: fmt.Sprintf("https://cdn.example.com/clips/%d.mp4", i+1),
		}
		for _, n := range d.animators {
			in.Attributions = append(in.Attributions, service.AttributionInput{AnimatorID: ids[n], Role: "Key Animation", VerificationStatus: model.VerificationVerified})
		}
		clip := must(clips.Submit(ctx, fanActor, in))
		if !d.approve {
			continue
		}
		must(moderation.Moderate(ctx, curatorActor, clip.ID, service.ModerateInput{Action: service.ActionApprove}))
		must(votes.Vote(ctx, fanActor, model.VoteTargetClip, clip.ID, 1))
		must(comments.Create(ctx, fanActor, clip.ID, service.CommentInput{Body: "incredible timing"}))
	}

	logger.Info("seed complete",
		zap.Int("animators", len(names)),
		zap.Int("relations", len(relations)),
		zap.Int("clips", len(demo)),
		zap.String("admin_login", "admin / sakuga-admin"),
	)
}
