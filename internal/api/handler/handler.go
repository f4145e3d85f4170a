// Package handler 基于 gin 暴露各服务接口
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sakugabase/internal/api/middleware"
	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/pagination"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

// Services 处理器依赖的业务服务
type Services struct {
	Auth        service.AuthService
	Clips       service.ClipService
	Trending    *service.TrendingService
	Moderation  service.ModerationService
	Favorites   service.FavoriteService
	Votes       service.VoteService
	Comments    service.CommentService
	Collections service.CollectionService
	Animators   service.AnimatorService
	Influence   service.InfluenceService
	Rankings    service.RankingService
	Users       service.UserService
}

type Handler struct {
	authService       service.AuthService
	clipService       service.ClipService
	trendingService   *service.TrendingService
	moderationService service.ModerationService
	favoriteService   service.FavoriteService
	voteService       service.VoteService
	commentService    service.CommentService
	collectionService service.CollectionService
	animatorService   service.AnimatorService
	influenceService  service.InfluenceService
	rankingService    service.RankingService
	userService       service.UserService
}

func New(s Services) *Handler {
	return &Handler{
		authService:       s.Auth,
		clipService:       s.Clips,
		trendingService:   s.Trending,
		moderationService: s.Moderation,
		favoriteService:   s.Favorites,
		voteService:       s.Votes,
		commentService:    s.Comments,
		collectionService: s.Collections,
		animatorService:   s.Animators,
		influenceService:  s.Influence,
		rankingService:    s.Rankings,
		userService:       s.Users,
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.ValidationFailed(c, err)
		return false
	}
	return true
}

// bindPage 页码参数，limit 超过上限时截断
func bindPage(c *gin.Context) (pagination.Page, bool) {
	var p pagination.Page
	if err := c.ShouldBindQuery(&p); err != nil {
		response.ValidationFailed(c, err)
		return p, false
	}
	return p.Normalize(pagination.MaxLimit), true
}

// optionalInt 缺省返回 nil；非整数为参数错误
func optionalInt(c *gin.Context, name string) (*int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, apperrors.Validation("invalid request parameters",
			apperrors.FieldError{Field: name, Message: "must be an integer"}))
		return nil, false
	}
	return &v, true
}

// viewerKey 播放去重键：登录用户用 ID，否则用客户端 IP
func viewerKey(c *gin.Context, actor service.Actor) string {
	if actor.Authenticated() {
		return "user:" + actor.UserID
	}
	return "ip:" + c.ClientIP()
}

func pageList(c *gin.Context, p pagination.Page, data any, total int64) {
	response.SuccessWithPagination(c, data, response.NewPagePagination(p.Page, p.Limit, total))
}

func actor(c *gin.Context) service.Actor { return middleware.ActorFrom(c) }
