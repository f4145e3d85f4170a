package router

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/sakugabase/config"
	_ "github.com/d60-Lab/sakugabase/docs"
	"github.com/d60-Lab/sakugabase/internal/api/handler"
	"github.com/d60-Lab/sakugabase/internal/api/middleware"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

// Options 路由依赖
type Options struct {
	Config      *config.Config
	Handler     *handler.Handler
	Tokens      middleware.TokenParser
	RateLimiter *middleware.RateLimiter // nil 表示不限流
	Health      func(ctx context.Context) error
}

var registerOnce sync.Once

// useJSONFieldNames 校验错误中的字段名使用 json 标签
func useJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" {
				name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			}
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

func New(o Options) *gin.Engine {
	gin.SetMode(o.Config.Server.Mode)
	useJSONFieldNames()
	r := gin.New()

	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery(), middleware.Sentry())
	if o.Config.Tracing.Enabled {
		r.Use(otelgin.Middleware(o.Config.Tracing.ServiceName))
	}
	r.Use(middleware.Metrics(), gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", func(c *gin.Context) {
		if o.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := o.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if o.Config.Server.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := o.Handler
	authed := middleware.AuthRequired(o.Tokens)

	v1 := r.Group("/api/v1", middleware.OptionalAuth(o.Tokens))
	if o.RateLimiter != nil {
		v1.Use(middleware.RateLimit(o.RateLimiter))
	}
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)

		me := v1.Group("/me", authed)
		me.GET("", h.Me)
		me.GET("/favorites", h.MyFavorites)
		me.GET("/collections", h.MyCollections)

		v1.GET("/search", h.Search)
		v1.PUT("/users/:id/role", authed, h.SetUserRole)

		// 详情接口的 :id 位置传 slug
		clips := v1.Group("/clips")
		clips.GET("", h.ListClips)
		clips.GET("/trending", h.TrendingClips)
		clips.GET("/:id", h.GetClip)
		clips.GET("/:id/comments", h.ListComments)
		clips.POST("", authed, h.SubmitClip)
		clips.POST("/:id/moderate", authed, h.ModerateClip)
		clips.POST("/:id/favorite", authed, h.ToggleClipFavorite)
		clips.POST("/:id/vote", authed, h.VoteClip)
		clips.POST("/:id/comments", authed, h.CreateComment)

		v1.GET("/moderation/queue", authed, h.ModerationQueue)

		animators := v1.Group("/animators")
		animators.GET("", h.ListAnimators)
		animators.GET("/:id", h.GetAnimator)
		animators.GET("/:id/graph", h.InfluenceGraph)
		animators.POST("", authed, h.CreateAnimator)
		animators.POST("/:id/relations", authed, h.AddRelation)
		animators.DELETE("/:id/relations/:relationId", authed, h.RemoveRelation)
		animators.POST("/:id/favorite", authed, h.ToggleAnimatorFavorite)
		animators.POST("/:id/vote", authed, h.VoteAnimator)

		collections := v1.Group("/collections")
		collections.GET("/:id", h.GetCollection)
		collections.POST("", authed, h.CreateCollection)
		collections.DELETE("/:id", authed, h.DeleteCollection)
		collections.POST("/:id/clips", authed, h.AddCollectionClip)
		collections.DELETE("/:id/clips/:clipId", authed, h.RemoveCollectionClip)

		rankings := v1.Group("/rankings")
		rankings.GET("/animators", h.RankAnimators)
		rankings.GET("/clips", h.RankClips)
	}

	r.NoRoute(func(c *gin.Context) { response.NotFound(c, "route not found") })
	return r
}
