// @title sakugabase API
// @version 1.0
// @description Anime animation clip database: clips, animators, influence graph, moderation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/sakugabase/config"
	"github.com/d60-Lab/sakugabase/internal/api/handler"
	"github.com/d60-Lab/sakugabase/internal/api/middleware"
	"github.com/d60-Lab/sakugabase/internal/api/router"
	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/cache"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/internal/storage"
	"github.com/d60-Lab/sakugabase/pkg/database"
	"github.com/d60-Lab/sakugabase/pkg/logger"
	"github.com/d60-Lab/sakugabase/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	var (
		graphCache service.GraphCache
		dedupe     service.ViewDeduper
	)
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		graphCache = cache.NewGraphCache(rdb, cfg.Redis.GraphCacheTTL)
		dedupe = cache.NewViewDedupe(rdb, cfg.Redis.ViewDedupeTTL)
		logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	resolver, err := storage.NewMinioResolver(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	az, err := authz.NewEnforcer()
	if err != nil {
		return err
	}

	clips := repository.NewClipRepository(db)
	animators := repository.NewAnimatorRepository(db)
	views := service.NewViewCounter(clips, dedupe, cfg.Views.QueueSize)
	stopViews := views.Start(cfg.Views.Workers)

	auth := service.NewAuthService(db, cfg.JWT)
	h := handler.New(handler.Services{
		Auth:        auth,
		Clips:       service.NewClipService(db, az, resolver, views),
		Trending:    service.NewTrendingService(clips, resolver, cfg.Trending),
		Moderation:  service.NewModerationService(db, az, cfg.Moderation),
		Favorites:   service.NewFavoriteService(db, az, resolver),
		Votes:       service.NewVoteService(db, az),
		Comments:    service.NewCommentService(db, az),
		Collections: service.NewCollectionService(db, az, resolver),
		Animators:   service.NewAnimatorService(db, az, resolver, graphCache),
		Influence:   service.NewInfluenceService(animators, repository.NewRelationRepository(db), graphCache, cfg.Graph),
		Rankings:    service.NewRankingService(animators, clips, resolver),
		Users:       service.NewUserService(db, az),
	})

	var rl *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rl = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		rl.StartCleanup(10 * time.Minute)
		defer rl.Stop()
	}

	engine := router.New(router.Options{
		Config:      cfg,
		Handler:     h,
		Tokens:      auth,
		RateLimiter: rl,
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := stopViews(shutdownCtx); err != nil {
		logger.Error("view counter shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	return nil
}
