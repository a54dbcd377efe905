package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/healththreads/timeline/config"
	"github.com/healththreads/timeline/internal/api/handler"
	"github.com/healththreads/timeline/internal/api/router"
	"github.com/healththreads/timeline/internal/cache"
	"github.com/healththreads/timeline/internal/model"
	"github.com/healththreads/timeline/internal/repository"
	"github.com/healththreads/timeline/internal/service"
	"github.com/healththreads/timeline/internal/stream"
	"github.com/healththreads/timeline/pkg/database"
	"github.com/healththreads/timeline/pkg/logger"
	"github.com/healththreads/timeline/pkg/redisx"
	"github.com/healththreads/timeline/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg)
	if err != nil {
		logger.Warn("tracing init failed", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", zap.Error(err))
		return
	}
	if err := db.AutoMigrate(
		&model.User{}, &model.Post{}, &model.MediaAsset{},
		&model.Follow{}, &model.Fan{}, &model.Group{}, &model.PostLike{},
	); err != nil {
		logger.Error("automigrate failed", zap.Error(err))
		return
	}

	rdb, err := redisx.New(cfg)
	if err != nil {
		logger.Error("redis init failed", zap.Error(err))
		return
	}
	defer rdb.Close()

	indexer := stream.NewIndexProducer(cfg.Kafka.Brokers, cfg.Kafka.IndexTopic)
	defer indexer.Close()

	postRepo := repository.NewPostRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	userRepo := repository.NewUserRepository(db)
	likeRepo := repository.NewPostLikeRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	timelineStore := cache.NewTimelineStore(rdb)
	trendingStore := cache.NewTrendingStore(rdb)
	snapshots := cache.NewUserSnapshotCache(userRepo, rdb, 10*time.Minute)
	likeCache := cache.NewLikeCache(rdb)
	notifier := cache.NewRedisNotifier(rdb)

	replicator := service.NewFanReplicator(fanRepo, 10000)
	stopReplicator := replicator.Start(4)

	fanout := service.NewFanoutService(fanRepo, timelineStore, cfg.Fanout.BatchSize)
	trending := service.NewTrendingService(trendingStore)
	ingest := service.NewIngestService(postRepo, groupRepo, userRepo, fanout, trending, indexer, notifier)
	likeSvc := service.NewLikeService(likeRepo, postRepo, likeCache)
	timelineSvc := service.NewTimelineService(timelineStore, postRepo, likeSvc, snapshots,
		cfg.Feed.DefaultPageSize, cfg.Feed.MaxPageSize)
	relSvc := service.NewRelationshipService(followRepo, fanRepo, replicator)
	userSvc := service.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.AccessTTL)
	groupSvc := service.NewGroupService(groupRepo)

	h := handler.New(ingest, timelineSvc, trending, relSvc, likeSvc, userSvc, groupSvc)
	r := router.New(cfg, h, userSvc)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := stopReplicator(shutdownCtx); err != nil {
		logger.Warn("replicator shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}
