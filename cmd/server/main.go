package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/reward-hub/config"
	"github.com/d60-Lab/reward-hub/internal/api"
	"github.com/d60-Lab/reward-hub/internal/api/handler"
	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/platform"
	"github.com/d60-Lab/reward-hub/internal/repository"
	"github.com/d60-Lab/reward-hub/internal/service"
	"github.com/d60-Lab/reward-hub/pkg/database"
	"github.com/d60-Lab/reward-hub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Server.Env); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Server.Env}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&model.Account{}, &model.Platform{}, &model.Task{},
		&model.VirtualIdentity{}, &model.TaskAttempt{},
		&model.Earning{}, &model.OperationLog{},
	); err != nil {
		logger.Fatal("auto migrate", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// repositories
	accountRepo := repository.NewAccountRepository(db)
	platformRepo := repository.NewPlatformRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	identityRepo := repository.NewVirtualIdentityRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	oplogRepo := repository.NewOperationLogRepository(db)

	// platform adapters
	httpClient := &http.Client{Timeout: time.Duration(cfg.Sync.Timeout) * time.Second}
	limiter := rate.NewLimiter(rate.Limit(cfg.Sync.QPS), cfg.Sync.QPS)
	registry := platform.NewRegistry(
		platform.NewMeeduoAdapter(httpClient, limiter, taskRepo, platformRepo),
		platform.NewPanelandAdapter(httpClient, limiter, taskRepo, platformRepo),
		platform.NewYuxshuAdapter(),
	)

	// services
	identitySvc := service.NewIdentityService(db, registry, identityRepo, accountRepo)
	participationSvc := service.NewParticipationService(db, registry, taskRepo, platformRepo, attemptRepo, identitySvc, oplogRepo)
	callbackSvc := service.NewCallbackService(db, registry, platformRepo, taskRepo, attemptRepo, accountRepo, earningRepo, identitySvc, oplogRepo)
	taskCache := service.NewTaskCache(rdb, taskRepo, time.Duration(cfg.Redis.TaskTTL)*time.Second)
	syncSvc := service.NewSyncService(registry, platformRepo, taskRepo, taskCache)

	recorder := service.NewAuditRecorder(oplogRepo, 10000)
	stopRecorder := recorder.Start(2)

	h := handler.New(participationSvc, callbackSvc, syncSvc, taskCache)
	router := api.NewRouter(cfg, h, accountRepo, recorder)

	// 可选的内置目录同步调度；生产通常由外部调度器触发
	if cfg.Sync.Spec != "" {
		c := cron.New()
		if err := c.AddFunc(cfg.Sync.Spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			syncSvc.SyncAll(ctx)
		}); err != nil {
			logger.Fatal("bad sync cron spec", zap.Error(err))
		}
		c.Start()
		defer c.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	_ = stopRecorder(ctx)
	logger.Info("server exiting")
}
