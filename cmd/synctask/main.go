package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/d60-Lab/reward-hub/config"
	"github.com/d60-Lab/reward-hub/internal/platform"
	"github.com/d60-Lab/reward-hub/internal/repository"
	"github.com/d60-Lab/reward-hub/internal/service"
	"github.com/d60-Lab/reward-hub/pkg/database"
	"github.com/d60-Lab/reward-hub/pkg/logger"
)

// 目录同步一次性执行器，供外部调度（crontab / k8s CronJob）调用。
func main() {
	code := flag.String("platform", "", "仅同步指定平台，留空同步全部 auto 平台")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Server.Env); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init database:", err)
		os.Exit(1)
	}

	platformRepo := repository.NewPlatformRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	httpClient := &http.Client{Timeout: time.Duration(cfg.Sync.Timeout) * time.Second}
	limiter := rate.NewLimiter(rate.Limit(cfg.Sync.QPS), cfg.Sync.QPS)
	registry := platform.NewRegistry(
		platform.NewMeeduoAdapter(httpClient, limiter, taskRepo, platformRepo),
		platform.NewPanelandAdapter(httpClient, limiter, taskRepo, platformRepo),
		platform.NewYuxshuAdapter(),
	)
	syncSvc := service.NewSyncService(registry, platformRepo, taskRepo, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *code != "" {
		n, err := syncSvc.SyncPlatform(ctx, *code)
		if err != nil {
			fmt.Fprintln(os.Stderr, "sync failed:", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d inserted\n", *code, n)
		return
	}
	for _, r := range syncSvc.SyncAll(ctx) {
		if r.Err != "" {
			fmt.Printf("%s: failed: %s\n", r.Platform, r.Err)
			continue
		}
		fmt.Printf("%s: %d inserted\n", r.Platform, r.Inserted)
	}
}
