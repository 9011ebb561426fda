package main

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/platform"
	"github.com/d60-Lab/reward-hub/internal/repository"
	"github.com/d60-Lab/reward-hub/internal/service"
	"github.com/d60-Lab/reward-hub/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// 结算管道本地压测：N 个账户各参与一个任务，并发回放回调（含重复投递），
// 校验恰好一次入账并输出延迟分位。
func main() {
	_ = logger.Init("dev")

	N := 2000
	if s := os.Getenv("N"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			N = n
		}
	}
	CONC := 8
	if s := os.Getenv("CONC"); s != "" {
		if c, err := strconv.Atoi(s); err == nil && c > 0 {
			CONC = c
		}
	}

	db := must(gorm.Open(sqlite.Open("file::memory:?cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}))
	must(0, db.AutoMigrate(
		&model.Account{}, &model.Platform{}, &model.Task{},
		&model.VirtualIdentity{}, &model.TaskAttempt{},
		&model.Earning{}, &model.OperationLog{},
	))

	accountRepo := repository.NewAccountRepository(db)
	platformRepo := repository.NewPlatformRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	identityRepo := repository.NewVirtualIdentityRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	oplogRepo := repository.NewOperationLogRepository(db)

	registry := platform.NewRegistry(platform.NewYuxshuAdapter())
	identitySvc := service.NewIdentityService(db, registry, identityRepo, accountRepo)
	participationSvc := service.NewParticipationService(db, registry, taskRepo, platformRepo, attemptRepo, identitySvc, oplogRepo)
	callbackSvc := service.NewCallbackService(db, registry, platformRepo, taskRepo, attemptRepo, accountRepo, earningRepo, identitySvc, oplogRepo)

	secret := "bench-secret"
	p := &model.Platform{
		Code: model.PlatformYuxshu, Name: "yuxshu", SyncMode: model.SyncModeManual,
		PriceRatio: decimal.NewFromInt(1), APIConfig: model.APIConfig{Secret: secret},
		IsActive: true,
	}
	must(0, db.Create(p).Error)
	task := &model.Task{
		PlatformID: p.ID, PlatformTaskID: "bench", Title: "bench",
		OriginalPrice: decimal.NewFromFloat(5), Reward: decimal.NewFromFloat(5),
		Commission: decimal.NewFromFloat(0.75), SourceURL: "https://www.yuxshu.cn/s/bench",
		IsManual: true, Status: model.TaskStatusActive,
	}
	must(0, db.Create(task).Error)

	ctx := context.Background()
	virtualIDs := make([]string, N)
	for i := 0; i < N; i++ {
		acct := &model.Account{
			MemberID: fmt.Sprintf("U%06d", i), Phone: fmt.Sprintf("138%08d", i),
			Username: fmt.Sprintf("u%06d", i), Status: 1,
		}
		must(0, db.Create(acct).Error)
		res := must(participationSvc.Participate(ctx, acct, task.ID, fmt.Sprintf("10.0.%d.%d", i/250, i%250), "bench"))
		virtualIDs[i] = res.VirtualID
	}

	sign := func(vid string) string {
		sum := md5.Sum([]byte(vid + "1" + secret))
		return hex.EncodeToString(sum[:])
	}

	// 每个回调投递两次，第二次必须是无操作
	jobs := make(chan string, N)
	for _, vid := range virtualIDs {
		jobs <- vid
	}
	close(jobs)

	lat := make([]time.Duration, 0, N*2)
	var mu sync.Mutex
	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < CONC; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for vid := range jobs {
				params := url.Values{}
				params.Set("memberId", vid)
				params.Set("status", "1")
				params.Set("signStr", sign(vid))
				for i := 0; i < 2; i++ {
					t0 := time.Now()
					_, _ = callbackSvc.Handle(ctx, model.PlatformYuxshu, params, "127.0.0.1")
					mu.Lock()
					lat = append(lat, time.Since(t0))
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	var settled int64
	must(0, db.Model(&model.Earning{}).Count(&settled).Error)

	sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })
	pct := func(q float64) time.Duration { return lat[int(float64(len(lat)-1)*q)] }
	fmt.Printf("callbacks=%d (含重放) settled=%d elapsed=%v qps=%.0f\n",
		len(lat), settled, elapsed, float64(len(lat))/elapsed.Seconds())
	fmt.Printf("p50=%v p90=%v p99=%v\n", pct(0.50), pct(0.90), pct(0.99))
	if settled != int64(N) {
		fmt.Println("ERROR: settled count mismatch, expected", N)
		os.Exit(1)
	}
}
