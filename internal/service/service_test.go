package service

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/platform"
	"github.com/d60-Lab/reward-hub/internal/repository"
)

// testEnv 在内存库上装配完整服务栈，回调/参与测试共用。
type testEnv struct {
	db            *gorm.DB
	registry      *platform.Registry
	identity      *IdentityService
	participation *ParticipationService
	callback      *CallbackService
	sync          *SyncService

	accounts   repository.AccountRepository
	identities repository.VirtualIdentityRepository
	attempts   repository.AttemptRepository
	earnings   repository.EarningRepository
}

func setupEnv(t *testing.T, extra ...platform.Adapter) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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

	// 结算与参与路径不触发目录同步，适配器不需要 HTTP 客户端
	adapters := append([]platform.Adapter{
		platform.NewMeeduoAdapter(nil, nil, taskRepo, platformRepo),
		platform.NewPanelandAdapter(nil, nil, taskRepo, platformRepo),
		platform.NewYuxshuAdapter(),
	}, extra...)
	registry := platform.NewRegistry(adapters...)

	identitySvc := NewIdentityService(db, registry, identityRepo, accountRepo)
	return &testEnv{
		db:            db,
		registry:      registry,
		identity:      identitySvc,
		participation: NewParticipationService(db, registry, taskRepo, platformRepo, attemptRepo, identitySvc, oplogRepo),
		callback:      NewCallbackService(db, registry, platformRepo, taskRepo, attemptRepo, accountRepo, earningRepo, identitySvc, oplogRepo),
		sync:          NewSyncService(registry, platformRepo, taskRepo, nil),
		accounts:      accountRepo,
		identities:    identityRepo,
		attempts:      attemptRepo,
		earnings:      earningRepo,
	}
}

var accountSeq int

func (e *testEnv) createAccount(t *testing.T, privileged bool) *model.Account {
	t.Helper()
	accountSeq++
	a := &model.Account{
		MemberID:     fmt.Sprintf("M%06d", accountSeq),
		Phone:        fmt.Sprintf("139%08d", accountSeq),
		Username:     fmt.Sprintf("user%06d", accountSeq),
		IsPrivileged: privileged,
		Status:       1,
	}
	require.NoError(t, e.db.Create(a).Error)
	return a
}

func (e *testEnv) createPlatform(t *testing.T, code, mode string, cfg model.APIConfig) *model.Platform {
	t.Helper()
	p := &model.Platform{
		Code: code, Name: code, SyncMode: mode,
		PriceRatio: decimal.NewFromFloat(0.8),
		APIConfig:  cfg, IsActive: true,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) createTask(t *testing.T, platformID int64, platformTaskID, sourceURL string, reward float64) *model.Task {
	t.Helper()
	r := decimal.NewFromFloat(reward)
	task := &model.Task{
		PlatformID:     platformID,
		PlatformTaskID: platformTaskID,
		Title:          "task " + platformTaskID,
		OriginalPrice:  r.Div(decimal.NewFromFloat(0.8)).Round(2),
		Reward:         r,
		Commission:     r.Mul(decimal.NewFromFloat(0.2)).Round(2),
		SourceURL:      sourceURL,
		Status:         model.TaskStatusActive,
	}
	require.NoError(t, e.db.Create(task).Error)
	return task
}

// stubAdapter 测试用适配器：虚拟ID固定，便于制造碰撞。
type stubAdapter struct{ id string }

func (a *stubAdapter) Code() string { return "stub" }
func (a *stubAdapter) VerifySignature(params url.Values, cfg model.APIConfig) bool {
	return true
}
func (a *stubAdapter) Normalize(params url.Values) (*platform.Callback, error) {
	return &platform.Callback{
		VirtualID: params.Get("id"),
		RawStatus: params.Get("st"),
		Amount:    decimal.Zero,
	}, nil
}
func (a *stubAdapter) IsSuccess(rawStatus string) bool { return rawStatus == "ok" }
func (a *stubAdapter) GenerateVirtualID() string       { return a.id }
func (a *stubAdapter) IDFormat() string                { return "STUB_{fixed}" }
func (a *stubAdapter) BuildParticipationURL(task *model.Task, cfg model.APIConfig, virtualID string) string {
	return "https://stub.example.com/" + virtualID
}
func (a *stubAdapter) SyncCatalog(ctx context.Context, p *model.Platform) (int, error) {
	return 0, nil
}
