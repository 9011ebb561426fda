package service

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/platform"
	"github.com/d60-Lab/reward-hub/internal/repository"
	"github.com/d60-Lab/reward-hub/pkg/logger"
)

// CallbackService 回调结算管道：验签、身份反查、参与终态迁移与入账，
// 整体一个事务。恰好一次结算靠参与行的行锁保证：并发或重放的回调
// 拿到锁后看到非进行中状态，按无操作退出。
type CallbackService struct {
	db        *gorm.DB
	registry  *platform.Registry
	platforms repository.PlatformRepository
	tasks     repository.TaskRepository
	attempts  repository.AttemptRepository
	accounts  repository.AccountRepository
	earnings  repository.EarningRepository
	identity  *IdentityService
	oplogs    repository.OperationLogRepository
}

func NewCallbackService(db *gorm.DB, registry *platform.Registry,
	platforms repository.PlatformRepository, tasks repository.TaskRepository,
	attempts repository.AttemptRepository, accounts repository.AccountRepository,
	earnings repository.EarningRepository, identity *IdentityService,
	oplogs repository.OperationLogRepository) *CallbackService {
	return &CallbackService{
		db: db, registry: registry, platforms: platforms, tasks: tasks,
		attempts: attempts, accounts: accounts, earnings: earnings,
		identity: identity, oplogs: oplogs,
	}
}

// SettleOutcome 单次回调的处理结论（审计与响应共用）。
type SettleOutcome struct {
	AccountID int64           `json:"account_id"`
	AttemptID int64           `json:"attempt_id"`
	TaskID    int64           `json:"task_id"`
	Completed bool            `json:"completed"`
	Reward    decimal.Decimal `json:"reward"`
}

// Handle 处理平台回调。失败只记日志并返回错误种类，不落任何状态；
// 外部平台按自身策略对非 2xx 重试，重放由幂等性兜底。
func (s *CallbackService) Handle(ctx context.Context, platformCode string, params url.Values, ip string) (*SettleOutcome, error) {
	adapter, err := s.registry.Get(platformCode)
	if err != nil {
		return nil, err
	}
	p, err := s.platforms.GetByCode(ctx, platformCode)
	if err != nil {
		return nil, err
	}

	if !adapter.VerifySignature(params, p.APIConfig) {
		logger.Warn("callback: signature mismatch",
			zap.String("platform", platformCode),
			zap.String("payload", params.Encode()))
		return nil, errs.ErrSignature
	}

	cb, err := adapter.Normalize(params)
	if err != nil {
		return nil, err
	}
	isSuccess := adapter.IsSuccess(cb.RawStatus)

	var outcome *SettleOutcome
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.identity.ResolveInTx(ctx, tx, cb.VirtualID)
		if err != nil {
			return err
		}

		// 行锁序列化同一参与上的并发回调
		attempt, err := s.attempts.WithTx(tx).LockInProgressByVirtualID(ctx, cb.VirtualID)
		if err != nil {
			return err
		}

		// 回调未带金额时回退到任务配置奖励
		amount := cb.Amount
		if amount.LessThanOrEqual(decimal.Zero) {
			task, err := s.tasks.WithTx(tx).GetByID(ctx, attempt.TaskID)
			if err != nil {
				return err
			}
			amount = task.Reward
		}

		now := time.Now()
		status := model.AttemptStatusFailed
		reward := decimal.Zero
		if isSuccess {
			status = model.AttemptStatusCompleted
			reward = amount
		}
		if err := s.attempts.WithTx(tx).Finish(ctx, attempt.ID, status, reward, now); err != nil {
			return err
		}

		if isSuccess {
			if err := s.accounts.WithTx(tx).AddEarnings(ctx, account.ID, reward); err != nil {
				return err
			}
			attemptID := attempt.ID
			if err := s.earnings.WithTx(tx).Create(ctx, &model.Earning{
				AccountID:    account.ID,
				AttemptID:    &attemptID,
				Type:         model.EarningTypeTask,
				Amount:       reward,
				Description:  "task settlement",
				Status:       model.EarningStatusSettled,
				SettlementAt: &now,
			}); err != nil {
				return err
			}
		}

		respData, _ := json.Marshal(map[string]interface{}{
			"virtual_id":    cb.VirtualID,
			"real_user_id":  account.ID,
			"task_status":   status,
			"reward_amount": reward,
		})
		if err := s.oplogs.WithTx(tx).Create(ctx, &model.OperationLog{
			AccountID:    account.ID,
			Action:       "task_callback",
			Module:       "task",
			Resource:     "user_task",
			ResourceID:   attempt.ID,
			IPAddress:    ip,
			RequestData:  params.Encode(),
			ResponseData: string(respData),
			Status:       "success",
			RiskLevel:    "low",
		}); err != nil {
			return err
		}

		outcome = &SettleOutcome{
			AccountID: account.ID,
			AttemptID: attempt.ID,
			TaskID:    attempt.TaskID,
			Completed: isSuccess,
			Reward:    reward,
		}
		return nil
	})
	if err != nil {
		logger.Error("callback: settle failed",
			zap.String("platform", platformCode),
			zap.String("virtual_id", cb.VirtualID),
			zap.String("payload", params.Encode()),
			zap.Error(err))
		return nil, err
	}

	logger.Info("callback: settled",
		zap.String("platform", platformCode),
		zap.String("virtual_id", cb.VirtualID),
		zap.Int64("account_id", outcome.AccountID),
		zap.Int64("attempt_id", outcome.AttemptID),
		zap.Bool("completed", outcome.Completed),
		zap.String("reward", outcome.Reward.String()))
	return outcome, nil
}
