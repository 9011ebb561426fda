package platform

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/repository"
	"github.com/d60-Lab/reward-hub/pkg/logger"
)

// remoteTask 平台目录接口返回的单条任务（已转成内部字段名）。
type remoteTask struct {
	PlatformTaskID string
	Title          string
	Description    string
	OriginalPrice  decimal.Decimal
	Duration       int
	SourceURL      string
}

// calcReward 用户到手价 = 原价 × 平台展示比例，保留两位（四舍五入）。
func calcReward(originalPrice, priceRatio decimal.Decimal) decimal.Decimal {
	return originalPrice.Mul(priceRatio).Round(2)
}

// calcCommission 平台留存佣金 = 原价 × 固定留存比例。
func calcCommission(originalPrice, retained decimal.Decimal) decimal.Decimal {
	return originalPrice.Mul(retained).Round(2)
}

// upsertCatalog 按 (platform_id, platform_task_id) 合并目录，返回新插入条数。
// 单条失败只告警不中断，和远端目录的部分脏数据共存。
func upsertCatalog(ctx context.Context, tasks repository.TaskRepository, platforms repository.PlatformRepository,
	p *model.Platform, items []remoteTask, retained decimal.Decimal) (int, error) {

	inserted := 0
	for _, it := range items {
		existing, err := tasks.GetByPlatformTaskID(ctx, p.ID, it.PlatformTaskID)
		switch {
		case err == nil:
			existing.Title = it.Title
			existing.OriginalPrice = it.OriginalPrice
			existing.Reward = calcReward(it.OriginalPrice, p.PriceRatio)
			existing.Commission = calcCommission(it.OriginalPrice, retained)
			existing.Duration = it.Duration
			existing.SourceURL = it.SourceURL
			if err := tasks.Update(ctx, existing); err != nil {
				logger.Warn("sync: update task failed",
					zap.String("platform", p.Code),
					zap.String("platform_task_id", it.PlatformTaskID),
					zap.Error(err))
			}
		default:
			t := &model.Task{
				PlatformID:     p.ID,
				PlatformTaskID: it.PlatformTaskID,
				Title:          it.Title,
				Description:    it.Description,
				OriginalPrice:  it.OriginalPrice,
				Reward:         calcReward(it.OriginalPrice, p.PriceRatio),
				Commission:     calcCommission(it.OriginalPrice, retained),
				Duration:       it.Duration,
				SourceURL:      it.SourceURL,
				IsManual:       false,
				Status:         model.TaskStatusActive,
			}
			if err := tasks.Create(ctx, t); err != nil {
				logger.Warn("sync: create task failed",
					zap.String("platform", p.Code),
					zap.String("platform_task_id", it.PlatformTaskID),
					zap.Error(err))
				continue
			}
			inserted++
		}
	}

	if err := platforms.TouchLastSync(ctx, p.ID); err != nil {
		logger.Warn("sync: touch last_sync_at failed", zap.String("platform", p.Code), zap.Error(err))
	}

	logger.Info("sync: catalog merged",
		zap.String("platform", p.Code),
		zap.Int("received", len(items)),
		zap.Int("inserted", inserted))
	return inserted, nil
}
