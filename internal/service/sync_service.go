package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/platform"
	"github.com/d60-Lab/reward-hub/internal/repository"
	"github.com/d60-Lab/reward-hub/pkg/logger"
)

// SyncService 任务目录维护：auto 平台远端同步，manual 平台运营录入。
// 目录同步只写 tasks 表，与结算路径无竞争。
type SyncService struct {
	registry  *platform.Registry
	platforms repository.PlatformRepository
	tasks     repository.TaskRepository
	cache     *TaskCache
	validate  *validator.Validate
}

func NewSyncService(registry *platform.Registry, platforms repository.PlatformRepository,
	tasks repository.TaskRepository, cache *TaskCache) *SyncService {
	return &SyncService{
		registry:  registry,
		platforms: platforms,
		tasks:     tasks,
		cache:     cache,
		validate:  validator.New(),
	}
}

type SyncResult struct {
	Platform string `json:"platform"`
	Inserted int    `json:"inserted"`
	Err      string `json:"error,omitempty"`
}

// SyncPlatform 同步单个平台目录，返回新插入条数。
func (s *SyncService) SyncPlatform(ctx context.Context, code string) (int, error) {
	adapter, err := s.registry.Get(code)
	if err != nil {
		return 0, err
	}
	p, err := s.platforms.GetByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	n, err := adapter.SyncCatalog(ctx, p)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return n, nil
}

// SyncAll 轮询全部 auto 平台；单平台失败不影响其余。
func (s *SyncService) SyncAll(ctx context.Context) []SyncResult {
	ps, err := s.platforms.ListAutoActive(ctx)
	if err != nil {
		logger.Error("sync: list platforms failed", zap.Error(err))
		return nil
	}
	results := make([]SyncResult, 0, len(ps))
	for _, p := range ps {
		n, err := s.SyncPlatform(ctx, p.Code)
		r := SyncResult{Platform: p.Code, Inserted: n}
		if err != nil {
			r.Err = err.Error()
			logger.Error("sync: platform failed", zap.String("platform", p.Code), zap.Error(err))
		}
		results = append(results, r)
	}
	return results
}

// ManualTaskInput 手动任务录入（鱼小数）。
type ManualTaskInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	SourceURL   string `json:"source_url" validate:"required,url"`
	Reward      string `json:"reward" validate:"required"`
	Duration    int    `json:"duration" validate:"gte=0"`
	Status      *int8  `json:"status"`
}

// CreateManualTask 为手动平台录入任务；原价即奖励，佣金按平台固定比例计。
func (s *SyncService) CreateManualTask(ctx context.Context, code string, in ManualTaskInput) (*model.Task, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, errors.Wrap(errs.ErrValidation, err.Error())
	}
	reward, err := decimal.NewFromString(in.Reward)
	if err != nil || reward.LessThanOrEqual(decimal.Zero) {
		return nil, errors.Wrap(errs.ErrValidation, "reward must be a positive amount")
	}

	p, err := s.platforms.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p.SyncMode != model.SyncModeManual {
		return nil, errors.Wrap(errs.ErrValidation, "platform is not manual")
	}

	platformTaskID := platform.ExtractTaskIDFromURL(in.SourceURL)
	if _, err := s.tasks.GetByPlatformTaskID(ctx, p.ID, platformTaskID); err == nil {
		return nil, errors.Wrap(errs.ErrValidation, "task already exists")
	} else if !errs.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	status := model.TaskStatusActive
	if in.Status != nil {
		status = *in.Status
	}
	task := &model.Task{
		PlatformID:     p.ID,
		PlatformTaskID: platformTaskID,
		Title:          in.Title,
		Description:    in.Description,
		OriginalPrice:  reward.Round(2),
		Reward:         reward.Round(2),
		Commission:     reward.Mul(platform.YuxshuRetained()).Round(2),
		Duration:       in.Duration,
		SourceURL:      in.SourceURL,
		IsManual:       true,
		Status:         status,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	logger.Info("manual task created",
		zap.String("platform", code),
		zap.Int64("task_id", task.ID),
		zap.String("platform_task_id", platformTaskID))
	return task, nil
}
