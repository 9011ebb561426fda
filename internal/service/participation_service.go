package service

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/platform"
	"github.com/d60-Lab/reward-hub/internal/repository"
)

// ParticipationService 任务参与台账：资格校验、身份签发、参与记录与外跳链接。
type ParticipationService struct {
	db        *gorm.DB
	registry  *platform.Registry
	tasks     repository.TaskRepository
	platforms repository.PlatformRepository
	attempts  repository.AttemptRepository
	identity  *IdentityService
	oplogs    repository.OperationLogRepository
}

func NewParticipationService(db *gorm.DB, registry *platform.Registry,
	tasks repository.TaskRepository, platforms repository.PlatformRepository,
	attempts repository.AttemptRepository, identity *IdentityService,
	oplogs repository.OperationLogRepository) *ParticipationService {
	return &ParticipationService{
		db: db, registry: registry, tasks: tasks, platforms: platforms,
		attempts: attempts, identity: identity, oplogs: oplogs,
	}
}

type ParticipateResult struct {
	AttemptID        int64  `json:"attempt_id"`
	VirtualID        string `json:"virtual_id"`
	ParticipationURL string `json:"participation_url"`
}

// Participate 身份签发、参与记录与审计同事务落地，任一步失败整体回滚。
// 普通账户受 (账户,任务) 与 (任务,IP) 双重防重；特权账户仅豁免前者，
// (任务,IP) 唯一约束对所有人生效（存储层兜底）。
func (s *ParticipationService) Participate(ctx context.Context, account *model.Account, taskID int64, ip, userAgent string) (*ParticipateResult, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsAvailable() {
		return nil, errs.ErrTaskDisabled
	}
	p, err := s.platforms.GetByID(ctx, task.PlatformID)
	if err != nil {
		return nil, err
	}
	adapter, err := s.registry.Get(p.Code)
	if err != nil {
		return nil, err
	}

	var result *ParticipateResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempts := s.attempts.WithTx(tx)

		if !account.IsPrivileged {
			taken, err := attempts.ExistsByAccountTask(ctx, account.ID, taskID)
			if err != nil {
				return err
			}
			if taken {
				return errs.ErrDuplicateParticipation
			}
			ipTaken, err := attempts.ExistsByTaskIP(ctx, taskID, ip)
			if err != nil {
				return err
			}
			if ipTaken {
				return errs.ErrDuplicateParticipation
			}
		}

		vi, err := s.identity.IssueInTx(ctx, tx, account, p, taskID)
		if err != nil {
			return err
		}

		attempt := &model.TaskAttempt{
			AccountID:       account.ID,
			TaskID:          taskID,
			VirtualMemberID: vi.VirtualMemberID,
			IPAddress:       ip,
			UserAgent:       userAgent,
			Status:          model.AttemptStatusInProgress,
			StartedAt:       time.Now(),
		}
		if err := attempts.Create(ctx, attempt); err != nil {
			return err
		}

		reqData, _ := json.Marshal(map[string]interface{}{
			"task_id":    taskID,
			"virtual_id": vi.VirtualMemberID,
		})
		risk := "low"
		if account.IsPrivileged {
			risk = "medium"
		}
		if err := s.oplogs.WithTx(tx).Create(ctx, &model.OperationLog{
			AccountID:   account.ID,
			Action:      "task_participate",
			Module:      "task",
			Resource:    "task",
			ResourceID:  taskID,
			IPAddress:   ip,
			UserAgent:   userAgent,
			RequestData: string(reqData),
			Status:      "success",
			RiskLevel:   risk,
		}); err != nil {
			return err
		}

		result = &ParticipateResult{
			AttemptID:        attempt.ID,
			VirtualID:        vi.VirtualMemberID,
			ParticipationURL: adapter.BuildParticipationURL(task, p.APIConfig, vi.VirtualMemberID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 计数失败不影响参与结果
	_ = s.identity.RecordUsage(ctx, result.VirtualID)
	return result, nil
}
