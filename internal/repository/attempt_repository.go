package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
)

type AttemptRepository interface {
	WithTx(tx *gorm.DB) AttemptRepository
	Create(ctx context.Context, attempt *model.TaskAttempt) error
	ExistsByAccountTask(ctx context.Context, accountID, taskID int64) (bool, error)
	ExistsByTaskIP(ctx context.Context, taskID int64, ip string) (bool, error)
	// LockInProgressByVirtualID 行锁取出进行中的参与记录；并发回调在此序列化。
	LockInProgressByVirtualID(ctx context.Context, virtualID string) (*model.TaskAttempt, error)
	// Finish 终态迁移，只对仍处于进行中的行生效。
	Finish(ctx context.Context, id int64, status int8, reward decimal.Decimal, completedAt time.Time) error
}

type attemptRepository struct{ db *gorm.DB }

func NewAttemptRepository(db *gorm.DB) AttemptRepository { return &attemptRepository{db: db} }

func (r *attemptRepository) WithTx(tx *gorm.DB) AttemptRepository { return &attemptRepository{db: tx} }

func (r *attemptRepository) Create(ctx context.Context, attempt *model.TaskAttempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.ErrDuplicateParticipation
		}
		return err
	}
	return nil
}

func (r *attemptRepository) ExistsByAccountTask(ctx context.Context, accountID, taskID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.TaskAttempt{}).
		Where("user_id = ? AND task_id = ?", accountID, taskID).Count(&cnt).Error
	return cnt > 0, err
}

func (r *attemptRepository) ExistsByTaskIP(ctx context.Context, taskID int64, ip string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.TaskAttempt{}).
		Where("task_id = ? AND ip_address = ?", taskID, ip).Count(&cnt).Error
	return cnt > 0, err
}

func (r *attemptRepository) LockInProgressByVirtualID(ctx context.Context, virtualID string) (*model.TaskAttempt, error) {
	q := r.db.WithContext(ctx)
	// sqlite 不支持 FOR UPDATE，写事务本身全局串行
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var a model.TaskAttempt
	err := q.
		Where("virtual_member_id = ? AND status = ?", virtualID, model.AttemptStatusInProgress).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNoMatchingAttempt
		}
		return nil, err
	}
	return &a, nil
}

func (r *attemptRepository) Finish(ctx context.Context, id int64, status int8, reward decimal.Decimal, completedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.TaskAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptStatusInProgress).
		Updates(map[string]interface{}{
			"status":        status,
			"reward_amount": reward,
			"completed_at":  completedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNoMatchingAttempt
	}
	return nil
}

// isUniqueViolation 识别唯一约束冲突（postgres 23505 / sqlite UNIQUE constraint failed）。
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}
