package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
)

type TaskRepository interface {
	WithTx(tx *gorm.DB) TaskRepository
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	GetByPlatformTaskID(ctx context.Context, platformID int64, platformTaskID string) (*model.Task, error)
	ListActive(ctx context.Context, platformID int64, offset, limit int) ([]*model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
}

type taskRepository struct{ db *gorm.DB }

func NewTaskRepository(db *gorm.DB) TaskRepository { return &taskRepository{db: db} }

func (r *taskRepository) WithTx(tx *gorm.DB) TaskRepository { return &taskRepository{db: tx} }

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	var t model.Task
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *taskRepository) GetByPlatformTaskID(ctx context.Context, platformID int64, platformTaskID string) (*model.Task, error) {
	var t model.Task
	err := r.db.WithContext(ctx).
		Where("platform_id = ? AND platform_task_id = ?", platformID, platformTaskID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListActive platformID=0 表示全部平台。
func (r *taskRepository) ListActive(ctx context.Context, platformID int64, offset, limit int) ([]*model.Task, error) {
	q := r.db.WithContext(ctx).Where("status = ?", model.TaskStatusActive)
	if platformID > 0 {
		q = q.Where("platform_id = ?", platformID)
	}
	var res []*model.Task
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}
