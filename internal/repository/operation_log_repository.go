package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/reward-hub/internal/model"
)

type OperationLogRepository interface {
	WithTx(tx *gorm.DB) OperationLogRepository
	Create(ctx context.Context, log *model.OperationLog) error
}

type operationLogRepository struct{ db *gorm.DB }

func NewOperationLogRepository(db *gorm.DB) OperationLogRepository {
	return &operationLogRepository{db: db}
}

func (r *operationLogRepository) WithTx(tx *gorm.DB) OperationLogRepository {
	return &operationLogRepository{db: tx}
}

func (r *operationLogRepository) Create(ctx context.Context, log *model.OperationLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(log).Error
}
