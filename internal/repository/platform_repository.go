package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
)

type PlatformRepository interface {
	WithTx(tx *gorm.DB) PlatformRepository
	GetByID(ctx context.Context, id int64) (*model.Platform, error)
	GetByCode(ctx context.Context, code string) (*model.Platform, error)
	ListAutoActive(ctx context.Context) ([]*model.Platform, error)
	TouchLastSync(ctx context.Context, id int64) error
}

type platformRepository struct{ db *gorm.DB }

func NewPlatformRepository(db *gorm.DB) PlatformRepository { return &platformRepository{db: db} }

func (r *platformRepository) WithTx(tx *gorm.DB) PlatformRepository {
	return &platformRepository{db: tx}
}

func (r *platformRepository) GetByID(ctx context.Context, id int64) (*model.Platform, error) {
	var p model.Platform
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *platformRepository) GetByCode(ctx context.Context, code string) (*model.Platform, error) {
	var p model.Platform
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *platformRepository) ListAutoActive(ctx context.Context) ([]*model.Platform, error) {
	var res []*model.Platform
	err := r.db.WithContext(ctx).
		Where("sync_mode = ? AND is_active = ?", model.SyncModeAuto, true).
		Find(&res).Error
	return res, err
}

func (r *platformRepository) TouchLastSync(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Platform{}).Where("id = ?", id).
		Update("last_sync_at", now).Error
}
