package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
)

type VirtualIdentityRepository interface {
	WithTx(tx *gorm.DB) VirtualIdentityRepository
	Create(ctx context.Context, vi *model.VirtualIdentity) error
	// FindReusable 查普通用户在平台上已有的固定身份。
	FindReusable(ctx context.Context, accountID, platformID int64) (*model.VirtualIdentity, error)
	FindByVirtualID(ctx context.Context, virtualID string) (*model.VirtualIdentity, error)
	Exists(ctx context.Context, virtualID string) (bool, error)
	// RecordUsage 使用计数单调递增，多次调用无副作用风险。
	RecordUsage(ctx context.Context, virtualID string) error
}

type virtualIdentityRepository struct{ db *gorm.DB }

func NewVirtualIdentityRepository(db *gorm.DB) VirtualIdentityRepository {
	return &virtualIdentityRepository{db: db}
}

func (r *virtualIdentityRepository) WithTx(tx *gorm.DB) VirtualIdentityRepository {
	return &virtualIdentityRepository{db: tx}
}

func (r *virtualIdentityRepository) Create(ctx context.Context, vi *model.VirtualIdentity) error {
	return r.db.WithContext(ctx).Create(vi).Error
}

func (r *virtualIdentityRepository) FindReusable(ctx context.Context, accountID, platformID int64) (*model.VirtualIdentity, error) {
	var vi model.VirtualIdentity
	err := r.db.WithContext(ctx).
		Where("real_user_id = ? AND platform_id = ? AND is_privileged_user = ?", accountID, platformID, false).
		First(&vi).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &vi, nil
}

func (r *virtualIdentityRepository) FindByVirtualID(ctx context.Context, virtualID string) (*model.VirtualIdentity, error) {
	var vi model.VirtualIdentity
	err := r.db.WithContext(ctx).Where("virtual_member_id = ?", virtualID).First(&vi).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &vi, nil
}

func (r *virtualIdentityRepository) Exists(ctx context.Context, virtualID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.VirtualIdentity{}).
		Where("virtual_member_id = ?", virtualID).Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *virtualIdentityRepository) RecordUsage(ctx context.Context, virtualID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.VirtualIdentity{}).
		Where("virtual_member_id = ?", virtualID).
		Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": now,
		}).Error
}
