package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d60-Lab/reward-hub/internal/model"
)

type EarningRepository interface {
	WithTx(tx *gorm.DB) EarningRepository
	Create(ctx context.Context, e *model.Earning) error
	ListByAccount(ctx context.Context, accountID int64, offset, limit int) ([]*model.Earning, error)
	SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error)
}

type earningRepository struct{ db *gorm.DB }

func NewEarningRepository(db *gorm.DB) EarningRepository { return &earningRepository{db: db} }

func (r *earningRepository) WithTx(tx *gorm.DB) EarningRepository { return &earningRepository{db: tx} }

func (r *earningRepository) Create(ctx context.Context, e *model.Earning) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *earningRepository) ListByAccount(ctx context.Context, accountID int64, offset, limit int) ([]*model.Earning, error) {
	var res []*model.Earning
	err := r.db.WithContext(ctx).Where("user_id = ?", accountID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *earningRepository) SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	var raw *float64
	err := r.db.WithContext(ctx).Model(&model.Earning{}).
		Select("SUM(amount)").Where("user_id = ?", accountID).Scan(&raw).Error
	if err != nil || raw == nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(*raw).Round(2), nil
}
