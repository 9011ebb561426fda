package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
)

type AccountRepository interface {
	WithTx(tx *gorm.DB) AccountRepository
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByMemberID(ctx context.Context, memberID string) (*model.Account, error)
	// AddEarnings 总收益与可提现收益同步累加（结算入账）。
	AddEarnings(ctx context.Context, id int64, amount decimal.Decimal) error
}

type accountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepository{db: db} }

func (r *accountRepository) WithTx(tx *gorm.DB) AccountRepository { return &accountRepository{db: tx} }

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) GetByMemberID(ctx context.Context, memberID string) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) AddEarnings(ctx context.Context, id int64, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_earnings":     gorm.Expr("total_earnings + ?", amount),
			"available_earnings": gorm.Expr("available_earnings + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
