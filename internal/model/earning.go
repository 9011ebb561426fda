package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EarningTypeTask     int8 = 1
	EarningTypeReferral int8 = 2
)

const (
	EarningStatusPending int8 = 0
	EarningStatusSettled int8 = 1
)

// Earning 收益流水，只追加；每个成功结算的参与恰好一条。
type Earning struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	AccountID    int64           `json:"account_id" gorm:"column:user_id;index:idx_earning_user_status;not null"`
	AttemptID    *int64          `json:"attempt_id" gorm:"column:user_task_id;uniqueIndex"`
	Type         int8            `json:"type" gorm:"not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(8,2);not null"`
	Description  string          `json:"description" gorm:"type:varchar(255)"`
	Status       int8            `json:"status" gorm:"index:idx_earning_user_status;not null;default:0"`
	SettlementAt *time.Time      `json:"settlement_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Earning) TableName() string { return "earnings" }
