package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account 用户账户（含防作弊与特权字段）
type Account struct {
	ID                int64           `json:"id" gorm:"primaryKey"`
	MemberID          string          `json:"member_id" gorm:"type:varchar(32);uniqueIndex;not null"`
	Phone             string          `json:"phone" gorm:"type:varchar(20);uniqueIndex;not null"`
	Username          string          `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Password          string          `json:"-" gorm:"type:varchar(255)"`
	TotalEarnings     decimal.Decimal `json:"total_earnings" gorm:"type:decimal(12,2);not null;default:0"`
	AvailableEarnings decimal.Decimal `json:"available_earnings" gorm:"type:decimal(12,2);not null;default:0"`
	FrozenEarnings    decimal.Decimal `json:"frozen_earnings" gorm:"type:decimal(12,2);not null;default:0"`
	IsPrivileged      bool            `json:"is_privileged" gorm:"not null;default:false"`
	PrivilegeLevel    int             `json:"privilege_level" gorm:"not null;default:0"`
	LastLoginIP       string          `json:"last_login_ip" gorm:"type:varchar(45)"`
	Status            int8            `json:"status" gorm:"not null;default:1"` // 1:正常 0:禁用
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (Account) TableName() string { return "users" }
