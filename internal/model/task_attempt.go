package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AttemptStatusInProgress int8 = 0
	AttemptStatusCompleted  int8 = 1
	AttemptStatusFailed     int8 = 2
)

// TaskAttempt 一次任务参与，从发起到终态只迁移一次。
// (task_id, ip_address) 全局唯一：同一 IP 不允许重复参与同一任务，特权用户也不例外。
type TaskAttempt struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	AccountID       int64           `json:"account_id" gorm:"column:user_id;index:idx_attempt_user_task;not null"`
	TaskID          int64           `json:"task_id" gorm:"index:idx_attempt_user_task;index:idx_attempt_vmid_task,unique;index:idx_attempt_task_ip,unique;not null"`
	VirtualMemberID string          `json:"virtual_member_id" gorm:"type:varchar(32);index;index:idx_attempt_vmid_task,unique"`
	IPAddress       string          `json:"ip_address" gorm:"type:varchar(45);index:idx_attempt_task_ip,unique;not null"`
	UserAgent       string          `json:"user_agent" gorm:"type:text"`
	Status          int8            `json:"status" gorm:"index;not null;default:0"`
	RewardAmount    decimal.Decimal `json:"reward_amount" gorm:"type:decimal(8,2);not null;default:0"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (TaskAttempt) TableName() string { return "user_tasks" }
