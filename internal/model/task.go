package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TaskStatusDisabled int8 = 0
	TaskStatusActive   int8 = 1
)

// Task 悬赏任务；自动平台由目录同步 upsert，手动平台由运营录入。
type Task struct {
	ID             int64           `json:"id" gorm:"primaryKey"`
	PlatformID     int64           `json:"platform_id" gorm:"index:idx_task_platform_pid,unique;not null"`
	PlatformTaskID string          `json:"platform_task_id" gorm:"type:varchar(100);index:idx_task_platform_pid,unique;not null"`
	Title          string          `json:"title" gorm:"type:varchar(255);not null"`
	Description    string          `json:"description" gorm:"type:text"`
	OriginalPrice  decimal.Decimal `json:"original_price" gorm:"type:decimal(8,2);not null"`
	Reward         decimal.Decimal `json:"reward" gorm:"type:decimal(8,2);not null"`
	Commission     decimal.Decimal `json:"commission" gorm:"type:decimal(8,2);not null"`
	Duration       int             `json:"duration"` // 预计时长（分钟）
	IsManual       bool            `json:"is_manual" gorm:"not null;default:false"`
	SourceURL      string          `json:"source_url" gorm:"type:text"`
	Status         int8            `json:"status" gorm:"index;not null;default:1"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }

func (t *Task) IsAvailable() bool { return t.Status == TaskStatusActive }
