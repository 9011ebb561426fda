package model

import "time"

// VirtualIdentity 真实账户与平台侧会员ID的映射。
// 普通用户每个平台固定一条；特权用户每次参与新铸一条并绑定任务。
type VirtualIdentity struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	RealAccountID   int64      `json:"real_account_id" gorm:"column:real_user_id;index;not null"`
	VirtualMemberID string     `json:"virtual_member_id" gorm:"type:varchar(32);uniqueIndex;not null"`
	PlatformID      int64      `json:"platform_id" gorm:"index;not null"`
	TaskID          *int64     `json:"task_id"` // 仅特权身份绑定任务
	IDFormat        string     `json:"id_format" gorm:"type:varchar(50)"`
	IsPrivileged    bool       `json:"is_privileged" gorm:"column:is_privileged_user;not null;default:false"`
	IsActive        bool       `json:"is_active" gorm:"not null;default:true"`
	UsageCount      int        `json:"usage_count" gorm:"not null;default:0"`
	LastUsedAt      *time.Time `json:"last_used_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (VirtualIdentity) TableName() string { return "virtual_user_ids" }
