package model

import "time"

// OperationLog 审计记录；回调与参与在事务内落一条，API 层另有异步记录器。
type OperationLog struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AccountID    int64     `json:"account_id" gorm:"column:user_id;index"`
	Action       string    `json:"action" gorm:"type:varchar(50);index;not null"`
	Module       string    `json:"module" gorm:"type:varchar(50)"`
	Resource     string    `json:"resource" gorm:"type:varchar(50)"`
	ResourceID   int64     `json:"resource_id"`
	IPAddress    string    `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent    string    `json:"user_agent" gorm:"type:text"`
	RequestData  string    `json:"request_data" gorm:"type:text"`  // 原始入参，便于事后回放
	ResponseData string    `json:"response_data" gorm:"type:text"`
	Status       string    `json:"status" gorm:"type:varchar(20)"`
	RiskLevel    string    `json:"risk_level" gorm:"type:varchar(10)"`
	CreatedAt    time.Time `json:"created_at"`
}

func (OperationLog) TableName() string { return "operation_logs" }
