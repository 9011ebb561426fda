package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// 平台编码（对外回调路由与适配器注册共用）
const (
	PlatformMeeduo   = "meeduo"
	PlatformPaneland = "paneland"
	PlatformYuxshu   = "yuxshu"
)

const (
	SyncModeAuto   = "auto"
	SyncModeManual = "manual"
)

// APIConfig 平台接入配置（JSON 列），字段按各平台各取所需。
type APIConfig struct {
	BaseURL    string `json:"base_url,omitempty"`
	SID        string `json:"sid,omitempty"`         // 米多渠道ID
	UID        string `json:"uid,omitempty"`         // 米多跳转链接 uid
	MID        string `json:"mid,omitempty"`         // Paneland 媒体ID
	Key        string `json:"key,omitempty"`         // 回调签名密钥
	Secret     string `json:"secret,omitempty"`      // 鱼小数签名密钥
	DealerCode string `json:"dealer_code,omitempty"` // 鱼小数渠道码
}

func (c APIConfig) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	return string(b), err
}

func (c *APIConfig) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = APIConfig{}
		return nil
	default:
		return fmt.Errorf("unsupported api_config type %T", value)
	}
}

// Platform 外部悬赏平台
type Platform struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	Code       string          `json:"code" gorm:"type:varchar(20);uniqueIndex;not null"`
	Name       string          `json:"name" gorm:"type:varchar(50);not null"`
	SyncMode   string          `json:"sync_mode" gorm:"type:varchar(10);not null;default:auto"`
	PriceRatio decimal.Decimal `json:"price_ratio" gorm:"type:decimal(5,4);not null;default:0.8"`
	APIConfig  APIConfig       `json:"api_config" gorm:"type:json"`
	IsActive   bool            `json:"is_active" gorm:"not null;default:true"`
	LastSyncAt *time.Time      `json:"last_sync_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Platform) TableName() string { return "platforms" }
