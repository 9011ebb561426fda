package platform

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"math/rand"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
)

// Callback 各平台回调归一化后的形状。
// Amount 为零值表示回调未携带金额，由结算侧回退到任务配置奖励。
type Callback struct {
	VirtualID string
	EventID   string
	RawStatus string
	Amount    decimal.Decimal
}

// Adapter 单个外部平台的全部线格式差异：签名、回调归一化、
// 成功码映射、虚拟ID格式、参与链接与目录同步。
// 新平台通过实现本接口接入，不扩散 switch。
type Adapter interface {
	Code() string

	// VerifySignature 按平台固定的字段拼接顺序重算 md5，忽略大小写比较。
	// 顺序或算法任何偏差都会使该平台全部回调失效。
	VerifySignature(params url.Values, cfg model.APIConfig) bool

	// Normalize 抽取平台命名的字段；缺必填字段返回 ErrValidation。
	Normalize(params url.Values) (*Callback, error)

	// IsSuccess 平台状态码到布尔的表驱动映射；未知码一律视为失败。
	IsSuccess(rawStatus string) bool

	// GenerateVirtualID 生成符合平台字符集/长度要求的会员ID。
	GenerateVirtualID() string
	IDFormat() string

	BuildParticipationURL(task *model.Task, cfg model.APIConfig, virtualID string) string

	// SyncCatalog 拉取远端任务目录并按 (platform_id, platform_task_id) upsert，
	// 返回新插入数量。手动平台返回 ErrManualPlatform。
	SyncCatalog(ctx context.Context, p *model.Platform) (int, error)
}

// Registry 平台适配器注册表。
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Code()] = a
	}
	return &Registry{adapters: m}
}

func (r *Registry) Get(code string) (Adapter, error) {
	a, ok := r.adapters[code]
	if !ok {
		return nil, errs.ErrUnsupportedPlatform
	}
	return a, nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// signEqual 外部平台签名大小写不一，统一小写后比较。
func signEqual(expected, got string) bool {
	return got != "" && strings.EqualFold(expected, got)
}

const upperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randUpperAlnum(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = upperAlnum[rand.Intn(len(upperAlnum))]
	}
	return string(b)
}

func randDigits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + rand.Intn(10))
	}
	return string(b)
}

var durationRe = regexp.MustCompile(`(\d+)`)

// parseDuration 解析 "10M"、"15分钟" 一类的时长串，取首段数字。
func parseDuration(s string) int {
	m := durationRe.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0
	}
	n := 0
	for _, ch := range m[1] {
		n = n*10 + int(ch-'0')
	}
	return n
}
