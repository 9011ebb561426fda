package platform

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
)

// 鱼小数手动任务留存比例 15%
var yuxshuRetained = decimal.NewFromFloat(0.15)

var (
	yuxshuTaskIDRe = regexp.MustCompile(`/s/([a-zA-Z0-9]+)`)
	yuxshuURLRe    = regexp.MustCompile(`^https://www\.yuxshu\.cn/s/[a-zA-Z0-9]+`)
)

// YuxshuAdapter 鱼小数接入。仅手动录入任务，无目录同步。
// 回调字段：memberId, status, signStr；签名 md5(memberId + status + secret)。
// status == "1" 正常结束，"3" 超配额，"5" 甄别，后两者按失败结算。
type YuxshuAdapter struct{}

func NewYuxshuAdapter() *YuxshuAdapter { return &YuxshuAdapter{} }

func (a *YuxshuAdapter) Code() string { return model.PlatformYuxshu }

func (a *YuxshuAdapter) VerifySignature(params url.Values, cfg model.APIConfig) bool {
	expected := md5Hex(params.Get("memberId") + params.Get("status") + cfg.Secret)
	return signEqual(expected, params.Get("signStr"))
}

func (a *YuxshuAdapter) Normalize(params url.Values) (*Callback, error) {
	for _, f := range []string{"memberId", "status", "signStr"} {
		if !params.Has(f) {
			return nil, errors.Wrapf(errs.ErrValidation, "missing field %s", f)
		}
	}
	// 回调不带金额，由任务配置奖励兜底
	return &Callback{
		VirtualID: params.Get("memberId"),
		RawStatus: params.Get("status"),
		Amount:    decimal.Zero,
	}, nil
}

func (a *YuxshuAdapter) IsSuccess(rawStatus string) bool { return rawStatus == "1" }

func (a *YuxshuAdapter) GenerateVirtualID() string { return "YX_" + randDigits(10) }

func (a *YuxshuAdapter) IDFormat() string { return "YX_{numeric_10}" }

// BuildParticipationURL 源链接追加 dealerCode 与 userInfo1（虚拟ID）。
func (a *YuxshuAdapter) BuildParticipationURL(task *model.Task, cfg model.APIConfig, virtualID string) string {
	dealer := cfg.DealerCode
	if dealer == "" {
		dealer = "A001"
	}
	q := url.Values{}
	q.Set("dealerCode", dealer)
	q.Set("userInfo1", virtualID)
	sep := "?"
	if strings.Contains(task.SourceURL, "?") {
		sep = "&"
	}
	return task.SourceURL + sep + q.Encode()
}

func (a *YuxshuAdapter) SyncCatalog(ctx context.Context, p *model.Platform) (int, error) {
	return 0, errs.ErrManualPlatform
}

// ExtractTaskIDFromURL 从 /s/{id} 形式的链接提取平台任务ID；
// 提取不到时退化为基于链接指纹的稳定ID。
func ExtractTaskIDFromURL(rawURL string) string {
	if m := yuxshuTaskIDRe.FindStringSubmatch(rawURL); len(m) == 2 {
		return m[1]
	}
	return "manual_" + md5Hex(rawURL)[:8]
}

// ValidateTaskURL 校验是否为合法的鱼小数问卷链接。
func ValidateTaskURL(rawURL string) bool { return yuxshuURLRe.MatchString(rawURL) }

// YuxshuRetained 手动任务佣金比例（供手动录入计算使用）。
func YuxshuRetained() decimal.Decimal { return yuxshuRetained }
