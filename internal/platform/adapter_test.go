package platform

import (
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
)

func TestMeeduoVerifySignature(t *testing.T) {
	a := &MeeduoAdapter{}
	cfg := model.APIConfig{Key: "k3y"}

	params := url.Values{}
	params.Set("memberid", "MDAB12CD34")
	params.Set("eventid", "evt01")
	params.Set("sid", "S1")
	params.Set("sign", md5Hex("MDAB12CD34"+"evt01"+"S1"+"k3y"))
	assert.True(t, a.VerifySignature(params, cfg))

	// 大小写不敏感
	upper := url.Values{}
	for k := range params {
		upper.Set(k, params.Get(k))
	}
	upper.Set("sign", strings.ToUpper(params.Get("sign")))
	assert.True(t, a.VerifySignature(upper, cfg))

	// 任一参与签名的字段被篡改都应失败
	tampered := url.Values{}
	for k := range params {
		tampered.Set(k, params.Get(k))
	}
	tampered.Set("memberid", "MDXXXXXXXX")
	assert.False(t, a.VerifySignature(tampered, cfg))

	// 缺失签名不能等价于空签名通过
	noSign := url.Values{}
	noSign.Set("memberid", "")
	noSign.Set("eventid", "")
	noSign.Set("sid", "")
	assert.False(t, a.VerifySignature(noSign, model.APIConfig{Key: ""}))
}

func TestPanelandVerifySignature(t *testing.T) {
	a := &PanelandAdapter{}
	cfg := model.APIConfig{Key: "plkey"}

	params := url.Values{}
	params.Set("Uid", "PL_A1B2C3_4567")
	params.Set("PNO", "P9001")
	params.Set("Status", "C")
	params.Set("Sign", md5Hex("PL_A1B2C3_4567"+"P9001"+"C"+"plkey"))
	assert.True(t, a.VerifySignature(params, cfg))

	params.Set("Status", "S")
	assert.False(t, a.VerifySignature(params, cfg), "改状态必须连签名一起失效")
}

func TestYuxshuVerifySignature(t *testing.T) {
	a := NewYuxshuAdapter()
	cfg := model.APIConfig{Secret: "s3cret"}

	params := url.Values{}
	params.Set("memberId", "YX_0123456789")
	params.Set("status", "1")
	params.Set("signStr", md5Hex("YX_0123456789"+"1"+"s3cret"))
	assert.True(t, a.VerifySignature(params, cfg))

	params.Set("signStr", md5Hex("YX_0123456789"+"1"+"wrong"))
	assert.False(t, a.VerifySignature(params, cfg))
}

func TestMeeduoNormalize(t *testing.T) {
	a := &MeeduoAdapter{}

	params := url.Values{}
	params.Set("memberid", "MDAB12CD34")
	params.Set("eventid", "evt01")
	params.Set("sid", "S1")
	params.Set("immediate", "2")
	params.Set("point", "0.36")
	params.Set("sign", "x")

	cb, err := a.Normalize(params)
	require.NoError(t, err)
	assert.Equal(t, "MDAB12CD34", cb.VirtualID)
	assert.Equal(t, "evt01", cb.EventID)
	assert.Equal(t, "2", cb.RawStatus)
	assert.True(t, cb.Amount.Equal(decimal.NewFromFloat(0.36)))

	for _, f := range []string{"memberid", "eventid", "sid", "immediate", "sign"} {
		broken := url.Values{}
		for k := range params {
			broken.Set(k, params.Get(k))
		}
		broken.Del(f)
		_, err := a.Normalize(broken)
		assert.ErrorIs(t, err, errs.ErrValidation, "missing %s", f)
	}

	params.Set("point", "abc")
	_, err = a.Normalize(params)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestPanelandNormalize(t *testing.T) {
	a := &PanelandAdapter{}

	params := url.Values{}
	params.Set("Uid", "PL_A1B2C3_4567")
	params.Set("PNO", "P9001")
	params.Set("Status", "Q")
	params.Set("CPI", "1.50")
	params.Set("Sign", "x")

	cb, err := a.Normalize(params)
	require.NoError(t, err)
	assert.Equal(t, "PL_A1B2C3_4567", cb.VirtualID)
	assert.Equal(t, "P9001", cb.EventID)
	assert.Equal(t, "Q", cb.RawStatus)
	assert.True(t, cb.Amount.Equal(decimal.NewFromFloat(1.50)))

	params.Del("Uid")
	_, err = a.Normalize(params)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestYuxshuNormalize(t *testing.T) {
	a := NewYuxshuAdapter()

	params := url.Values{}
	params.Set("memberId", "YX_0123456789")
	params.Set("status", "1")
	params.Set("signStr", "x")

	cb, err := a.Normalize(params)
	require.NoError(t, err)
	assert.Equal(t, "YX_0123456789", cb.VirtualID)
	assert.Equal(t, "1", cb.RawStatus)
	assert.True(t, cb.Amount.IsZero(), "鱼小数回调不带金额")

	params.Del("status")
	_, err = a.Normalize(params)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestIsSuccessMapping(t *testing.T) {
	meeduo := &MeeduoAdapter{}
	for status, want := range map[string]bool{"2": true, "1": false, "0": false, "": false, "success": false} {
		assert.Equal(t, want, meeduo.IsSuccess(status), "meeduo %q", status)
	}

	paneland := &PanelandAdapter{}
	for status, want := range map[string]bool{"C": true, "S": false, "Q": false, "D": false, "O": false, "T": false, "P": false, "E": false, "c": false} {
		assert.Equal(t, want, paneland.IsSuccess(status), "paneland %q", status)
	}

	yuxshu := NewYuxshuAdapter()
	for status, want := range map[string]bool{"1": true, "3": false, "5": false, "": false} {
		assert.Equal(t, want, yuxshu.IsSuccess(status), "yuxshu %q", status)
	}
}

func TestGenerateVirtualIDFormats(t *testing.T) {
	meeduoRe := regexp.MustCompile(`^MD[A-Z0-9]{8}$`)
	panelandRe := regexp.MustCompile(`^PL_[A-Z0-9]{6}_\d{4}$`)
	yuxshuRe := regexp.MustCompile(`^YX_\d{10}$`)

	meeduo := &MeeduoAdapter{}
	paneland := &PanelandAdapter{}
	yuxshu := NewYuxshuAdapter()
	for i := 0; i < 50; i++ {
		assert.Regexp(t, meeduoRe, meeduo.GenerateVirtualID())
		assert.Regexp(t, panelandRe, paneland.GenerateVirtualID())
		assert.Regexp(t, yuxshuRe, yuxshu.GenerateVirtualID())
	}
}

func TestBuildParticipationURL(t *testing.T) {
	meeduo := &MeeduoAdapter{}
	task := &model.Task{PlatformTaskID: "AC001"}
	got := meeduo.BuildParticipationURL(task, model.APIConfig{UID: "u8"}, "MDAB12CD34")
	assert.Equal(t, "http://www.meeduo.com/go.mdq?uid=u8&acode=AC001&pm1=MDAB12CD34", got)
	got = meeduo.BuildParticipationURL(task, model.APIConfig{BaseURL: "https://cb.example.com", UID: "u8"}, "MDAB12CD34")
	assert.Equal(t, "https://cb.example.com/go.mdq?uid=u8&acode=AC001&pm1=MDAB12CD34", got)

	paneland := &PanelandAdapter{}
	plTask := &model.Task{SourceURL: "https://survey.example.com/r?uid=[uid]&src=pl"}
	got = paneland.BuildParticipationURL(plTask, model.APIConfig{}, "PL_A1B2C3_4567")
	assert.Equal(t, "https://survey.example.com/r?uid=PL_A1B2C3_4567&src=pl", got)

	yuxshu := NewYuxshuAdapter()
	yxTask := &model.Task{SourceURL: "https://www.yuxshu.cn/s/abc123"}
	got = yuxshu.BuildParticipationURL(yxTask, model.APIConfig{DealerCode: "D77"}, "YX_0123456789")
	assert.Equal(t, "https://www.yuxshu.cn/s/abc123?dealerCode=D77&userInfo1=YX_0123456789", got)

	// 源链接已带 query 时追加
	yxTask2 := &model.Task{SourceURL: "https://www.yuxshu.cn/s/abc123?ch=1"}
	got = yuxshu.BuildParticipationURL(yxTask2, model.APIConfig{}, "YX_0123456789")
	assert.Equal(t, "https://www.yuxshu.cn/s/abc123?ch=1&dealerCode=A001&userInfo1=YX_0123456789", got)
}

func TestParseDuration(t *testing.T) {
	cases := map[string]int{
		"10M":    10,
		"约15分钟": 15,
		"8":      8,
		"":       0,
		"abc":    0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseDuration(in), "parseDuration(%q)", in)
	}
}

func TestExtractTaskIDFromURL(t *testing.T) {
	assert.Equal(t, "abc123", ExtractTaskIDFromURL("https://www.yuxshu.cn/s/abc123"))
	assert.Equal(t, "abc123", ExtractTaskIDFromURL("https://www.yuxshu.cn/s/abc123?ch=1"))

	// 无法提取时退化为链接指纹，且同链接稳定
	fp := ExtractTaskIDFromURL("https://www.yuxshu.cn/other")
	assert.Regexp(t, `^manual_[0-9a-f]{8}$`, fp)
	assert.Equal(t, fp, ExtractTaskIDFromURL("https://www.yuxshu.cn/other"))
}

func TestValidateTaskURL(t *testing.T) {
	assert.True(t, ValidateTaskURL("https://www.yuxshu.cn/s/abc123"))
	assert.True(t, ValidateTaskURL("https://www.yuxshu.cn/s/Abc123?ch=1"))
	assert.False(t, ValidateTaskURL("http://www.yuxshu.cn/s/abc123"))
	assert.False(t, ValidateTaskURL("https://evil.example.com/s/abc123"))
	assert.False(t, ValidateTaskURL("https://www.yuxshu.cn/survey/abc123"))
}

func TestRewardArithmetic(t *testing.T) {
	// 到手价 = 原价 × 展示比例，两位四舍五入
	got := calcReward(decimal.NewFromFloat(3.33), decimal.NewFromFloat(0.8))
	assert.Equal(t, "2.66", got.StringFixed(2))

	got = calcReward(decimal.NewFromFloat(3.35), decimal.NewFromFloat(0.5))
	assert.Equal(t, "1.68", got.StringFixed(2))

	// 平台留存
	got = calcCommission(decimal.NewFromFloat(10), meeduoRetained)
	assert.Equal(t, "2.00", got.StringFixed(2))
	got = calcCommission(decimal.NewFromFloat(10), panelandRetained)
	assert.Equal(t, "2.50", got.StringFixed(2))
	got = calcCommission(decimal.NewFromFloat(10), yuxshuRetained)
	assert.Equal(t, "1.50", got.StringFixed(2))
}
