package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/repository"
)

const panelandDefaultBaseURL = "https://partner.paneland.com"

// Paneland 平台留存比例 25%
var panelandRetained = decimal.NewFromFloat(0.25)

// PanelandAdapter 问卷平台 Paneland 接入。
// 回调字段：Uid, PNO, Status, CPI, Sign；签名 md5(Uid + PNO + Status + key)。
// Status == "C" 为完成，S/Q/D/O/T/P/E 均按失败处理。
type PanelandAdapter struct {
	client    *http.Client
	limiter   *rate.Limiter
	tasks     repository.TaskRepository
	platforms repository.PlatformRepository
}

func NewPanelandAdapter(client *http.Client, limiter *rate.Limiter,
	tasks repository.TaskRepository, platforms repository.PlatformRepository) *PanelandAdapter {
	return &PanelandAdapter{client: client, limiter: limiter, tasks: tasks, platforms: platforms}
}

func (a *PanelandAdapter) Code() string { return model.PlatformPaneland }

func (a *PanelandAdapter) VerifySignature(params url.Values, cfg model.APIConfig) bool {
	expected := md5Hex(params.Get("Uid") + params.Get("PNO") + params.Get("Status") + cfg.Key)
	return signEqual(expected, params.Get("Sign"))
}

func (a *PanelandAdapter) Normalize(params url.Values) (*Callback, error) {
	for _, f := range []string{"Uid", "PNO", "Status", "Sign"} {
		if !params.Has(f) {
			return nil, errors.Wrapf(errs.ErrValidation, "missing field %s", f)
		}
	}
	amount := decimal.Zero
	if v := params.Get("CPI"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.Wrap(errs.ErrValidation, "bad CPI value")
		}
		amount = d
	}
	return &Callback{
		VirtualID: params.Get("Uid"),
		EventID:   params.Get("PNO"),
		RawStatus: params.Get("Status"),
		Amount:    amount,
	}, nil
}

func (a *PanelandAdapter) IsSuccess(rawStatus string) bool { return rawStatus == "C" }

// GenerateVirtualID PL_ + 6位字母数字 + _ + 时间戳后4位
func (a *PanelandAdapter) GenerateVirtualID() string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	return "PL_" + randUpperAlnum(6) + "_" + ts[len(ts)-4:]
}

func (a *PanelandAdapter) IDFormat() string { return "PL_{alphanumeric_6}_{timestamp_4}" }

// BuildParticipationURL 源链接内的 [uid] 占位符替换为虚拟ID。
func (a *PanelandAdapter) BuildParticipationURL(task *model.Task, cfg model.APIConfig, virtualID string) string {
	return strings.ReplaceAll(task.SourceURL, "[uid]", virtualID)
}

type panelandCatalogItem struct {
	PNO   string  `json:"PNO"`
	Title string  `json:"Title"`
	CPI   float64 `json:"CPI"`
	LOI   string  `json:"LOI"`
	URL   string  `json:"URL"`
}

func (a *PanelandAdapter) SyncCatalog(ctx context.Context, p *model.Platform) (int, error) {
	cfg := p.APIConfig
	if cfg.MID == "" {
		return 0, errors.Wrap(errs.ErrValidation, "paneland api config incomplete")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	base := cfg.BaseURL
	if base == "" {
		base = panelandDefaultBaseURL
	}
	endpoint := fmt.Sprintf("%s/MediaJson.php?Mid=%s&offset=0&limit=100", base, url.QueryEscape(cfg.MID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "paneland catalog request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("paneland catalog request: status %d", resp.StatusCode)
	}

	var list []panelandCatalogItem
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return 0, errors.Wrap(err, "paneland catalog decode")
	}

	items := make([]remoteTask, 0, len(list))
	for _, d := range list {
		items = append(items, remoteTask{
			PlatformTaskID: d.PNO,
			Title:          d.Title,
			OriginalPrice:  decimal.NewFromFloat(d.CPI).Round(2),
			Duration:       parseDuration(d.LOI),
			SourceURL:      d.URL,
		})
	}
	return upsertCatalog(ctx, a.tasks, a.platforms, p, items, panelandRetained)
}
