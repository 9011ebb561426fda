package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/repository"
)

const meeduoDefaultBaseURL = "http://www.meeduo.com"

// 米多平台留存比例 20%
var meeduoRetained = decimal.NewFromFloat(0.20)

// MeeduoAdapter 米多平台接入。
// 回调字段：memberid, eventid, sid, immediate, point, totalpoint, sign
// 签名：md5(memberid + eventid + sid + key)，immediate == "2" 为成功。
type MeeduoAdapter struct {
	client    *http.Client
	limiter   *rate.Limiter
	tasks     repository.TaskRepository
	platforms repository.PlatformRepository
}

func NewMeeduoAdapter(client *http.Client, limiter *rate.Limiter,
	tasks repository.TaskRepository, platforms repository.PlatformRepository) *MeeduoAdapter {
	return &MeeduoAdapter{client: client, limiter: limiter, tasks: tasks, platforms: platforms}
}

func (a *MeeduoAdapter) Code() string { return model.PlatformMeeduo }

func (a *MeeduoAdapter) VerifySignature(params url.Values, cfg model.APIConfig) bool {
	expected := md5Hex(params.Get("memberid") + params.Get("eventid") + params.Get("sid") + cfg.Key)
	return signEqual(expected, params.Get("sign"))
}

func (a *MeeduoAdapter) Normalize(params url.Values) (*Callback, error) {
	for _, f := range []string{"memberid", "eventid", "sid", "immediate", "sign"} {
		if !params.Has(f) {
			return nil, errors.Wrapf(errs.ErrValidation, "missing field %s", f)
		}
	}
	amount := decimal.Zero
	if v := params.Get("point"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.Wrap(errs.ErrValidation, "bad point value")
		}
		amount = d
	}
	return &Callback{
		VirtualID: params.Get("memberid"),
		EventID:   params.Get("eventid"),
		RawStatus: params.Get("immediate"),
		Amount:    amount,
	}, nil
}

func (a *MeeduoAdapter) IsSuccess(rawStatus string) bool { return rawStatus == "2" }

func (a *MeeduoAdapter) GenerateVirtualID() string { return "MD" + randUpperAlnum(8) }

func (a *MeeduoAdapter) IDFormat() string { return "MD{alphanumeric_8}" }

func (a *MeeduoAdapter) BuildParticipationURL(task *model.Task, cfg model.APIConfig, virtualID string) string {
	base := cfg.BaseURL
	if base == "" {
		base = meeduoDefaultBaseURL
	}
	return fmt.Sprintf("%s/go.mdq?uid=%s&acode=%s&pm1=%s", base, cfg.UID, task.PlatformTaskID, virtualID)
}

type meeduoCatalogResp struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    []struct {
		ACode string  `json:"acode"`
		Title string  `json:"title"`
		Note  string  `json:"note"`
		Money float64 `json:"money"`
		Time  string  `json:"time"`
		Link  string  `json:"link"`
	} `json:"data"`
}

func (a *MeeduoAdapter) SyncCatalog(ctx context.Context, p *model.Platform) (int, error) {
	cfg := p.APIConfig
	if cfg.SID == "" || cfg.Key == "" {
		return 0, errors.Wrap(errs.ErrValidation, "meeduo api config incomplete")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	base := cfg.BaseURL
	if base == "" {
		base = meeduoDefaultBaseURL
	}
	// 查询串拼接顺序参与签名，不能走 url.Values 的字典序编码
	query := fmt.Sprintf("sid=%s&memberid=", cfg.SID)
	hash := md5Hex(query + cfg.Key)
	endpoint := fmt.Sprintf("%s/mbdataapi.mdq?%s&hash=%s", base, query, hash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "meeduo catalog request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("meeduo catalog request: status %d", resp.StatusCode)
	}

	var body meeduoCatalogResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, errors.Wrap(err, "meeduo catalog decode")
	}
	if body.Status != 1 {
		return 0, errors.Errorf("meeduo catalog: %s", body.Message)
	}

	items := make([]remoteTask, 0, len(body.Data))
	for _, d := range body.Data {
		items = append(items, remoteTask{
			PlatformTaskID: d.ACode,
			Title:          d.Title,
			Description:    d.Note,
			OriginalPrice:  decimal.NewFromFloat(d.Money).Round(2),
			Duration:       parseDuration(d.Time),
			SourceURL:      d.Link,
		})
	}
	return upsertCatalog(ctx, a.tasks, a.platforms, p, items, meeduoRetained)
}
