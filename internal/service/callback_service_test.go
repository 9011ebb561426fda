package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
)

func md5sum(s string) string {
	h := md5.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

func meeduoParams(vid, eventID, sid, key, immediate, point string) url.Values {
	params := url.Values{}
	params.Set("memberid", vid)
	params.Set("eventid", eventID)
	params.Set("sid", sid)
	params.Set("immediate", immediate)
	if point != "" {
		params.Set("point", point)
	}
	params.Set("sign", md5sum(vid+eventID+sid+key))
	return params
}

func yuxshuParams(vid, status, secret string) url.Values {
	params := url.Values{}
	params.Set("memberId", vid)
	params.Set("status", status)
	params.Set("signStr", md5sum(vid+status+secret))
	return params
}

// 成功回调的完整结算链路：参与终态、入账、流水、审计。
func TestCallbackSettlesOnce(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	account := env.createAccount(t, false)
	p := env.createPlatform(t, model.PlatformMeeduo, model.SyncModeAuto,
		model.APIConfig{SID: "S1", UID: "u8", Key: "k3y"})
	task := env.createTask(t, p.ID, "AC001", "", 5)

	res, err := env.participation.Participate(ctx, account, task.ID, "1.2.3.4", "ua")
	require.NoError(t, err)

	params := meeduoParams(res.VirtualID, "evt01", "S1", "k3y", "2", "5.00")
	outcome, err := env.callback.Handle(ctx, model.PlatformMeeduo, params, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, outcome.Completed)
	assert.Equal(t, account.ID, outcome.AccountID)
	assert.Equal(t, "5.00", outcome.Reward.StringFixed(2))

	_, err = env.attempts.LockInProgressByVirtualID(ctx, res.VirtualID)
	assert.ErrorIs(t, err, errs.ErrNoMatchingAttempt, "参与已离开进行中状态")

	var saved model.TaskAttempt
	require.NoError(t, env.db.First(&saved, outcome.AttemptID).Error)
	assert.Equal(t, model.AttemptStatusCompleted, saved.Status)
	assert.Equal(t, "5.00", saved.RewardAmount.StringFixed(2))
	assert.NotNil(t, saved.CompletedAt)

	fresh, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.00", fresh.TotalEarnings.StringFixed(2))
	assert.Equal(t, "5.00", fresh.AvailableEarnings.StringFixed(2))

	earnings, err := env.earnings.ListByAccount(ctx, account.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, earnings, 1)
	assert.Equal(t, model.EarningStatusSettled, earnings[0].Status)
	require.NotNil(t, earnings[0].AttemptID)
	assert.Equal(t, outcome.AttemptID, *earnings[0].AttemptID)

	var logs int64
	require.NoError(t, env.db.Model(&model.OperationLog{}).
		Where("action = ?", "task_callback").Count(&logs).Error)
	assert.EqualValues(t, 1, logs)
}

// 重放同一回调必须是无操作：余额、流水、状态全部不变。
func TestCallbackReplayIsNoop(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	account := env.createAccount(t, false)
	p := env.createPlatform(t, model.PlatformMeeduo, model.SyncModeAuto,
		model.APIConfig{SID: "S1", Key: "k3y"})
	task := env.createTask(t, p.ID, "AC001", "", 5)

	res, err := env.participation.Participate(ctx, account, task.ID, "1.2.3.4", "ua")
	require.NoError(t, err)

	params := meeduoParams(res.VirtualID, "evt01", "S1", "k3y", "2", "5.00")
	_, err = env.callback.Handle(ctx, model.PlatformMeeduo, params, "10.0.0.1")
	require.NoError(t, err)

	_, err = env.callback.Handle(ctx, model.PlatformMeeduo, params, "10.0.0.1")
	assert.ErrorIs(t, err, errs.ErrNoMatchingAttempt)

	fresh, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.00", fresh.TotalEarnings.StringFixed(2), "重放不能二次入账")

	total, err := env.earnings.SumByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.00", total.StringFixed(2))
}

// 签名不合法的回调不得产生任何状态变更。
func TestCallbackTamperedSignatureIsInert(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	account := env.createAccount(t, false)
	p := env.createPlatform(t, model.PlatformMeeduo, model.SyncModeAuto,
		model.APIConfig{SID: "S1", Key: "k3y"})
	task := env.createTask(t, p.ID, "AC001", "", 5)

	res, err := env.participation.Participate(ctx, account, task.ID, "1.2.3.4", "ua")
	require.NoError(t, err)

	params := meeduoParams(res.VirtualID, "evt01", "S1", "wrong-key", "2", "5.00")
	_, err = env.callback.Handle(ctx, model.PlatformMeeduo, params, "10.0.0.1")
	assert.ErrorIs(t, err, errs.ErrSignature)

	attempt, err := env.attempts.LockInProgressByVirtualID(ctx, res.VirtualID)
	require.NoError(t, err, "参与保持进行中")
	assert.Equal(t, model.AttemptStatusInProgress, attempt.Status)

	fresh, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, fresh.TotalEarnings.IsZero())

	var earnings int64
	require.NoError(t, env.db.Model(&model.Earning{}).Count(&earnings).Error)
	assert.Zero(t, earnings)
}

// 失败状态码按失败结算：终态迁移但零入账；之后的成功回调不再被接受。
func TestCallbackFailureStatus(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	account := env.createAccount(t, false)
	p := env.createPlatform(t, model.PlatformMeeduo, model.SyncModeAuto,
		model.APIConfig{SID: "S1", Key: "k3y"})
	task := env.createTask(t, p.ID, "AC001", "", 5)

	res, err := env.participation.Participate(ctx, account, task.ID, "1.2.3.4", "ua")
	require.NoError(t, err)

	params := meeduoParams(res.VirtualID, "evt01", "S1", "k3y", "0", "5.00")
	outcome, err := env.callback.Handle(ctx, model.PlatformMeeduo, params, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, outcome.Completed)
	assert.True(t, outcome.Reward.IsZero())

	var saved model.TaskAttempt
	require.NoError(t, env.db.First(&saved, outcome.AttemptID).Error)
	assert.Equal(t, model.AttemptStatusFailed, saved.Status)

	fresh, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, fresh.TotalEarnings.IsZero())

	// 终态只迁移一次，失败后补发成功回调无效
	params = meeduoParams(res.VirtualID, "evt01", "S1", "k3y", "2", "5.00")
	_, err = env.callback.Handle(ctx, model.PlatformMeeduo, params, "10.0.0.1")
	assert.ErrorIs(t, err, errs.ErrNoMatchingAttempt)
}

// 回调未携带金额时回退到任务配置奖励（鱼小数固定如此）。
func TestCallbackFallsBackToTaskReward(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	account := env.createAccount(t, false)
	p := env.createPlatform(t, model.PlatformYuxshu, model.SyncModeManual,
		model.APIConfig{Secret: "s3cret"})
	task := env.createTask(t, p.ID, "abc123", "https://www.yuxshu.cn/s/abc123", 3.5)

	res, err := env.participation.Participate(ctx, account, task.ID, "1.2.3.4", "ua")
	require.NoError(t, err)

	outcome, err := env.callback.Handle(ctx, model.PlatformYuxshu,
		yuxshuParams(res.VirtualID, "1", "s3cret"), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "3.50", outcome.Reward.StringFixed(2))

	fresh, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, fresh.TotalEarnings.Equal(decimal.NewFromFloat(3.5)))
}

func TestCallbackUnknownPlatformAndIdentity(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.callback.Handle(ctx, "nobody", url.Values{}, "10.0.0.1")
	assert.ErrorIs(t, err, errs.ErrUnsupportedPlatform)

	env.createPlatform(t, model.PlatformYuxshu, model.SyncModeManual, model.APIConfig{Secret: "s3cret"})
	_, err = env.callback.Handle(ctx, model.PlatformYuxshu,
		yuxshuParams("YX_0000000000", "1", "s3cret"), "10.0.0.1")
	assert.ErrorIs(t, err, errs.ErrNotFound, "合法签名但虚拟ID不存在")
}
