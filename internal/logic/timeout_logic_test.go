package logic

import (
	"testing"
	"time"

	"github.com/blues/pfs/internal/model"
	"github.com/stretchr/testify/require"
)

func TestTimeoutCheckBeforeTimeout(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.svc.Pause(true)
	env.finalize(campaign.Id)

	// 超时窗口未满不可触发
	early := env.afterDeadline().Add(env.cfg.RevealTimeout).Add(-time.Minute)
	err := env.timeout.OnTimeoutCheck(campaign.Id, platformAddr, early)
	require.ErrorIs(t, err, ErrState)

	// 恰好到期即可触发
	exact := env.afterDeadline().Add(env.cfg.RevealTimeout)
	require.NoError(t, env.timeout.OnTimeoutCheck(campaign.Id, platformAddr, exact))
}

func TestTimeoutCheckOnActiveCampaign(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)

	err := env.timeout.OnTimeoutCheck(campaign.Id, platformAddr, env.afterDeadline())
	require.ErrorIs(t, err, ErrState)
}

func TestTimeoutRetriesThenEscalates(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 500)
	env.svc.Pause(true)
	first := env.finalize(campaign.Id)

	now := env.afterDeadline()
	// 前MaxRetries次超时检查重发请求
	for i := 0; i < env.cfg.MaxRetries; i++ {
		now = now.Add(env.cfg.RevealTimeout).Add(time.Minute)
		require.NoError(t, env.timeout.OnTimeoutCheck(campaign.Id, platformAddr, now))

		got := env.loadCampaign(campaign.Id)
		require.Equal(t, model.CampaignStatusDecryptionPending, got.Status)
		require.Equal(t, i+1, got.RetryCount)
		require.NotEqual(t, first.Id, *got.RequestId)
	}

	// 重试后的新请求负载与原请求一致
	got := env.loadCampaign(campaign.Id)
	current, err := loadRevealRequest(env.db, *got.RequestId)
	require.NoError(t, err)
	require.Equal(t, first.Payload1, current.Payload1)
	require.Equal(t, first.Payload2, current.Payload2)
	require.Equal(t, first.Kind, current.Kind)

	// 被取代的原请求已终结
	stale, err := loadRevealRequest(env.db, first.Id)
	require.NoError(t, err)
	require.True(t, stale.TimedOut)

	// 重试耗尽后下一次超时检查升级为decryption_failed
	now = now.Add(env.cfg.RevealTimeout).Add(time.Minute)
	require.NoError(t, env.timeout.OnTimeoutCheck(campaign.Id, platformAddr, now))
	require.Equal(t, model.CampaignStatusDecryptionFailed, env.loadCampaign(campaign.Id).Status)

	// 终态后再次检查被拒绝
	err = env.timeout.OnTimeoutCheck(campaign.Id, platformAddr, now.Add(env.cfg.RevealTimeout))
	require.ErrorIs(t, err, ErrState)
}

func TestTimeoutCheckAfterResponseArrived(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 1200)
	env.finalize(campaign.Id)
	env.runOracle(env.afterDeadline())

	// 响应已到，活动已离开decryption_pending
	late := env.afterDeadline().Add(env.cfg.RevealTimeout).Add(time.Minute)
	err := env.timeout.OnTimeoutCheck(campaign.Id, platformAddr, late)
	require.ErrorIs(t, err, ErrState)
}
