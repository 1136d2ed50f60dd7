package logic

import (
	"testing"
	"time"

	"github.com/blues/pfs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// 成功路径：出资超过目标，创建者恰好提走全部揭示金额，且只能提一次
func TestWithdrawAfterSuccessfulSettlement(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 400)
	env.contribute(campaign.Id, bobAddr, 400)
	env.contribute(campaign.Id, carolAddr, 300)
	env.settleAs(campaign.Id, model.CampaignStatusSuccessful)

	record, err := env.settlement.Withdraw(campaign.Id, creatorAddr, env.afterDeadline())
	require.NoError(t, err)
	require.Equal(t, int64(1100), record.Amount)

	got := env.loadCampaign(campaign.Id)
	require.True(t, got.Withdrawn)
	require.Equal(t, model.CampaignStatusWithdrawn, got.Status)
	require.Zero(t, got.HeldBalance)

	// 二次提现被拒绝
	_, err = env.settlement.Withdraw(campaign.Id, creatorAddr, env.afterDeadline())
	require.ErrorIs(t, err, ErrState)
}

func TestWithdrawAuthorization(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 1200)
	env.settleAs(campaign.Id, model.CampaignStatusSuccessful)

	_, err := env.settlement.Withdraw(campaign.Id, strangerAddr, env.afterDeadline())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestWithdrawRequiresSuccessfulStatus(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 300)

	// active状态不可提现
	_, err := env.settlement.Withdraw(campaign.Id, creatorAddr, env.now)
	require.ErrorIs(t, err, ErrState)

	// failed状态不可提现
	env.settleAs(campaign.Id, model.CampaignStatusFailed)
	_, err = env.settlement.Withdraw(campaign.Id, creatorAddr, env.afterDeadline())
	require.ErrorIs(t, err, ErrState)
}

// 失败路径：每个出资人通过退款揭示拿回各自确切出资额
func TestRefundAfterFailedSettlement(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 300)
	env.contribute(campaign.Id, bobAddr, 200)
	env.settleAs(campaign.Id, model.CampaignStatusFailed)

	now := env.afterDeadline()
	req, err := env.settlement.RequestRefund(campaign.Id, aliceAddr, now)
	require.NoError(t, err)
	require.NotNil(t, req)
	require.Equal(t, model.RevealRequestKindRefund, req.Kind)

	// 预言机投递退款揭示，alice拿回确切出资额
	env.runOracle(now)

	refunds, total, err := env.settlement.GetCampaignRefunds(campaign.Id, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, aliceAddr.Hex(), refunds[0].Address)
	require.Equal(t, int64(300), refunds[0].Amount)
	require.Equal(t, model.RefundKindRevealed, refunds[0].Kind)

	got := env.loadCampaign(campaign.Id)
	require.Equal(t, int64(200), got.HeldBalance)
	require.Equal(t, int64(1), got.RefundedBackerCount)

	// bob同样退款后托管余额归零
	_, err = env.settlement.RequestRefund(campaign.Id, bobAddr, now)
	require.NoError(t, err)
	env.runOracle(now)
	require.Zero(t, env.loadCampaign(campaign.Id).HeldBalance)
}

func TestRequestRefundRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 300)
	env.settleAs(campaign.Id, model.CampaignStatusFailed)

	now := env.afterDeadline()
	_, err := env.settlement.RequestRefund(campaign.Id, aliceAddr, now)
	require.NoError(t, err)

	// 揭示未回前重复申请被拒绝
	_, err = env.settlement.RequestRefund(campaign.Id, aliceAddr, now)
	require.ErrorIs(t, err, ErrState)

	// 退款完成后再申请同样被拒绝
	env.runOracle(now)
	_, err = env.settlement.RequestRefund(campaign.Id, aliceAddr, now)
	require.ErrorIs(t, err, ErrState)
}

func TestRequestRefundAuthorization(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 300)
	env.settleAs(campaign.Id, model.CampaignStatusFailed)

	// 无出资记录的地址视为无权申请
	_, err := env.settlement.RequestRefund(campaign.Id, strangerAddr, env.afterDeadline())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRequestRefundRejectedWhileActive(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 300)

	_, err := env.settlement.RequestRefund(campaign.Id, aliceAddr, env.now)
	require.ErrorIs(t, err, ErrState)
}

// 预言机失联路径：连续超时后进入decryption_failed，
// 等待期满出资人均分剩余托管余额，合计恰为全部托管资金
func TestEmergencyRefundSplitsHeldBalance(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 500)
	env.contribute(campaign.Id, bobAddr, 300)
	env.contribute(campaign.Id, carolAddr, 200)
	failedAt := env.driveToDecryptionFailed(campaign.Id)

	// 等待期未满被拒绝
	early := failedAt.Add(env.cfg.EmergencyDelay()).Add(-time.Minute)
	_, err := env.settlement.EmergencyRefund(campaign.Id, aliceAddr, early)
	require.ErrorIs(t, err, ErrState)

	// 等待期满后三人依次领取，份额合计等于全部托管资金
	now := failedAt.Add(env.cfg.EmergencyDelay()).Add(time.Minute)
	var paid int64
	for _, who := range []struct {
		addr  common.Address
		share int64
	}{
		{aliceAddr, 1000 / 3},
		{bobAddr, (1000 - 1000/3) / 2},
	} {
		record, err := env.settlement.EmergencyRefund(campaign.Id, who.addr, now)
		require.NoError(t, err)
		require.Equal(t, who.share, record.Amount)
		require.Equal(t, model.RefundKindEmergency, record.Kind)
		paid += record.Amount
	}

	// 最后一人取整余量
	record, err := env.settlement.EmergencyRefund(campaign.Id, carolAddr, now)
	require.NoError(t, err)
	paid += record.Amount

	require.Equal(t, int64(1000), paid)
	got := env.loadCampaign(campaign.Id)
	require.Zero(t, got.HeldBalance)
	require.Equal(t, int64(3), got.RefundedBackerCount)

	// 全员退款后重复领取被拒绝
	_, err = env.settlement.EmergencyRefund(campaign.Id, aliceAddr, now)
	require.ErrorIs(t, err, ErrState)
}

func TestEmergencyRefundRequiresDecryptionFailed(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 300)
	env.settleAs(campaign.Id, model.CampaignStatusFailed)

	// failed状态有可信揭示通道，必须走正常退款
	_, err := env.settlement.EmergencyRefund(campaign.Id, aliceAddr, env.afterDeadline().Add(24*time.Hour))
	require.ErrorIs(t, err, ErrState)
}

// decryption_failed下申请退款只登记标记，不发揭示请求
func TestRequestRefundOnDecryptionFailed(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 300)
	failedAt := env.driveToDecryptionFailed(campaign.Id)

	req, err := env.settlement.RequestRefund(campaign.Id, aliceAddr, failedAt)
	require.NoError(t, err)
	require.Nil(t, req)

	// 唯一出资人走应急退款拿回全部托管余额
	now := failedAt.Add(env.cfg.EmergencyDelay()).Add(time.Minute)
	record, err := env.settlement.EmergencyRefund(campaign.Id, aliceAddr, now)
	require.NoError(t, err)
	require.Equal(t, int64(300), record.Amount)
}
