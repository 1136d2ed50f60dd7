package logic

import (
	"testing"
	"time"

	"github.com/blues/pfs/internal/model"
	"github.com/blues/pfs/internal/oracle"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestRequestFinalizationBeforeDeadline(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)

	_, err := env.reveal.RequestFinalization(campaign.Id, creatorAddr, env.now)
	require.ErrorIs(t, err, ErrState)

	// 恰在截止时间即可发起
	_, err = env.reveal.RequestFinalization(campaign.Id, creatorAddr, campaign.Deadline)
	require.NoError(t, err)
}

func TestRequestFinalizationGraceAuthorization(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	afterDeadline := env.afterDeadline()

	// 宽限期内非创建者被拒绝
	_, err := env.reveal.RequestFinalization(campaign.Id, strangerAddr, afterDeadline)
	require.ErrorIs(t, err, ErrUnauthorized)

	// 宽限期过后任何人可发起
	afterGrace := campaign.Deadline.Add(env.cfg.GracePeriod).Add(time.Minute)
	req, err := env.reveal.RequestFinalization(campaign.Id, strangerAddr, afterGrace)
	require.NoError(t, err)
	require.Equal(t, model.RevealRequestKindFinalize, req.Kind)

	got := env.loadCampaign(campaign.Id)
	require.Equal(t, model.CampaignStatusDecryptionPending, got.Status)
	require.NotNil(t, got.RequestId)
	require.Equal(t, req.Id, *got.RequestId)
}

func TestRequestFinalizationOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.finalize(campaign.Id)

	// 已在decryption_pending，重复发起被拒绝
	_, err := env.reveal.RequestFinalization(campaign.Id, creatorAddr, env.afterDeadline())
	require.ErrorIs(t, err, ErrState)
}

func TestOnRevealResponseRejectsForgedProof(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 400)
	env.svc.Pause(true)
	req := env.finalize(campaign.Id)

	// 非预言机密钥签发的证明
	rogueKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	plaintexts := oracle.EncodeWords([]uint64{2000, 1000})
	proof, err := oracle.Sign(rogueKey, req.Id, plaintexts)
	require.NoError(t, err)

	err = env.reveal.OnRevealResponse(req.Id, plaintexts, proof, env.afterDeadline())
	require.ErrorIs(t, err, ErrProofVerification)

	// 校验失败必须原子失败，活动与请求均无变化
	got := env.loadCampaign(campaign.Id)
	require.Equal(t, model.CampaignStatusDecryptionPending, got.Status)
	require.Nil(t, got.RevealedRaised)
	current, err := loadRevealRequest(env.db, req.Id)
	require.NoError(t, err)
	require.False(t, current.Completed)
}

func TestOnRevealResponseRejectsTamperedPayload(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.svc.Pause(true)
	req := env.finalize(campaign.Id)

	genuine := oracle.EncodeWords([]uint64{400, 1000})
	proof, err := oracle.Sign(env.signKey, req.Id, genuine)
	require.NoError(t, err)

	// 证明对不上被篡改的负载
	tampered := oracle.EncodeWords([]uint64{2000, 1000})
	err = env.reveal.OnRevealResponse(req.Id, tampered, proof, env.afterDeadline())
	require.ErrorIs(t, err, ErrProofVerification)
	require.Equal(t, model.CampaignStatusDecryptionPending, env.loadCampaign(campaign.Id).Status)
}

func TestOnRevealResponseIdempotent(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 1200)
	env.svc.Pause(true)
	req := env.finalize(campaign.Id)
	env.svc.Pause(false)
	env.runOracle(env.afterDeadline())
	require.Equal(t, model.CampaignStatusSuccessful, env.loadCampaign(campaign.Id).Status)

	// 同一响应重放被拒绝
	plaintexts := oracle.EncodeWords([]uint64{1200, 1000})
	proof, err := oracle.Sign(env.signKey, req.Id, plaintexts)
	require.NoError(t, err)
	err = env.reveal.OnRevealResponse(req.Id, plaintexts, proof, env.afterDeadline())
	require.ErrorIs(t, err, ErrState)
}

func TestOnRevealResponseRejectsSupersededRequest(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 1200)
	env.svc.Pause(true)
	stale := env.finalize(campaign.Id)

	// 超时重试取代原请求
	later := env.afterDeadline().Add(env.cfg.RevealTimeout).Add(time.Minute)
	require.NoError(t, env.timeout.OnTimeoutCheck(campaign.Id, platformAddr, later))

	// 迟到的原请求响应按过期拒绝，即使证明有效
	plaintexts := oracle.EncodeWords([]uint64{1200, 1000})
	proof, err := oracle.Sign(env.signKey, stale.Id, plaintexts)
	require.NoError(t, err)
	err = env.reveal.OnRevealResponse(stale.Id, plaintexts, proof, later)
	require.ErrorIs(t, err, ErrState)
	require.Equal(t, model.CampaignStatusDecryptionPending, env.loadCampaign(campaign.Id).Status)

	// 当前请求的响应正常被接受
	env.svc.Pause(false)
	env.runOracle(later)
	require.Equal(t, model.CampaignStatusSuccessful, env.loadCampaign(campaign.Id).Status)
}

func TestSettlementComparesRaisedAgainstTarget(t *testing.T) {
	env := newTestEnv(t)

	// raised < target → failed
	failing := env.createCampaign(1000)
	env.contribute(failing.Id, aliceAddr, 300)
	env.contribute(failing.Id, bobAddr, 200)
	env.settleAs(failing.Id, model.CampaignStatusFailed)

	// raised == target → successful（达标含等于）
	exact := env.createCampaign(1000)
	env.contribute(exact.Id, aliceAddr, 1000)
	env.settleAs(exact.Id, model.CampaignStatusSuccessful)

	got := env.loadCampaign(exact.Id)
	require.NotNil(t, got.RevealedRaised)
	require.Equal(t, int64(1000), *got.RevealedRaised)
	require.NotNil(t, got.RevealedTarget)
	require.Equal(t, int64(1000), *got.RevealedTarget)
}

func TestTransitionAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 1200)
	env.settleAs(campaign.Id, model.CampaignStatusSuccessful)

	transitions, err := env.campaign.GetCampaignTransitions(campaign.Id)
	require.NoError(t, err)
	require.Len(t, transitions, 2)
	require.Equal(t, model.CampaignStatusActive, transitions[0].FromStatus)
	require.Equal(t, model.CampaignStatusDecryptionPending, transitions[0].ToStatus)
	require.Equal(t, "finalize_requested", transitions[0].Operation)
	require.Equal(t, model.CampaignStatusDecryptionPending, transitions[1].FromStatus)
	require.Equal(t, model.CampaignStatusSuccessful, transitions[1].ToStatus)
	require.Equal(t, "reveal_response", transitions[1].Operation)
}
