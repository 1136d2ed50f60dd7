package logic

import (
	"testing"

	"github.com/blues/pfs/internal/model"
	"github.com/stretchr/testify/require"
)

func TestPlatformStatsTrackLifecycle(t *testing.T) {
	env := newTestEnv(t)

	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 400)
	env.contribute(campaign.Id, bobAddr, 400)
	env.contribute(campaign.Id, aliceAddr, 300)

	stats, err := env.stats.GetPlatformStats()
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalCampaigns)
	require.Equal(t, int64(1), stats.ActiveCampaigns)
	require.Equal(t, int64(3), stats.TotalContributions)
	require.Equal(t, int64(2), stats.TotalBackers)

	env.settleAs(campaign.Id, model.CampaignStatusSuccessful)
	stats, err = env.stats.GetPlatformStats()
	require.NoError(t, err)
	require.Zero(t, stats.ActiveCampaigns)
	require.Zero(t, stats.PendingCampaigns)
	require.Equal(t, int64(1), stats.SuccessfulCampaigns)
	require.Equal(t, int64(1100), stats.TotalRevealedRaised)

	_, err = env.settlement.Withdraw(campaign.Id, creatorAddr, env.afterDeadline())
	require.NoError(t, err)
	stats, err = env.stats.GetPlatformStats()
	require.NoError(t, err)
	require.Zero(t, stats.SuccessfulCampaigns)
	require.Equal(t, int64(1), stats.WithdrawnCampaigns)
}

func TestPlatformStatsCountRefunds(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.createCampaign(1000)
	env.contribute(campaign.Id, aliceAddr, 300)
	env.settleAs(campaign.Id, model.CampaignStatusFailed)

	now := env.afterDeadline()
	_, err := env.settlement.RequestRefund(campaign.Id, aliceAddr, now)
	require.NoError(t, err)
	env.runOracle(now)

	stats, err := env.stats.GetPlatformStats()
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalRefunds)
	require.Equal(t, int64(1), stats.FailedCampaigns)
}
