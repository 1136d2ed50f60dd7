package logic

import (
	"crypto/ecdsa"
	"fmt"
	"testing"
	"time"

	"github.com/blues/pfs/internal/beacon"
	"github.com/blues/pfs/internal/config"
	"github.com/blues/pfs/internal/database"
	"github.com/blues/pfs/internal/fhe"
	"github.com/blues/pfs/internal/model"
	"github.com/blues/pfs/internal/oracle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	creatorAddr     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	aliceAddr       = common.HexToAddress("0x2222222222222222222222222222222222222222")
	bobAddr         = common.HexToAddress("0x3333333333333333333333333333333333333333")
	carolAddr       = common.HexToAddress("0x4444444444444444444444444444444444444444")
	strangerAddr    = common.HexToAddress("0x9999999999999999999999999999999999999999")
	platformAddr    = common.Address{}
	testCampaignDur = 48 * time.Hour
)

// testEnv 将全部业务逻辑组装在一个内存数据库上，
// 内嵌预言机通过ProcessPending驱动，模拟异步揭示回路
type testEnv struct {
	t          *testing.T
	db         *gorm.DB
	sk         *fhe.PrivateKey
	signKey    *ecdsa.PrivateKey
	svc        *oracle.Service
	campaign   *CampaignLogic
	reveal     *RevealLogic
	timeout    *TimeoutLogic
	settlement *SettlementLogic
	stats      *StatsLogic
	cfg        config.ProtocolConfig
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sk, err := fhe.GenerateKey(512)
	require.NoError(t, err)
	signKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	bcn, err := beacon.NewLocalBeacon()
	require.NoError(t, err)

	cfg := config.DefaultProtocol()
	svc := oracle.NewService(db, sk, signKey)
	verifier := oracle.NewVerifier(crypto.PubkeyToAddress(signKey.PublicKey))

	stats := NewStatsLogic(db)
	settlement := NewSettlementLogic(db, verifier, stats, &cfg)
	reveal := NewRevealLogic(db, verifier, stats, settlement, &cfg)
	timeout := NewTimeoutLogic(db, stats, &cfg)
	obfuscation := NewObfuscationGenerator(bcn, &cfg)
	campaign := NewCampaignLogic(db, sk.PK, obfuscation, stats, &cfg)

	svc.SetDeliver(reveal.Deliver)

	return &testEnv{
		t:          t,
		db:         db,
		sk:         sk,
		signKey:    signKey,
		svc:        svc,
		campaign:   campaign,
		reveal:     reveal,
		timeout:    timeout,
		settlement: settlement,
		stats:      stats,
		cfg:        cfg,
		now:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// createCampaign 以默认参数创建活动
func (e *testEnv) createCampaign(target int64) *model.CampaignModel {
	e.t.Helper()
	campaign, err := e.campaign.CreateCampaign(CreateCampaignInput{
		Creator:  creatorAddr,
		Title:    "测试活动",
		Category: "art",
		Target:   target,
		Duration: testCampaignDur,
	}, e.now)
	require.NoError(e.t, err)
	return campaign
}

// contribute 记录一笔出资
func (e *testEnv) contribute(campaignId int64, who common.Address, amount int64) {
	e.t.Helper()
	_, err := e.campaign.RecordContribution(campaignId, who, amount, "", e.now)
	require.NoError(e.t, err)
}

// afterDeadline 返回截止时间之后的时刻
func (e *testEnv) afterDeadline() time.Time {
	return e.now.Add(testCampaignDur).Add(time.Minute)
}

// finalize 创建者发起结算揭示请求
func (e *testEnv) finalize(campaignId int64) *model.RevealRequestModel {
	e.t.Helper()
	req, err := e.reveal.RequestFinalization(campaignId, creatorAddr, e.afterDeadline())
	require.NoError(e.t, err)
	return req
}

// runOracle 驱动内嵌预言机处理全部待投递请求
func (e *testEnv) runOracle(now time.Time) {
	e.t.Helper()
	require.NoError(e.t, e.svc.ProcessPending(now))
}

// settleAs 结算活动并断言终态
func (e *testEnv) settleAs(campaignId int64, want model.CampaignStatus) {
	e.t.Helper()
	e.finalize(campaignId)
	e.runOracle(e.afterDeadline())
	require.Equal(e.t, want, e.loadCampaign(campaignId).Status)
}

// loadCampaign 读取活动当前状态
func (e *testEnv) loadCampaign(campaignId int64) *model.CampaignModel {
	e.t.Helper()
	campaign, err := loadCampaign(e.db, campaignId)
	require.NoError(e.t, err)
	return campaign
}

// decryptRaised 解密活动的累计金额密文
func (e *testEnv) decryptRaised(campaignId int64) uint64 {
	e.t.Helper()
	campaign := e.loadCampaign(campaignId)
	ct, err := fhe.CiphertextFromBytes(campaign.RaisedCipher)
	require.NoError(e.t, err)
	raised, err := e.sk.Decrypt(ct)
	require.NoError(e.t, err)
	return raised
}

// driveToDecryptionFailed 通过连续超时把活动推入decryption_failed终态。
// 预言机暂停投递，每次超时检查推进一个揭示超时窗口。
func (e *testEnv) driveToDecryptionFailed(campaignId int64) time.Time {
	e.t.Helper()
	e.svc.Pause(true)
	e.finalize(campaignId)

	now := e.afterDeadline()
	for i := 0; i <= e.cfg.MaxRetries; i++ {
		now = now.Add(e.cfg.RevealTimeout).Add(time.Minute)
		require.NoError(e.t, e.timeout.OnTimeoutCheck(campaignId, platformAddr, now))
	}
	require.Equal(e.t, model.CampaignStatusDecryptionFailed, e.loadCampaign(campaignId).Status)
	return now
}
