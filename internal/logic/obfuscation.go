package logic

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/blues/pfs/internal/beacon"
	"github.com/blues/pfs/internal/config"
	"github.com/blues/pfs/internal/fhe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ObfuscationGenerator 混淆乘数生成器。
// 乘数来自当前时间、外部随机信标、创建者地址与单调序列号的单向混合，
// 任何单方都无法预测结果；目标密文在任何比较前乘以该乘数，
// 消除重复比较的残差分析信号。
type ObfuscationGenerator struct {
	beacon beacon.Beacon
	cfg    *config.ProtocolConfig
}

// NewObfuscationGenerator 创建混淆乘数生成器
func NewObfuscationGenerator(b beacon.Beacon, cfg *config.ProtocolConfig) *ObfuscationGenerator {
	return &ObfuscationGenerator{beacon: b, cfg: cfg}
}

// Derive 推导活动的混淆乘数并返回同态乘积 target*scalar。
// 乘数落在[MultiplierMin, MultiplierMax)区间，跨活动不复用。
func (g *ObfuscationGenerator) Derive(pk *fhe.PublicKey, target *fhe.Ciphertext,
	campaignId int64, creator common.Address, seq int64, now time.Time) (int64, *fhe.Ciphertext, error) {

	round, randomness, err := g.beacon.Latest()
	if err != nil {
		return 0, nil, fmt.Errorf("获取随机信标失败: %w", err)
	}

	var buf [32]byte
	binary.BigEndian.PutUint64(buf[0:], uint64(now.UnixNano()))
	binary.BigEndian.PutUint64(buf[8:], round)
	binary.BigEndian.PutUint64(buf[16:], uint64(campaignId))
	binary.BigEndian.PutUint64(buf[24:], uint64(seq))
	digest := crypto.Keccak256(buf[:], randomness, creator.Bytes())

	span := g.cfg.MultiplierMax - g.cfg.MultiplierMin
	if span <= 0 {
		return 0, nil, fmt.Errorf("混淆乘数区间配置无效: [%d, %d)", g.cfg.MultiplierMin, g.cfg.MultiplierMax)
	}
	scalar := g.cfg.MultiplierMin + int64(binary.BigEndian.Uint64(digest[:8])%uint64(span))

	obfuscated, err := pk.MulScalar(target, uint64(scalar))
	if err != nil {
		return 0, nil, fmt.Errorf("计算混淆目标密文失败: %w", err)
	}

	return scalar, obfuscated, nil
}
