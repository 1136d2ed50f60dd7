package oracle

import (
	"crypto/ecdsa"
	"fmt"
	"sync"
	"time"

	"github.com/blues/pfs/internal/fhe"
	"github.com/blues/pfs/internal/logger"
	"github.com/blues/pfs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"
	"gorm.io/gorm"
)

// DeliverFunc 响应投递回调，对应协议核心的deliver边界
type DeliverFunc func(requestId int64, plaintexts, proof []byte, now time.Time) error

// Service 模拟解密预言机。
// 持有Paillier私钥与签名私钥，轮询待处理的揭示请求，
// 解密后签发证明并投递响应。paused开关用于演练超时路径。
type Service struct {
	db      *gorm.DB
	sk      *fhe.PrivateKey
	signKey *ecdsa.PrivateKey
	deliver DeliverFunc
	paused  atomic.Bool
}

// NewService 创建预言机服务
func NewService(db *gorm.DB, sk *fhe.PrivateKey, signKey *ecdsa.PrivateKey) *Service {
	return &Service{db: db, sk: sk, signKey: signKey}
}

// SetDeliver 设置响应投递回调
func (s *Service) SetDeliver(fn DeliverFunc) {
	s.deliver = fn
}

// Address 预言机签名地址，协议核心据此校验证明
func (s *Service) Address() common.Address {
	return crypto.PubkeyToAddress(s.signKey.PublicKey)
}

// Pause 暂停或恢复响应投递
func (s *Service) Pause(p bool) {
	s.paused.Store(p)
}

// Paused 返回当前暂停状态
func (s *Service) Paused() bool {
	return s.paused.Load()
}

// ProcessPending 处理所有未投递的揭示请求
func (s *Service) ProcessPending(now time.Time) error {
	if s.paused.Load() {
		return nil
	}

	var requests []model.RevealRequestModel
	err := s.db.Where("completed = ? AND timed_out = ? AND delivered_at IS NULL", false, false).
		Find(&requests).Error
	if err != nil {
		return fmt.Errorf("查询待处理揭示请求失败: %w", err)
	}
	if len(requests) == 0 {
		return nil
	}

	pool, err := ants.NewPool(len(requests))
	if err != nil {
		return fmt.Errorf("failed to create oracle pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range requests {
		req := requests[i]
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := s.processRequest(&req, now); err != nil {
				logger.Error("Oracle failed to process request %d: %v", req.Id, err)
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit oracle task: %v", err)
		}
	}
	wg.Wait()

	return nil
}

// processRequest 解密单个请求的负载、签发证明并投递
func (s *Service) processRequest(req *model.RevealRequestModel, now time.Time) error {
	values, err := s.decryptPayload(req)
	if err != nil {
		return err
	}

	plaintexts := EncodeWords(values)
	proof, err := Sign(s.signKey, req.Id, plaintexts)
	if err != nil {
		return fmt.Errorf("签发证明失败: %w", err)
	}

	// 先标记已投递，避免重复处理；核心侧仍有幂等检查兜底
	err = s.db.Model(&model.RevealRequestModel{}).
		Where("id = ?", req.Id).
		Update("delivered_at", &now).Error
	if err != nil {
		return fmt.Errorf("标记请求已投递失败: %w", err)
	}

	if s.deliver == nil {
		return fmt.Errorf("投递回调未设置")
	}
	if err := s.deliver(req.Id, plaintexts, proof, now); err != nil {
		return fmt.Errorf("投递响应失败: %w", err)
	}

	logger.Info("Oracle delivered response for request %d (campaign %d, kind %s)",
		req.Id, req.CampaignId, req.Kind)
	return nil
}

// decryptPayload 按请求类型解密负载密文
func (s *Service) decryptPayload(req *model.RevealRequestModel) ([]uint64, error) {
	ct1, err := fhe.CiphertextFromBytes(req.Payload1)
	if err != nil {
		return nil, fmt.Errorf("负载密文1无效: %w", err)
	}
	v1, err := s.sk.Decrypt(ct1)
	if err != nil {
		return nil, fmt.Errorf("解密负载1失败: %w", err)
	}

	if req.Kind == model.RevealRequestKindRefund {
		return []uint64{v1}, nil
	}

	ct2, err := fhe.CiphertextFromBytes(req.Payload2)
	if err != nil {
		return nil, fmt.Errorf("负载密文2无效: %w", err)
	}
	v2, err := s.sk.Decrypt(ct2)
	if err != nil {
		return nil, fmt.Errorf("解密负载2失败: %w", err)
	}
	return []uint64{v1, v2}, nil
}
