package logic

import (
	"fmt"
	"math"
	"time"

	"github.com/blues/pfs/internal/config"
	"github.com/blues/pfs/internal/logger"
	"github.com/blues/pfs/internal/model"
	"github.com/blues/pfs/internal/oracle"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// RevealLogic 揭示请求管理业务逻辑。
// 负责发起结算揭示请求、校验并消费预言机响应；
// 响应仅在请求标识与活动当前待决请求一致时被接受，
// 被重试取代的旧请求响应一律按过期拒绝。
type RevealLogic struct {
	db         *gorm.DB
	verifier   *oracle.Verifier
	stats      *StatsLogic
	settlement *SettlementLogic
	cfg        *config.ProtocolConfig
}

// NewRevealLogic 创建揭示请求管理业务逻辑
func NewRevealLogic(db *gorm.DB, verifier *oracle.Verifier,
	stats *StatsLogic, settlement *SettlementLogic, cfg *config.ProtocolConfig) *RevealLogic {
	return &RevealLogic{
		db:         db,
		verifier:   verifier,
		stats:      stats,
		settlement: settlement,
		cfg:        cfg,
	}
}

// RequestFinalization 发起结算揭示请求。
// 截止时间前不可发起；宽限期内仅创建者可发起，
// 宽限期过后任何人可发起，防止创建者无限期搁置资金。
func (l *RevealLogic) RequestFinalization(campaignId int64, caller common.Address,
	now time.Time) (*model.RevealRequestModel, error) {

	unlock := lockCampaign(campaignId)
	defer unlock()

	campaign, err := loadCampaign(l.db, campaignId)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignStatusActive {
		return nil, fmt.Errorf("%w: 活动状态为%s", ErrState, campaign.Status)
	}
	if now.Before(campaign.Deadline) {
		return nil, fmt.Errorf("%w: 活动尚未到截止时间", ErrState)
	}
	if caller.Hex() != campaign.CreatorAddress &&
		now.Before(campaign.Deadline.Add(l.cfg.GracePeriod)) {
		return nil, fmt.Errorf("%w: 宽限期内仅创建者可发起结算", ErrUnauthorized)
	}

	var req *model.RevealRequestModel
	err = l.db.Transaction(func(tx *gorm.DB) error {
		req, err = issueRevealRequest(tx, campaignId, caller,
			model.RevealRequestKindFinalize, nil,
			campaign.RaisedCipher, campaign.TargetCipher, now)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"request_id":   req.Id,
			"requested_at": now,
		}
		err = tx.Model(&model.CampaignModel{}).
			Where("id = ?", campaignId).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("更新活动请求簿记失败: %w", err)
		}

		return transition(tx, l.stats, campaign,
			model.CampaignStatusDecryptionPending, "finalize_requested", now)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Finalization requested for campaign %d, request %d", campaignId, req.Id)
	return req, nil
}

// OnRevealResponse 消费结算揭示响应。
// 证明校验是伪造/重放响应的唯一拒绝点，校验失败整个操作原子失败；
// 校验通过后比较揭示出的raised与target决定活动成败。
func (l *RevealLogic) OnRevealResponse(requestId int64, plaintexts, proof []byte,
	now time.Time) error {

	// 任何状态变更前先校验证明与负载形状
	if !l.verifier.Verify(requestId, plaintexts, proof) {
		return fmt.Errorf("%w: 请求%d的响应", ErrProofVerification, requestId)
	}
	values, err := oracle.DecodeWords(plaintexts, 2)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProofVerification, err)
	}
	if values[0] > math.MaxInt64 || values[1] > math.MaxInt64 {
		return fmt.Errorf("%w: 揭示值超出范围", ErrProofVerification)
	}
	revealedRaised, revealedTarget := int64(values[0]), int64(values[1])

	req, err := loadRevealRequest(l.db, requestId)
	if err != nil {
		return err
	}
	if req.Kind != model.RevealRequestKindFinalize {
		return fmt.Errorf("%w: 请求%d不是结算请求", ErrState, requestId)
	}

	unlock := lockCampaign(req.CampaignId)
	defer unlock()

	// 加锁后重读，避免读到锁前的过期状态
	req, err = loadRevealRequest(l.db, requestId)
	if err != nil {
		return err
	}
	if req.Completed || req.TimedOut {
		return fmt.Errorf("%w: 请求%d已终结", ErrState, requestId)
	}

	campaign, err := loadCampaign(l.db, req.CampaignId)
	if err != nil {
		return err
	}
	if campaign.Status != model.CampaignStatusDecryptionPending {
		return fmt.Errorf("%w: 活动状态为%s", ErrState, campaign.Status)
	}
	if campaign.RequestId == nil || *campaign.RequestId != requestId {
		return fmt.Errorf("%w: 请求%d已被重试取代", ErrState, requestId)
	}

	next := model.CampaignStatusFailed
	if revealedRaised >= revealedTarget {
		next = model.CampaignStatusSuccessful
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.RevealRequestModel{}).
			Where("id = ?", requestId).
			Update("completed", true).Error
		if err != nil {
			return fmt.Errorf("标记请求完成失败: %w", err)
		}

		updates := map[string]interface{}{
			"revealed_raised": revealedRaised,
			"revealed_target": revealedTarget,
		}
		err = tx.Model(&model.CampaignModel{}).
			Where("id = ?", campaign.Id).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("缓存揭示明文失败: %w", err)
		}

		if err := transition(tx, l.stats, campaign, next, "reveal_response", now); err != nil {
			return err
		}
		if next == model.CampaignStatusSuccessful {
			return l.stats.OnRevealSuccess(tx, revealedRaised)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Campaign %d settled as %s (raised=%d, target=%d)",
		campaign.Id, next, revealedRaised, revealedTarget)
	return nil
}

// Deliver 预言机响应统一入口，按请求类型路由
func (l *RevealLogic) Deliver(requestId int64, plaintexts, proof []byte, now time.Time) error {
	req, err := loadRevealRequest(l.db, requestId)
	if err != nil {
		return err
	}

	switch req.Kind {
	case model.RevealRequestKindFinalize:
		return l.OnRevealResponse(requestId, plaintexts, proof, now)
	case model.RevealRequestKindRefund:
		return l.settlement.OnRefundReveal(requestId, plaintexts, proof, now)
	default:
		return fmt.Errorf("%w: 未知请求类型%s", ErrState, req.Kind)
	}
}
