package logic

import (
	"errors"
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

// SettlementLogic 结算引擎业务逻辑，系统中唯一允许动用托管资金的组件。
// 状态检查保证每个活动至多一次成功提现、每笔出资至多一次成功退款；
// 状态变更严格先于转账记账，杜绝重入式双重提现。
type SettlementLogic struct {
	db       *gorm.DB
	verifier *oracle.Verifier
	stats    *StatsLogic
	cfg      *config.ProtocolConfig
}

// NewSettlementLogic 创建结算引擎业务逻辑
func NewSettlementLogic(db *gorm.DB, verifier *oracle.Verifier,
	stats *StatsLogic, cfg *config.ProtocolConfig) *SettlementLogic {
	return &SettlementLogic{db: db, verifier: verifier, stats: stats, cfg: cfg}
}

// Withdraw 创建者提现。仅在活动successful且存在经校验的揭示明文时允许，
// 转出金额恰为revealedRaised。
func (l *SettlementLogic) Withdraw(campaignId int64, caller common.Address,
	now time.Time) (*model.WithdrawalRecordModel, error) {

	unlock := lockCampaign(campaignId)
	defer unlock()

	campaign, err := loadCampaign(l.db, campaignId)
	if err != nil {
		return nil, err
	}
	if caller.Hex() != campaign.CreatorAddress {
		return nil, fmt.Errorf("%w: 仅创建者可提现", ErrUnauthorized)
	}
	if campaign.Status != model.CampaignStatusSuccessful {
		return nil, fmt.Errorf("%w: 活动状态为%s", ErrState, campaign.Status)
	}
	if campaign.Withdrawn {
		return nil, fmt.Errorf("%w: 活动已提现", ErrState)
	}
	if campaign.RevealedRaised == nil {
		return nil, fmt.Errorf("%w: 缺少经校验的揭示金额", ErrState)
	}

	amount := *campaign.RevealedRaised
	if campaign.HeldBalance < amount {
		return nil, fmt.Errorf("%w: 托管余额%d不足以转出%d", ErrResource, campaign.HeldBalance, amount)
	}

	record := &model.WithdrawalRecordModel{
		CampaignId: campaignId,
		Address:    caller.Hex(),
		Amount:     amount,
	}
	err = l.db.Transaction(func(tx *gorm.DB) error {
		// 先变更状态，再执行转账记账
		err := tx.Model(&model.CampaignModel{}).
			Where("id = ?", campaignId).
			Update("withdrawn", true).Error
		if err != nil {
			return fmt.Errorf("标记活动已提现失败: %w", err)
		}
		err = transition(tx, l.stats, campaign,
			model.CampaignStatusWithdrawn, "withdraw", now)
		if err != nil {
			return err
		}

		err = tx.Model(&model.CampaignModel{}).
			Where("id = ?", campaignId).
			Update("held_balance", gorm.Expr("held_balance - ?", amount)).Error
		if err != nil {
			return fmt.Errorf("扣减托管余额失败: %w", err)
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("创建提现记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Campaign %d withdrawn: %d to %s", campaignId, amount, caller.Hex())
	return record, nil
}

// RequestRefund 出资人申请退款。仅在failed或decryption_failed状态允许。
// failed状态下已有经校验的结算揭示，为该出资人单独发起金额揭示请求，
// 只披露其本人的出资额；decryption_failed状态下无请求可发，
// 走EmergencyRefund路径。
func (l *SettlementLogic) RequestRefund(campaignId int64, caller common.Address,
	now time.Time) (*model.RevealRequestModel, error) {

	unlock := lockCampaign(campaignId)
	defer unlock()

	campaign, err := loadCampaign(l.db, campaignId)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignStatusFailed &&
		campaign.Status != model.CampaignStatusDecryptionFailed {
		return nil, fmt.Errorf("%w: 活动状态为%s", ErrState, campaign.Status)
	}

	contribution, err := l.loadContribution(l.db, campaignId, caller)
	if err != nil {
		return nil, err
	}
	if contribution.Refunded {
		return nil, fmt.Errorf("%w: 出资已退款", ErrState)
	}
	if contribution.RefundRequested {
		return nil, fmt.Errorf("%w: 已申请退款", ErrState)
	}

	var req *model.RevealRequestModel
	err = l.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"refund_requested":    true,
			"refund_requested_at": now,
		}
		if err := tx.Model(contribution).Updates(updates).Error; err != nil {
			return fmt.Errorf("标记退款申请失败: %w", err)
		}

		// decryption_failed下没有可信的揭示通道，金额无从披露
		if campaign.Status != model.CampaignStatusFailed {
			return nil
		}

		req, err = issueRevealRequest(tx, campaignId, caller,
			model.RevealRequestKindRefund, caller.Bytes(),
			contribution.AmountCipher, nil, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if req != nil {
		logger.Info("Refund reveal request %d issued for campaign %d, contributor %s",
			req.Id, campaignId, caller.Hex())
	}
	return req, nil
}

// OnRefundReveal 消费退款揭示响应并转出退款。
// 出资人身份由请求context原样回传，不靠扫描待退款标记推断。
func (l *SettlementLogic) OnRefundReveal(requestId int64, plaintexts, proof []byte,
	now time.Time) error {

	if !l.verifier.Verify(requestId, plaintexts, proof) {
		return fmt.Errorf("%w: 请求%d的响应", ErrProofVerification, requestId)
	}
	values, err := oracle.DecodeWords(plaintexts, 1)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProofVerification, err)
	}
	if values[0] > math.MaxInt64 {
		return fmt.Errorf("%w: 揭示值超出范围", ErrProofVerification)
	}
	amount := int64(values[0])

	req, err := loadRevealRequest(l.db, requestId)
	if err != nil {
		return err
	}
	if req.Kind != model.RevealRequestKindRefund {
		return fmt.Errorf("%w: 请求%d不是退款请求", ErrState, requestId)
	}
	if len(req.Context) != common.AddressLength {
		return fmt.Errorf("%w: 请求%d缺少出资人上下文", ErrState, requestId)
	}
	contributor := common.BytesToAddress(req.Context)

	unlock := lockCampaign(req.CampaignId)
	defer unlock()

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
	contribution, err := l.loadContribution(l.db, req.CampaignId, contributor)
	if err != nil {
		return err
	}
	if !contribution.RefundRequested || contribution.Refunded {
		return fmt.Errorf("%w: 出资不在待退款状态", ErrState)
	}
	if campaign.HeldBalance < amount {
		return fmt.Errorf("%w: 托管余额%d不足以退款%d", ErrResource, campaign.HeldBalance, amount)
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.RevealRequestModel{}).
			Where("id = ?", requestId).
			Update("completed", true).Error
		if err != nil {
			return fmt.Errorf("标记请求完成失败: %w", err)
		}

		if err := tx.Model(contribution).Update("refunded", true).Error; err != nil {
			return fmt.Errorf("标记出资已退款失败: %w", err)
		}

		updates := map[string]interface{}{
			"held_balance":          gorm.Expr("held_balance - ?", amount),
			"refunded_backer_count": gorm.Expr("refunded_backer_count + 1"),
		}
		err = tx.Model(&model.CampaignModel{}).
			Where("id = ?", campaign.Id).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("扣减托管余额失败: %w", err)
		}

		record := model.RefundRecordModel{
			CampaignId:     campaign.Id,
			ContributionId: contribution.Id,
			Address:        contributor.Hex(),
			Amount:         amount,
			Kind:           model.RefundKindRevealed,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("创建退款记录失败: %w", err)
		}

		return l.stats.OnRefund(tx)
	})
	if err != nil {
		return err
	}

	logger.Info("Refund of %d paid to %s for campaign %d", amount, contributor.Hex(), campaign.Id)
	return nil
}

// EmergencyRefund 应急退款。预言机永久失联时没有可信的单笔金额，
// 按未退款出资人数均分剩余托管余额——以公平性换精确性，
// 保证没有出资人被永久冻结资金。
func (l *SettlementLogic) EmergencyRefund(campaignId int64, caller common.Address,
	now time.Time) (*model.RefundRecordModel, error) {

	unlock := lockCampaign(campaignId)
	defer unlock()

	campaign, err := loadCampaign(l.db, campaignId)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignStatusDecryptionFailed {
		return nil, fmt.Errorf("%w: 活动状态为%s", ErrState, campaign.Status)
	}
	if campaign.RequestedAt == nil ||
		now.Before(campaign.RequestedAt.Add(l.cfg.EmergencyDelay())) {
		return nil, fmt.Errorf("%w: 应急退款等待期未满", ErrState)
	}

	contribution, err := l.loadContribution(l.db, campaignId, caller)
	if err != nil {
		return nil, err
	}
	if contribution.Refunded {
		return nil, fmt.Errorf("%w: 出资已退款", ErrState)
	}

	remaining := campaign.BackerCount - campaign.RefundedBackerCount
	if remaining <= 0 {
		return nil, fmt.Errorf("%w: 无待退款出资人", ErrState)
	}
	share := campaign.HeldBalance / remaining
	if remaining == 1 {
		share = campaign.HeldBalance // 最后一人取整余量
	}
	if share <= 0 {
		return nil, fmt.Errorf("%w: 托管余额不足以均摊", ErrResource)
	}

	record := &model.RefundRecordModel{
		CampaignId:     campaignId,
		ContributionId: contribution.Id,
		Address:        caller.Hex(),
		Amount:         share,
		Kind:           model.RefundKindEmergency,
	}
	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(contribution).Update("refunded", true).Error; err != nil {
			return fmt.Errorf("标记出资已退款失败: %w", err)
		}

		updates := map[string]interface{}{
			"held_balance":          gorm.Expr("held_balance - ?", share),
			"refunded_backer_count": gorm.Expr("refunded_backer_count + 1"),
		}
		err = tx.Model(&model.CampaignModel{}).
			Where("id = ?", campaignId).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("扣减托管余额失败: %w", err)
		}

		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("创建退款记录失败: %w", err)
		}
		return l.stats.OnRefund(tx)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Emergency refund of %d paid to %s for campaign %d", share, caller.Hex(), campaignId)
	return record, nil
}

// GetCampaignRefunds 获取活动退款记录
func (l *SettlementLogic) GetCampaignRefunds(campaignId int64, page, pageSize int) ([]model.RefundRecordModel, int64, error) {
	var records []model.RefundRecordModel
	var total int64

	err := l.db.Model(&model.RefundRecordModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("统计退款记录失败: %w", err)
	}

	err = l.db.Where("campaign_id = ?", campaignId).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("获取退款记录失败: %w", err)
	}

	return records, total, nil
}

// loadContribution 加载出资记录；不存在视为无权操作
func (l *SettlementLogic) loadContribution(db *gorm.DB, campaignId int64,
	contributor common.Address) (*model.ContributionModel, error) {

	var contribution model.ContributionModel
	err := db.Where("campaign_id = ? AND contributor_address = ?",
		campaignId, contributor.Hex()).First(&contribution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 该地址无出资记录", ErrUnauthorized)
		}
		return nil, fmt.Errorf("查询出资记录失败: %w", err)
	}
	return &contribution, nil
}
