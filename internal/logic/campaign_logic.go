package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/pfs/internal/config"
	"github.com/blues/pfs/internal/fhe"
	"github.com/blues/pfs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/atomic"
	"gorm.io/gorm"
)

// CampaignLogic 活动账本业务逻辑。
// 负责活动创建与出资记录；raised始终是全部未退款出资密文的同态和。
type CampaignLogic struct {
	db          *gorm.DB
	pk          *fhe.PublicKey
	obfuscation *ObfuscationGenerator
	stats       *StatsLogic
	cfg         *config.ProtocolConfig
	seq         atomic.Int64 // 混淆乘数推导用的单调序列号
}

// NewCampaignLogic 创建活动账本业务逻辑
func NewCampaignLogic(db *gorm.DB, pk *fhe.PublicKey,
	obfuscation *ObfuscationGenerator, stats *StatsLogic, cfg *config.ProtocolConfig) *CampaignLogic {
	return &CampaignLogic{
		db:          db,
		pk:          pk,
		obfuscation: obfuscation,
		stats:       stats,
		cfg:         cfg,
	}
}

// CreateCampaignInput 创建活动入参
type CreateCampaignInput struct {
	Creator     common.Address
	Title       string
	Description string
	Category    string
	ContentURI  string
	Target      int64
	Duration    time.Duration
}

// CreateCampaign 创建活动：校验入参、加密目标金额、推导混淆乘数，
// 以active状态入库
func (l *CampaignLogic) CreateCampaign(in CreateCampaignInput, now time.Time) (*model.CampaignModel, error) {
	if err := l.validateCreate(in); err != nil {
		return nil, err
	}

	targetCipher, err := l.pk.Encrypt(uint64(in.Target))
	if err != nil {
		return nil, fmt.Errorf("加密目标金额失败: %w", err)
	}
	raisedCipher, err := l.pk.EncryptZero()
	if err != nil {
		return nil, fmt.Errorf("加密初始累计金额失败: %w", err)
	}

	campaign := &model.CampaignModel{
		Title:          in.Title,
		Description:    in.Description,
		Category:       in.Category,
		ContentURI:     in.ContentURI,
		CreatorAddress: in.Creator.Hex(),
		TargetCipher:   targetCipher.Bytes(),
		RaisedCipher:   raisedCipher.Bytes(),
		// 占位，入库拿到活动ID后在同一事务内推导并覆盖
		ObfuscatedTargetCipher: targetCipher.Bytes(),
		Deadline:               now.Add(in.Duration),
		Status:                 model.CampaignStatusActive,
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(campaign).Error; err != nil {
			return fmt.Errorf("创建活动失败: %w", err)
		}

		scalar, obfuscated, err := l.obfuscation.Derive(
			l.pk, targetCipher, campaign.Id, in.Creator, l.seq.Inc(), now)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"multiplier":               scalar,
			"obfuscated_target_cipher": obfuscated.Bytes(),
		}
		if err := tx.Model(campaign).Updates(updates).Error; err != nil {
			return fmt.Errorf("写入混淆目标失败: %w", err)
		}
		campaign.Multiplier = scalar
		campaign.ObfuscatedTargetCipher = obfuscated.Bytes()

		return l.stats.OnCampaignCreated(tx)
	})
	if err != nil {
		return nil, err
	}

	return campaign, nil
}

// validateCreate 校验创建活动入参
func (l *CampaignLogic) validateCreate(in CreateCampaignInput) error {
	if in.Title == "" {
		return fmt.Errorf("%w: 标题不能为空", ErrValidation)
	}
	if len(in.Title) > l.cfg.MaxTitleLen {
		return fmt.Errorf("%w: 标题长度超过%d", ErrValidation, l.cfg.MaxTitleLen)
	}
	if len(in.Description) > l.cfg.MaxDescriptionLen {
		return fmt.Errorf("%w: 描述长度超过%d", ErrValidation, l.cfg.MaxDescriptionLen)
	}
	if in.Target <= 0 || in.Target > l.cfg.MaxTarget {
		return fmt.Errorf("%w: 目标金额必须在(0, %d]内", ErrValidation, l.cfg.MaxTarget)
	}
	if in.Duration < l.cfg.MinDuration || in.Duration > l.cfg.MaxDuration {
		return fmt.Errorf("%w: 众筹时长必须在[%s, %s]内", ErrValidation, l.cfg.MinDuration, l.cfg.MaxDuration)
	}
	return nil
}

// RecordContribution 记录出资：金额加密后同态累加到出资人记录和活动raised，
// 仅在活动active且未到截止时间时有效
func (l *CampaignLogic) RecordContribution(campaignId int64, contributor common.Address,
	amount int64, message string, now time.Time) (*model.ContributionModel, error) {

	if amount <= 0 || amount > l.cfg.MaxContribution {
		return nil, fmt.Errorf("%w: 出资金额必须在(0, %d]内", ErrValidation, l.cfg.MaxContribution)
	}
	if len(message) > l.cfg.MaxMessageLen {
		return nil, fmt.Errorf("%w: 留言长度超过%d", ErrValidation, l.cfg.MaxMessageLen)
	}

	unlock := lockCampaign(campaignId)
	defer unlock()

	campaign, err := l.loadCampaign(campaignId)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignStatusActive {
		return nil, fmt.Errorf("%w: 活动状态为%s", ErrState, campaign.Status)
	}
	if !now.Before(campaign.Deadline) {
		return nil, fmt.Errorf("%w: 活动已到截止时间", ErrState)
	}

	amountCipher, err := l.pk.Encrypt(uint64(amount))
	if err != nil {
		return nil, fmt.Errorf("加密出资金额失败: %w", err)
	}

	var contribution model.ContributionModel
	err = l.db.Transaction(func(tx *gorm.DB) error {
		newBacker := false
		err := tx.Where("campaign_id = ? AND contributor_address = ?",
			campaignId, contributor.Hex()).First(&contribution).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			newBacker = true
			contribution = model.ContributionModel{
				CampaignId:         campaignId,
				ContributorAddress: contributor.Hex(),
				AmountCipher:       amountCipher.Bytes(),
				FirstContributedAt: now,
				Message:            message,
			}
			if err := tx.Create(&contribution).Error; err != nil {
				return fmt.Errorf("创建出资记录失败: %w", err)
			}
		case err != nil:
			return fmt.Errorf("查询出资记录失败: %w", err)
		default:
			if contribution.Refunded || contribution.RefundRequested {
				return fmt.Errorf("%w: 出资已进入退款流程", ErrState)
			}
			prev, err := fhe.CiphertextFromBytes(contribution.AmountCipher)
			if err != nil {
				return fmt.Errorf("出资密文损坏: %w", err)
			}
			accumulated, err := l.pk.Add(prev, amountCipher)
			if err != nil {
				return fmt.Errorf("累加出资密文失败: %w", err)
			}
			contribution.AmountCipher = accumulated.Bytes()
			err = tx.Model(&contribution).
				Update("amount_cipher", contribution.AmountCipher).Error
			if err != nil {
				return fmt.Errorf("更新出资记录失败: %w", err)
			}
		}

		raised, err := fhe.CiphertextFromBytes(campaign.RaisedCipher)
		if err != nil {
			return fmt.Errorf("累计金额密文损坏: %w", err)
		}
		newRaised, err := l.pk.Add(raised, amountCipher)
		if err != nil {
			return fmt.Errorf("累加活动金额密文失败: %w", err)
		}

		updates := map[string]interface{}{
			"raised_cipher": newRaised.Bytes(),
			"held_balance":  gorm.Expr("held_balance + ?", amount),
		}
		if newBacker {
			updates["backer_count"] = gorm.Expr("backer_count + 1")
		}
		err = tx.Model(&model.CampaignModel{}).
			Where("id = ?", campaignId).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("更新活动失败: %w", err)
		}

		return l.stats.OnContribution(tx, newBacker)
	})
	if err != nil {
		return nil, err
	}

	return &contribution, nil
}

// loadCampaign 加载活动
func (l *CampaignLogic) loadCampaign(campaignId int64) (*model.CampaignModel, error) {
	return loadCampaign(l.db, campaignId)
}

// loadCampaign 加载活动（包级辅助函数，各逻辑共用）
func loadCampaign(db *gorm.DB, campaignId int64) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	if err := db.First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 活动 %d", ErrNotFound, campaignId)
		}
		return nil, fmt.Errorf("查询活动失败: %w", err)
	}
	return &campaign, nil
}

// GetCampaign 获取活动详情
func (l *CampaignLogic) GetCampaign(campaignId int64) (*model.CampaignModel, error) {
	return l.loadCampaign(campaignId)
}

// GetCampaigns 获取活动列表
func (l *CampaignLogic) GetCampaigns(page, pageSize int) ([]model.CampaignModel, int64, error) {
	var campaigns []model.CampaignModel
	var total int64

	if err := l.db.Model(&model.CampaignModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计活动数量失败: %w", err)
	}

	err := l.db.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&campaigns).Error
	if err != nil {
		return nil, 0, fmt.Errorf("获取活动列表失败: %w", err)
	}

	return campaigns, total, nil
}

// GetUserCampaigns 获取用户创建的活动列表
func (l *CampaignLogic) GetUserCampaigns(creator common.Address) ([]model.CampaignModel, error) {
	var campaigns []model.CampaignModel
	err := l.db.Where("creator_address = ?", creator.Hex()).
		Order("id DESC").
		Find(&campaigns).Error
	if err != nil {
		return nil, fmt.Errorf("获取用户活动列表失败: %w", err)
	}
	return campaigns, nil
}

// GetCampaignContributions 获取活动出资记录
func (l *CampaignLogic) GetCampaignContributions(campaignId int64, page, pageSize int) ([]model.ContributionModel, int64, error) {
	var records []model.ContributionModel
	var total int64

	err := l.db.Model(&model.ContributionModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("统计出资记录失败: %w", err)
	}

	err = l.db.Where("campaign_id = ?", campaignId).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("获取出资记录失败: %w", err)
	}

	return records, total, nil
}

// CampaignStats 活动公开统计。金额密文不在其中，
// revealed字段仅在结算揭示通过校验后有值
type CampaignStats struct {
	Status              model.CampaignStatus `json:"status"`
	Deadline            time.Time            `json:"deadline"`
	BackerCount         int64                `json:"backer_count"`
	RefundedBackerCount int64                `json:"refunded_backer_count"`
	ContributionCount   int64                `json:"contribution_count"`
	HeldBalance         int64                `json:"held_balance"`
	RevealedRaised      *int64               `json:"revealed_raised"`
	RevealedTarget      *int64               `json:"revealed_target"`
}

// GetCampaignStats 获取活动公开统计
func (l *CampaignLogic) GetCampaignStats(campaignId int64) (*CampaignStats, error) {
	campaign, err := l.loadCampaign(campaignId)
	if err != nil {
		return nil, err
	}

	var contributionCount int64
	err = l.db.Model(&model.ContributionModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&contributionCount).Error
	if err != nil {
		return nil, fmt.Errorf("统计出资记录失败: %w", err)
	}

	return &CampaignStats{
		Status:              campaign.Status,
		Deadline:            campaign.Deadline,
		BackerCount:         campaign.BackerCount,
		RefundedBackerCount: campaign.RefundedBackerCount,
		ContributionCount:   contributionCount,
		HeldBalance:         campaign.HeldBalance,
		RevealedRaised:      campaign.RevealedRaised,
		RevealedTarget:      campaign.RevealedTarget,
	}, nil
}

// GetCampaignTransitions 获取活动状态变迁记录（审计）
func (l *CampaignLogic) GetCampaignTransitions(campaignId int64) ([]model.CampaignTransitionModel, error) {
	var transitions []model.CampaignTransitionModel
	err := l.db.Where("campaign_id = ?", campaignId).
		Order("id ASC").
		Find(&transitions).Error
	if err != nil {
		return nil, fmt.Errorf("获取状态变迁记录失败: %w", err)
	}
	return transitions, nil
}
