package logic

import (
	"fmt"

	"github.com/blues/pfs/internal/model"
	"gorm.io/gorm"
)

// StatsLogic 平台计数器业务逻辑。
// 计数器在每次状态变迁时增量更新，不做全量扫描。
type StatsLogic struct {
	db *gorm.DB
}

// NewStatsLogic 创建平台计数器业务逻辑
func NewStatsLogic(db *gorm.DB) *StatsLogic {
	return &StatsLogic{db: db}
}

// GetPlatformStats 获取平台计数器
func (s *StatsLogic) GetPlatformStats() (*model.PlatformStatsModel, error) {
	var stats model.PlatformStatsModel
	err := s.db.Where(model.PlatformStatsModel{Id: 1}).
		FirstOrCreate(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("获取平台计数器失败: %w", err)
	}
	return &stats, nil
}

// ensure 确保计数器行存在
func (s *StatsLogic) ensure(tx *gorm.DB) error {
	var stats model.PlatformStatsModel
	return tx.Where(model.PlatformStatsModel{Id: 1}).FirstOrCreate(&stats).Error
}

// increment 对计数器列做增量更新
func (s *StatsLogic) increment(tx *gorm.DB, column string, delta int64) error {
	if err := s.ensure(tx); err != nil {
		return err
	}
	return tx.Model(&model.PlatformStatsModel{}).
		Where("id = ?", 1).
		Update(column, gorm.Expr(column+" + ?", delta)).Error
}

// OnCampaignCreated 活动创建时更新计数器
func (s *StatsLogic) OnCampaignCreated(tx *gorm.DB) error {
	if err := s.increment(tx, "total_campaigns", 1); err != nil {
		return err
	}
	return s.increment(tx, "active_campaigns", 1)
}

// OnContribution 出资时更新计数器
func (s *StatsLogic) OnContribution(tx *gorm.DB, newBacker bool) error {
	if err := s.increment(tx, "total_contributions", 1); err != nil {
		return err
	}
	if newBacker {
		return s.increment(tx, "total_backers", 1)
	}
	return nil
}

// OnRefund 退款时更新计数器
func (s *StatsLogic) OnRefund(tx *gorm.DB) error {
	return s.increment(tx, "total_refunds", 1)
}

// OnRevealSuccess 活动结算成功时累计揭示金额
func (s *StatsLogic) OnRevealSuccess(tx *gorm.DB, revealedRaised int64) error {
	return s.increment(tx, "total_revealed_raised", revealedRaised)
}

// onTransition 状态变迁时增量更新各状态计数
func (s *StatsLogic) onTransition(tx *gorm.DB, from, to model.CampaignStatus) error {
	if col := statusColumn(from); col != "" {
		if err := s.increment(tx, col, -1); err != nil {
			return err
		}
	}
	if col := statusColumn(to); col != "" {
		if err := s.increment(tx, col, 1); err != nil {
			return err
		}
	}
	return nil
}

// statusColumn 状态对应的计数器列名
func statusColumn(status model.CampaignStatus) string {
	switch status {
	case model.CampaignStatusActive:
		return "active_campaigns"
	case model.CampaignStatusDecryptionPending:
		return "pending_campaigns"
	case model.CampaignStatusSuccessful:
		return "successful_campaigns"
	case model.CampaignStatusFailed:
		return "failed_campaigns"
	case model.CampaignStatusDecryptionFailed:
		return "decryption_failed_campaigns"
	case model.CampaignStatusWithdrawn:
		return "withdrawn_campaigns"
	default:
		return ""
	}
}
