package logic

import (
	"fmt"
	"time"

	"github.com/blues/pfs/internal/config"
	"github.com/blues/pfs/internal/logger"
	"github.com/blues/pfs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// TimeoutLogic 超时重试控制业务逻辑。
// 有界重试吸收预言机的瞬时不可用；重试耗尽后进入终态decryption_failed，
// 保证即使预言机永久失联资金仍能向退款推进，且绝不在未经校验的数据上动资金。
type TimeoutLogic struct {
	db    *gorm.DB
	stats *StatsLogic
	cfg   *config.ProtocolConfig
}

// NewTimeoutLogic 创建超时重试控制业务逻辑
func NewTimeoutLogic(db *gorm.DB, stats *StatsLogic, cfg *config.ProtocolConfig) *TimeoutLogic {
	return &TimeoutLogic{db: db, stats: stats, cfg: cfg}
}

// OnTimeoutCheck 超时检查。
// 重试次数未满：以相同负载重新发起请求（新标识），旧请求被取代；
// 重试次数已满：标记请求超时，活动转入decryption_failed。
func (l *TimeoutLogic) OnTimeoutCheck(campaignId int64, caller common.Address,
	now time.Time) error {

	unlock := lockCampaign(campaignId)
	defer unlock()

	campaign, err := loadCampaign(l.db, campaignId)
	if err != nil {
		return err
	}
	if campaign.Status != model.CampaignStatusDecryptionPending {
		return fmt.Errorf("%w: 活动状态为%s", ErrState, campaign.Status)
	}
	if campaign.RequestId == nil || campaign.RequestedAt == nil {
		return fmt.Errorf("%w: 活动无待决揭示请求", ErrState)
	}
	if now.Before(campaign.RequestedAt.Add(l.cfg.RevealTimeout)) {
		return fmt.Errorf("%w: 揭示请求尚未超时", ErrState)
	}

	current, err := loadRevealRequest(l.db, *campaign.RequestId)
	if err != nil {
		return err
	}
	if current.Completed {
		return fmt.Errorf("%w: 请求%d已完成", ErrState, current.Id)
	}
	if current.TimedOut {
		return fmt.Errorf("%w: 请求%d已标记超时", ErrState, current.Id)
	}

	if campaign.RetryCount < l.cfg.MaxRetries {
		return l.retry(campaign, current, caller, now)
	}
	return l.escalate(campaign, current, now)
}

// retry 以相同负载重新发起揭示请求，取代当前请求
func (l *TimeoutLogic) retry(campaign *model.CampaignModel,
	current *model.RevealRequestModel, caller common.Address, now time.Time) error {

	err := l.db.Transaction(func(tx *gorm.DB) error {
		// 旧请求终结为timed_out，迟到的响应将因标识不匹配被拒绝
		err := tx.Model(&model.RevealRequestModel{}).
			Where("id = ?", current.Id).
			Update("timed_out", true).Error
		if err != nil {
			return fmt.Errorf("标记旧请求超时失败: %w", err)
		}

		req, err := issueRevealRequest(tx, campaign.Id, caller, current.Kind,
			current.Context, current.Payload1, current.Payload2, now)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"request_id":   req.Id,
			"requested_at": now,
			"retry_count":  gorm.Expr("retry_count + 1"),
		}
		err = tx.Model(&model.CampaignModel{}).
			Where("id = ?", campaign.Id).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("更新活动请求簿记失败: %w", err)
		}

		logger.Info("Reveal request %d for campaign %d superseded by %d (retry %d/%d)",
			current.Id, campaign.Id, req.Id, campaign.RetryCount+1, l.cfg.MaxRetries)
		return nil
	})
	return err
}

// escalate 重试耗尽，活动转入终态decryption_failed
func (l *TimeoutLogic) escalate(campaign *model.CampaignModel,
	current *model.RevealRequestModel, now time.Time) error {

	err := l.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.RevealRequestModel{}).
			Where("id = ?", current.Id).
			Update("timed_out", true).Error
		if err != nil {
			return fmt.Errorf("标记请求超时失败: %w", err)
		}

		return transition(tx, l.stats, campaign,
			model.CampaignStatusDecryptionFailed, "timeout_escalation", now)
	})
	if err != nil {
		return err
	}

	logger.Warn("Campaign %d entered decryption_failed after %d retries",
		campaign.Id, campaign.RetryCount)
	return nil
}
