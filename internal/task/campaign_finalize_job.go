package task

import (
	"errors"
	"time"

	"github.com/blues/pfs/internal/config"
	"github.com/blues/pfs/internal/logger"
	"github.com/blues/pfs/internal/logic"
	"github.com/blues/pfs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// CampaignFinalizeJob 活动强制结算任务。
// 宽限期过后任何人都可以发起结算，平台代为推进，
// 防止创建者无限期搁置已到期活动的资金。
type CampaignFinalizeJob struct {
	db          *gorm.DB
	config      *config.Config
	revealLogic *logic.RevealLogic
}

// NewCampaignFinalizeJob 创建活动强制结算任务
func NewCampaignFinalizeJob(db *gorm.DB, cfg *config.Config, revealLogic *logic.RevealLogic) *CampaignFinalizeJob {
	return &CampaignFinalizeJob{
		db:          db,
		config:      cfg,
		revealLogic: revealLogic,
	}
}

// GetName 获取任务名称
func (j *CampaignFinalizeJob) GetName() string {
	return "campaign_force_finalizer"
}

// GetSchedule 获取调度配置
func (j *CampaignFinalizeJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignFinalizeJob) Execute() {
	now := time.Now()
	cutoff := now.Add(-j.config.Protocol.GracePeriod)

	var campaigns []model.CampaignModel
	err := j.db.Where("status = ? AND deadline <= ?",
		model.CampaignStatusActive, cutoff).
		Find(&campaigns).Error
	if err != nil {
		logger.Error("Failed to fetch campaigns for force finalization: %v", err)
		return
	}

	finalizedCount := 0
	for _, campaign := range campaigns {
		_, err := j.revealLogic.RequestFinalization(campaign.Id, common.Address{}, now)
		if err != nil {
			if errors.Is(err, logic.ErrState) {
				continue
			}
			logger.Error("Force finalization failed for campaign %d: %v", campaign.Id, err)
			continue
		}
		finalizedCount++
	}

	if finalizedCount > 0 {
		logger.Info("Force finalization task completed. Finalized %d campaigns", finalizedCount)
	}
}
