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

// RevealTimeoutJob 揭示超时检查任务。
// 扫描等待解密且已超时的活动，驱动超时重试控制器。
type RevealTimeoutJob struct {
	db           *gorm.DB
	config       *config.Config
	timeoutLogic *logic.TimeoutLogic
}

// NewRevealTimeoutJob 创建揭示超时检查任务
func NewRevealTimeoutJob(db *gorm.DB, cfg *config.Config, timeoutLogic *logic.TimeoutLogic) *RevealTimeoutJob {
	return &RevealTimeoutJob{
		db:           db,
		config:       cfg,
		timeoutLogic: timeoutLogic,
	}
}

// GetName 获取任务名称
func (j *RevealTimeoutJob) GetName() string {
	return "reveal_timeout_checker"
}

// GetSchedule 获取调度配置
func (j *RevealTimeoutJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *RevealTimeoutJob) Execute() {
	now := time.Now()
	cutoff := now.Add(-j.config.Protocol.RevealTimeout)

	var campaigns []model.CampaignModel
	err := j.db.Where("status = ? AND requested_at <= ?",
		model.CampaignStatusDecryptionPending, cutoff).
		Find(&campaigns).Error
	if err != nil {
		logger.Error("Failed to fetch pending campaigns for timeout check: %v", err)
		return
	}

	checkedCount := 0
	for _, campaign := range campaigns {
		err := j.timeoutLogic.OnTimeoutCheck(campaign.Id, common.Address{}, now)
		if err != nil {
			// 并发的预言机响应可能抢先终结请求，状态类错误不算失败
			if errors.Is(err, logic.ErrState) {
				continue
			}
			logger.Error("Timeout check failed for campaign %d: %v", campaign.Id, err)
			continue
		}
		checkedCount++
	}

	if checkedCount > 0 {
		logger.Info("Reveal timeout task completed. Processed %d campaigns", checkedCount)
	}
}
