package logic

import (
	"fmt"
	"time"

	"github.com/blues/pfs/internal/model"
	"gorm.io/gorm"
)

// transition 执行一次状态变迁：更新状态、追加审计记录、增量更新平台计数。
// 状态机中不存在可逆变迁，调用方负责保证变迁合法性。
func transition(tx *gorm.DB, stats *StatsLogic, c *model.CampaignModel,
	to model.CampaignStatus, operation string, now time.Time) error {

	from := c.Status

	err := tx.Model(&model.CampaignModel{}).
		Where("id = ?", c.Id).
		Update("status", to).Error
	if err != nil {
		return fmt.Errorf("更新活动状态失败: %w", err)
	}
	c.Status = to

	record := model.CampaignTransitionModel{
		CampaignId: c.Id,
		FromStatus: from,
		ToStatus:   to,
		Operation:  operation,
		OccurredAt: now,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("追加状态变迁记录失败: %w", err)
	}

	return stats.onTransition(tx, from, to)
}
