package model

import (
	"time"
)

// PlatformStatsModel 平台级计数器，单行记录，
// 在每次状态变迁时增量更新而非全量扫描
type PlatformStatsModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	UpdatedAt time.Time `json:"updated_at"`

	TotalCampaigns            int64 `json:"total_campaigns" gorm:"default:0"`
	ActiveCampaigns           int64 `json:"active_campaigns" gorm:"default:0"`
	PendingCampaigns          int64 `json:"pending_campaigns" gorm:"default:0"`
	SuccessfulCampaigns       int64 `json:"successful_campaigns" gorm:"default:0"`
	FailedCampaigns           int64 `json:"failed_campaigns" gorm:"default:0"`
	DecryptionFailedCampaigns int64 `json:"decryption_failed_campaigns" gorm:"default:0"`
	WithdrawnCampaigns        int64 `json:"withdrawn_campaigns" gorm:"default:0"`

	TotalContributions  int64 `json:"total_contributions" gorm:"default:0"`
	TotalBackers        int64 `json:"total_backers" gorm:"default:0"` // 各活动backer_count之和
	TotalRefunds        int64 `json:"total_refunds" gorm:"default:0"`
	TotalRevealedRaised int64 `json:"total_revealed_raised" gorm:"default:0"` // 成功活动揭示金额之和
}

// TableName 自定义表名
func (PlatformStatsModel) TableName() string {
	return "platform_stats"
}
