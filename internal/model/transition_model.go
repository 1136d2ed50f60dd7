package model

import (
	"time"
)

// CampaignTransitionModel 活动状态变迁记录，只追加不修改，用于审计与回放
type CampaignTransitionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignId int64          `json:"campaign_id" gorm:"not null;index"`
	FromStatus CampaignStatus `json:"from_status" gorm:"not null"`
	ToStatus   CampaignStatus `json:"to_status" gorm:"not null"`
	Operation  string         `json:"operation" gorm:"not null"` // 触发操作
	OccurredAt time.Time      `json:"occurred_at" gorm:"not null"`
}

// TableName 自定义表名
func (CampaignTransitionModel) TableName() string {
	return "campaign_transition"
}
