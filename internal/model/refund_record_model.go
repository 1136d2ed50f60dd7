package model

import (
	"time"
)

// RefundRecordModel 退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId     int64      `json:"campaign_id" gorm:"not null;index"`
	ContributionId int64      `json:"contribution_id" gorm:"not null"`
	Address        string     `json:"address" gorm:"not null"`
	Amount         int64      `json:"amount" gorm:"not null"`
	Kind           RefundKind `json:"kind" gorm:"not null"`
}

// RefundKind 退款类型
type RefundKind string

const (
	RefundKindRevealed  RefundKind = "revealed"  // 经揭示的精确退款
	RefundKindEmergency RefundKind = "emergency" // 预言机失联后的均摊应急退款
)

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
