package model

import (
	"time"
)

// WithdrawalRecordModel 提现记录，每个活动至多一条成功记录
type WithdrawalRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;index"`
	Address    string `json:"address" gorm:"not null"`
	Amount     int64  `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (WithdrawalRecordModel) TableName() string {
	return "withdrawal_record"
}
