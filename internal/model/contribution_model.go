package model

import (
	"time"
)

// ContributionModel 出资记录，按活动×出资人唯一。
// 同一出资人重复出资通过同态加法累加到amount_cipher，
// refunded置真后记录不再变更。
type ContributionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId         int64  `json:"campaign_id" gorm:"not null;uniqueIndex:idx_campaign_contributor"`
	ContributorAddress string `json:"contributor_address" gorm:"not null;uniqueIndex:idx_campaign_contributor"`

	AmountCipher       []byte    `json:"-" gorm:"not null"`
	FirstContributedAt time.Time `json:"first_contributed_at" gorm:"not null"`
	Message            string    `json:"message"`

	Refunded          bool       `json:"refunded" gorm:"default:false"`
	RefundRequested   bool       `json:"refund_requested" gorm:"default:false"`
	RefundRequestedAt *time.Time `json:"refund_requested_at"`
}

// TableName 自定义表名
func (ContributionModel) TableName() string {
	return "contribution"
}
