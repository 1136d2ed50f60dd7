package model

import (
	"time"
)

// RevealRequestModel 揭示请求记录。
// 主键即请求标识，自增不复用；context字段由预言机原样回传，
// 退款类请求借此携带出资人身份。
type RevealRequestModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId       int64             `json:"campaign_id" gorm:"not null;index"`
	RequesterAddress string            `json:"requester_address" gorm:"not null"`
	Kind             RevealRequestKind `json:"kind" gorm:"not null"`
	Context          []byte            `json:"-"`

	// 提交给预言机的密文负载；结算请求为[raised, target]，退款请求仅Payload1
	Payload1 []byte `json:"-" gorm:"not null"`
	Payload2 []byte `json:"-"`

	IssuedAt    time.Time  `json:"issued_at" gorm:"not null"`
	Completed   bool       `json:"completed" gorm:"default:false"`
	TimedOut    bool       `json:"timed_out" gorm:"default:false"`
	DeliveredAt *time.Time `json:"delivered_at"`
}

// RevealRequestKind 揭示请求类型
type RevealRequestKind string

const (
	RevealRequestKindFinalize RevealRequestKind = "finalize" // 结算揭示 [raised, target]
	RevealRequestKindRefund   RevealRequestKind = "refund"   // 单笔出资退款揭示
)

// TableName 自定义表名
func (RevealRequestModel) TableName() string {
	return "reveal_request"
}
