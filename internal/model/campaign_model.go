package model

import (
	"time"
)

// CampaignModel 众筹活动模型。
// 目标金额与累计金额以密文存储，结算前平台无法得知明文；
// revealed_* 字段仅在预言机响应通过校验后填充。
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category"`
	ContentURI  string `json:"content_uri"`

	// 创建者信息
	CreatorAddress string `json:"creator_address" gorm:"not null;index"`

	// 众筹信息（密文）
	TargetCipher           []byte `json:"-" gorm:"not null"`
	RaisedCipher           []byte `json:"-" gorm:"not null"`
	ObfuscatedTargetCipher []byte `json:"-" gorm:"not null"`
	Multiplier             int64  `json:"-" gorm:"not null"` // 混淆乘数，留存审计，跨活动不复用

	// 时间信息
	Deadline time.Time `json:"deadline" gorm:"not null"`

	// 状态
	Status    CampaignStatus `json:"status" gorm:"default:'active';index"`
	Withdrawn bool           `json:"withdrawn" gorm:"default:false"`

	// 待解密请求簿记
	RequestId   *int64     `json:"request_id"`
	RequestedAt *time.Time `json:"requested_at"`
	RetryCount  int        `json:"retry_count" gorm:"default:0"`

	// 结算后明文缓存（仅在经过校验的揭示后有效）
	RevealedRaised *int64 `json:"revealed_raised"`
	RevealedTarget *int64 `json:"revealed_target"`

	// 资金托管与统计
	HeldBalance         int64 `json:"held_balance" gorm:"default:0"`
	BackerCount         int64 `json:"backer_count" gorm:"default:0"`
	RefundedBackerCount int64 `json:"refunded_backer_count" gorm:"default:0"`
}

// CampaignStatus 活动状态
type CampaignStatus string

const (
	CampaignStatusActive            CampaignStatus = "active"             // 进行中
	CampaignStatusDecryptionPending CampaignStatus = "decryption_pending" // 等待解密
	CampaignStatusSuccessful        CampaignStatus = "successful"         // 成功
	CampaignStatusFailed            CampaignStatus = "failed"             // 失败
	CampaignStatusDecryptionFailed  CampaignStatus = "decryption_failed"  // 解密失败（可退款）
	CampaignStatusWithdrawn         CampaignStatus = "withdrawn"          // 已提现
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
