package handler

import (
	"time"

	"github.com/blues/pfs/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 活动相关请求模型

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ContentURI  string `json:"contentUri"`
	Target      int64  `json:"target" binding:"required"`
	Duration    string `json:"duration" binding:"required"` // Go时长格式，如 "720h"
}

// ContributeRequest 出资请求
type ContributeRequest struct {
	Amount  int64  `json:"amount" binding:"required"`
	Message string `json:"message"`
}

// OracleCallbackRequest 预言机响应投递请求
type OracleCallbackRequest struct {
	RequestId  int64  `json:"requestId" binding:"required"`
	Plaintexts string `json:"plaintexts" binding:"required"` // hex编码负载
	Proof      string `json:"proof" binding:"required"`      // hex编码证明
}

// OraclePauseRequest 预言机投递开关请求
type OraclePauseRequest struct {
	Paused bool `json:"paused"`
}

// 活动相关响应模型

// CampaignResponse 活动响应模型，密文字段不对外暴露
type CampaignResponse struct {
	Id             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	ContentURI     string    `json:"contentUri"`
	Creator        string    `json:"creator"`
	Deadline       time.Time `json:"deadline"`
	Status         string    `json:"status"`
	Withdrawn      bool      `json:"withdrawn"`
	RequestId      *int64    `json:"requestId,omitempty"`
	RetryCount     int       `json:"retryCount"`
	RevealedRaised *int64    `json:"revealedRaised,omitempty"`
	RevealedTarget *int64    `json:"revealedTarget,omitempty"`
	BackerCount    int64     `json:"backerCount"`
	HeldBalance    int64     `json:"heldBalance"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ContributionResponse 出资记录响应模型，金额密文不对外暴露
type ContributionResponse struct {
	Id                 int64      `json:"id"`
	CampaignId         int64      `json:"campaignId"`
	Contributor        string     `json:"contributor"`
	FirstContributedAt time.Time  `json:"firstContributedAt"`
	Message            string     `json:"message"`
	Refunded           bool       `json:"refunded"`
	RefundRequested    bool       `json:"refundRequested"`
	RefundRequestedAt  *time.Time `json:"refundRequestedAt,omitempty"`
}

// RevealRequestResponse 揭示请求响应模型
type RevealRequestResponse struct {
	Id         int64     `json:"id"`
	CampaignId int64     `json:"campaignId"`
	Kind       string    `json:"kind"`
	IssuedAt   time.Time `json:"issuedAt"`
	Completed  bool      `json:"completed"`
	TimedOut   bool      `json:"timedOut"`
}

// TransitionResponse 状态变迁响应模型
type TransitionResponse struct {
	CampaignId int64     `json:"campaignId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	Operation  string    `json:"operation"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RefundRecordResponse 退款记录响应模型
type RefundRecordResponse struct {
	Id         int64     `json:"id"`
	CampaignId int64     `json:"campaignId"`
	Address    string    `json:"address"`
	Amount     int64     `json:"amount"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"createdAt"`
}

// WithdrawalRecordResponse 提现记录响应模型
type WithdrawalRecordResponse struct {
	Id         int64     `json:"id"`
	CampaignId int64     `json:"campaignId"`
	Address    string    `json:"address"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GetCampaignsResponse 获取活动列表响应
type GetCampaignsResponse struct {
	Campaigns  []CampaignResponse `json:"campaigns"`
	Pagination Pagination         `json:"pagination"`
}

// GetContributionsResponse 获取出资记录响应
type GetContributionsResponse struct {
	Contributions []ContributionResponse `json:"contributions"`
	Pagination    Pagination             `json:"pagination"`
}

// GetRefundsResponse 获取退款记录响应
type GetRefundsResponse struct {
	Refunds    []RefundRecordResponse `json:"refunds"`
	Pagination Pagination             `json:"pagination"`
}

// 转换函数

// ToCampaignResponse 将数据库模型转换为响应模型
func ToCampaignResponse(c *model.CampaignModel) CampaignResponse {
	return CampaignResponse{
		Id:             c.Id,
		Title:          c.Title,
		Description:    c.Description,
		Category:       c.Category,
		ContentURI:     c.ContentURI,
		Creator:        c.CreatorAddress,
		Deadline:       c.Deadline,
		Status:         string(c.Status),
		Withdrawn:      c.Withdrawn,
		RequestId:      c.RequestId,
		RetryCount:     c.RetryCount,
		RevealedRaised: c.RevealedRaised,
		RevealedTarget: c.RevealedTarget,
		BackerCount:    c.BackerCount,
		HeldBalance:    c.HeldBalance,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ToCampaignResponseList 批量转换活动模型
func ToCampaignResponseList(campaigns []model.CampaignModel) []CampaignResponse {
	out := make([]CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		out = append(out, ToCampaignResponse(&campaigns[i]))
	}
	return out
}

// ToContributionResponse 将数据库模型转换为响应模型
func ToContributionResponse(r *model.ContributionModel) ContributionResponse {
	return ContributionResponse{
		Id:                 r.Id,
		CampaignId:         r.CampaignId,
		Contributor:        r.ContributorAddress,
		FirstContributedAt: r.FirstContributedAt,
		Message:            r.Message,
		Refunded:           r.Refunded,
		RefundRequested:    r.RefundRequested,
		RefundRequestedAt:  r.RefundRequestedAt,
	}
}

// ToContributionResponseList 批量转换出资记录
func ToContributionResponseList(records []model.ContributionModel) []ContributionResponse {
	out := make([]ContributionResponse, 0, len(records))
	for i := range records {
		out = append(out, ToContributionResponse(&records[i]))
	}
	return out
}

// ToRevealRequestResponse 将数据库模型转换为响应模型
func ToRevealRequestResponse(r *model.RevealRequestModel) RevealRequestResponse {
	return RevealRequestResponse{
		Id:         r.Id,
		CampaignId: r.CampaignId,
		Kind:       string(r.Kind),
		IssuedAt:   r.IssuedAt,
		Completed:  r.Completed,
		TimedOut:   r.TimedOut,
	}
}

// ToTransitionResponseList 批量转换状态变迁记录
func ToTransitionResponseList(records []model.CampaignTransitionModel) []TransitionResponse {
	out := make([]TransitionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, TransitionResponse{
			CampaignId: r.CampaignId,
			FromStatus: string(r.FromStatus),
			ToStatus:   string(r.ToStatus),
			Operation:  r.Operation,
			OccurredAt: r.OccurredAt,
		})
	}
	return out
}

// ToRefundRecordResponse 将数据库模型转换为响应模型
func ToRefundRecordResponse(r *model.RefundRecordModel) RefundRecordResponse {
	return RefundRecordResponse{
		Id:         r.Id,
		CampaignId: r.CampaignId,
		Address:    r.Address,
		Amount:     r.Amount,
		Kind:       string(r.Kind),
		CreatedAt:  r.CreatedAt,
	}
}

// ToRefundRecordResponseList 批量转换退款记录
func ToRefundRecordResponseList(records []model.RefundRecordModel) []RefundRecordResponse {
	out := make([]RefundRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, ToRefundRecordResponse(&records[i]))
	}
	return out
}

// ToWithdrawalRecordResponse 将数据库模型转换为响应模型
func ToWithdrawalRecordResponse(r *model.WithdrawalRecordModel) WithdrawalRecordResponse {
	return WithdrawalRecordResponse{
		Id:         r.Id,
		CampaignId: r.CampaignId,
		Address:    r.Address,
		Amount:     r.Amount,
		CreatedAt:  r.CreatedAt,
	}
}
