package handler

import (
	"net/http"
	"time"

	"github.com/blues/pfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// SettlementHandler 结算处理器：结算发起、超时检查、提现与退款
type SettlementHandler struct {
	revealLogic     *logic.RevealLogic
	timeoutLogic    *logic.TimeoutLogic
	settlementLogic *logic.SettlementLogic
}

// NewSettlementHandler 创建结算处理器
func NewSettlementHandler(revealLogic *logic.RevealLogic,
	timeoutLogic *logic.TimeoutLogic, settlementLogic *logic.SettlementLogic) *SettlementHandler {
	return &SettlementHandler{
		revealLogic:     revealLogic,
		timeoutLogic:    timeoutLogic,
		settlementLogic: settlementLogic,
	}
}

// Finalize 发起结算揭示请求
func (h *SettlementHandler) Finalize(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	req, err := h.revealLogic.RequestFinalization(campaignId, caller, time.Now())
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusAccepted, "结算揭示请求已发起", ToRevealRequestResponse(req))
}

// TimeoutCheck 超时检查
func (h *SettlementHandler) TimeoutCheck(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	if err := h.timeoutLogic.OnTimeoutCheck(campaignId, caller, time.Now()); err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "超时检查完成", nil)
}

// Withdraw 创建者提现
func (h *SettlementHandler) Withdraw(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	record, err := h.settlementLogic.Withdraw(campaignId, caller, time.Now())
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "提现成功", ToWithdrawalRecordResponse(record))
}

// RequestRefund 申请退款
func (h *SettlementHandler) RequestRefund(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	req, err := h.settlementLogic.RequestRefund(campaignId, caller, time.Now())
	if err != nil {
		FailWithError(c, err)
		return
	}

	if req == nil {
		// decryption_failed路径：无揭示请求，等待应急退款
		SuccessResponse(c, http.StatusAccepted, "退款申请已登记", nil)
		return
	}
	SuccessResponse(c, http.StatusAccepted, "退款揭示请求已发起", ToRevealRequestResponse(req))
}

// EmergencyRefund 应急退款
func (h *SettlementHandler) EmergencyRefund(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	record, err := h.settlementLogic.EmergencyRefund(campaignId, caller, time.Now())
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "应急退款成功", ToRefundRecordResponse(record))
}

// GetCampaignRefunds 获取活动退款记录
func (h *SettlementHandler) GetCampaignRefunds(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	refunds, total, err := h.settlementLogic.GetCampaignRefunds(campaignId, page, pageSize)
	if err != nil {
		FailWithError(c, err)
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取退款记录成功", GetRefundsResponse{
		Refunds:    ToRefundRecordResponseList(refunds),
		Pagination: pagination,
	})
}
