package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/blues/pfs/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// CampaignHandler 活动处理器
type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
}

// NewCampaignHandler 创建活动处理器
func NewCampaignHandler(campaignLogic *logic.CampaignLogic) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic: campaignLogic,
	}
}

// callerAddress 从请求头解析调用方身份
func callerAddress(c *gin.Context) (common.Address, bool) {
	addr := c.GetHeader("X-Caller-Address")
	if !common.IsHexAddress(addr) {
		ErrorResponse(c, http.StatusBadRequest, "缺少或无效的调用方地址")
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}

// campaignIdParam 从路径解析活动ID
func campaignIdParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return 0, false
	}
	return id, true
}

// pageParams 从查询参数解析分页
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的众筹时长: "+err.Error())
		return
	}

	campaign, err := h.campaignLogic.CreateCampaign(logic.CreateCampaignInput{
		Creator:     caller,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ContentURI:  req.ContentURI,
		Target:      req.Target,
		Duration:    duration,
	}, time.Now())
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "创建活动成功", ToCampaignResponse(campaign))
}

// GetCampaigns 获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	page, pageSize := pageParams(c)

	campaigns, total, err := h.campaignLogic.GetCampaigns(page, pageSize)
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

	SuccessResponse(c, http.StatusOK, "获取活动列表成功", GetCampaignsResponse{
		Campaigns:  ToCampaignResponseList(campaigns),
		Pagination: pagination,
	})
}

// GetCampaign 获取活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}

	campaign, err := h.campaignLogic.GetCampaign(campaignId)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动详情成功", ToCampaignResponse(campaign))
}

// GetUserCampaigns 获取用户创建的活动列表
func (h *CampaignHandler) GetUserCampaigns(c *gin.Context) {
	addr := c.Param("address")
	if !common.IsHexAddress(addr) {
		ErrorResponse(c, http.StatusBadRequest, "无效的用户地址")
		return
	}

	campaigns, err := h.campaignLogic.GetUserCampaigns(common.HexToAddress(addr))
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取用户活动列表成功", ToCampaignResponseList(campaigns))
}

// Contribute 出资
func (h *CampaignHandler) Contribute(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	contribution, err := h.campaignLogic.RecordContribution(
		campaignId, caller, req.Amount, req.Message, time.Now())
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "出资成功", ToContributionResponse(contribution))
}

// GetCampaignContributions 获取活动出资记录
func (h *CampaignHandler) GetCampaignContributions(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	records, total, err := h.campaignLogic.GetCampaignContributions(campaignId, page, pageSize)
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

	SuccessResponse(c, http.StatusOK, "获取出资记录成功", GetContributionsResponse{
		Contributions: ToContributionResponseList(records),
		Pagination:    pagination,
	})
}

// GetCampaignStats 获取活动公开统计
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}

	stats, err := h.campaignLogic.GetCampaignStats(campaignId)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动统计成功", stats)
}

// GetCampaignTransitions 获取活动状态变迁记录
func (h *CampaignHandler) GetCampaignTransitions(c *gin.Context) {
	campaignId, ok := campaignIdParam(c)
	if !ok {
		return
	}

	transitions, err := h.campaignLogic.GetCampaignTransitions(campaignId)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取状态变迁记录成功", ToTransitionResponseList(transitions))
}
