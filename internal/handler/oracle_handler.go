package handler

import (
	"encoding/hex"
	"net/http"
	"time"

	"github.com/blues/pfs/internal/logic"
	"github.com/blues/pfs/internal/oracle"
	"github.com/gin-gonic/gin"
)

// OracleHandler 预言机回调处理器
type OracleHandler struct {
	revealLogic *logic.RevealLogic
	service     *oracle.Service
}

// NewOracleHandler 创建预言机回调处理器
func NewOracleHandler(revealLogic *logic.RevealLogic, service *oracle.Service) *OracleHandler {
	return &OracleHandler{
		revealLogic: revealLogic,
		service:     service,
	}
}

// Callback 接收预言机响应投递。
// 证明校验在logic层完成，伪造或重放的响应在这里不做任何状态变更。
func (h *OracleHandler) Callback(c *gin.Context) {
	var req OracleCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	plaintexts, err := hex.DecodeString(req.Plaintexts)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "负载hex解码失败")
		return
	}
	proof, err := hex.DecodeString(req.Proof)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "证明hex解码失败")
		return
	}

	if err := h.revealLogic.Deliver(req.RequestId, plaintexts, proof, time.Now()); err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "响应已消费", nil)
}

// Pause 暂停或恢复内嵌预言机的响应投递，用于演练超时与重试路径
func (h *OracleHandler) Pause(c *gin.Context) {
	var req OraclePauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	h.service.Pause(req.Paused)
	SuccessResponse(c, http.StatusOK, "预言机投递状态已更新", gin.H{"paused": h.service.Paused()})
}
