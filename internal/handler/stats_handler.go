package handler

import (
	"net/http"

	"github.com/blues/pfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// StatsHandler 平台计数器处理器
type StatsHandler struct {
	statsLogic *logic.StatsLogic
}

// NewStatsHandler 创建平台计数器处理器
func NewStatsHandler(statsLogic *logic.StatsLogic) *StatsHandler {
	return &StatsHandler{
		statsLogic: statsLogic,
	}
}

// GetPlatformStats 获取平台计数器
func (h *StatsHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.statsLogic.GetPlatformStats()
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取平台统计成功", stats)
}
