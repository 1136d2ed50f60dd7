package task

import (
	"time"

	"github.com/blues/pfs/internal/config"
	"github.com/blues/pfs/internal/logger"
	"github.com/blues/pfs/internal/oracle"
	"github.com/go-co-op/gocron/v2"
)

// OracleJob 驱动内嵌预言机处理待投递的揭示请求
type OracleJob struct {
	config  *config.Config
	service *oracle.Service
}

// NewOracleJob 创建预言机任务
func NewOracleJob(cfg *config.Config, service *oracle.Service) *OracleJob {
	return &OracleJob{
		config:  cfg,
		service: service,
	}
}

// GetName 获取任务名称
func (j *OracleJob) GetName() string {
	return "oracle_request_processor"
}

// GetSchedule 获取调度配置
func (j *OracleJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *OracleJob) Execute() {
	if err := j.service.ProcessPending(time.Now()); err != nil {
		logger.Error("Oracle request processing failed: %v", err)
	}
}
