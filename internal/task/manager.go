package task

import (
	"github.com/blues/pfs/internal/config"
	"github.com/blues/pfs/internal/logger"
	"github.com/blues/pfs/internal/logic"
	"github.com/blues/pfs/internal/oracle"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, cfg *config.Config,
	revealLogic *logic.RevealLogic, timeoutLogic *logic.TimeoutLogic,
	oracleService *oracle.Service) *Manager {

	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		jobs: []Job{
			NewRevealTimeoutJob(db, cfg, timeoutLogic),
			NewCampaignFinalizeJob(db, cfg, revealLogic),
			NewOracleJob(cfg, oracleService),
		},
	}
}

// Start 启动任务管理器
func (m *Manager) Start() {
	m.RegisterJobs()
	m.scheduler.Start()
	logger.Info("Task manager started successfully")
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	for _, job := range m.jobs {
		_, err := m.scheduler.NewJob(
			job.GetSchedule(),
			gocron.NewTask(job.Execute),
			gocron.WithName(job.GetName()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			logger.Error("Failed to register job %s: %v", job.GetName(), err)
		}
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
