package main

import (
	"crypto/ecdsa"
	"log"

	"github.com/blues/pfs/internal/beacon"
	"github.com/blues/pfs/internal/config"
	"github.com/blues/pfs/internal/database"
	"github.com/blues/pfs/internal/fhe"
	"github.com/blues/pfs/internal/logger"
	"github.com/blues/pfs/internal/logic"
	"github.com/blues/pfs/internal/oracle"
	"github.com/blues/pfs/internal/router"
	"github.com/blues/pfs/internal/task"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := setupLogger(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 生成同态加密密钥对。明文密文都只存在于本服务，
	// 重启后旧密文不可解密，生产部署应从密钥管理服务加载
	fheKey, err := fhe.GenerateKey(cfg.Oracle.FHEKeyBits)
	if err != nil {
		logger.Fatal("Failed to generate FHE key pair: %v", err)
	}

	// 预言机签名密钥
	signKey, err := loadSignKey(cfg.Oracle)
	if err != nil {
		logger.Fatal("Failed to load oracle sign key: %v", err)
	}

	// 随机信标
	var bcn beacon.Beacon
	if cfg.Beacon.URL != "" {
		bcn = beacon.NewHTTPBeacon(cfg.Beacon.URL)
		logger.Info("Using HTTP randomness beacon: %s", cfg.Beacon.URL)
	} else {
		bcn, err = beacon.NewLocalBeacon()
		if err != nil {
			logger.Fatal("Failed to initialize local beacon: %v", err)
		}
		logger.Info("Using local randomness beacon")
	}

	// 组装业务逻辑
	oracleService := oracle.NewService(db, fheKey, signKey)
	verifier := oracle.NewVerifier(oracleService.Address())

	statsLogic := logic.NewStatsLogic(db)
	settlementLogic := logic.NewSettlementLogic(db, verifier, statsLogic, &cfg.Protocol)
	revealLogic := logic.NewRevealLogic(db, verifier, statsLogic, settlementLogic, &cfg.Protocol)
	timeoutLogic := logic.NewTimeoutLogic(db, statsLogic, &cfg.Protocol)
	obfuscation := logic.NewObfuscationGenerator(bcn, &cfg.Protocol)
	campaignLogic := logic.NewCampaignLogic(db, fheKey.PK, obfuscation, statsLogic, &cfg.Protocol)

	oracleService.SetDeliver(revealLogic.Deliver)
	logger.Info("Oracle address: %s", oracleService.Address().Hex())

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(router.Logics{
		Campaign:   campaignLogic,
		Reveal:     revealLogic,
		Timeout:    timeoutLogic,
		Settlement: settlementLogic,
		Stats:      statsLogic,
		Oracle:     oracleService,
	})

	// 启动定时任务
	taskManager := task.NewManager(db, cfg, revealLogic, timeoutLogic, oracleService)
	taskManager.Start()
	defer taskManager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

func setupLogger(cfg config.LogConfig) error {
	level := logger.ParseLogLevel(cfg.Level)

	var l *logger.Logger
	var err error
	if cfg.Output == "file" {
		l, err = logger.NewWithFileRotation(level, cfg.File)
	} else {
		l, err = logger.New(level)
	}
	if err != nil {
		return err
	}

	logger.SetDefaultLogger(l)
	return nil
}

func loadSignKey(cfg config.OracleConfig) (*ecdsa.PrivateKey, error) {
	if cfg.SignKey != "" {
		return crypto.HexToECDSA(cfg.SignKey)
	}
	return crypto.GenerateKey()
}
