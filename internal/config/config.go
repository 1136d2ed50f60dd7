package config

import (
	"time"

	"github.com/blues/pfs/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Beacon   BeaconConfig   `mapstructure:"beacon"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ProtocolConfig 协议参数
type ProtocolConfig struct {
	MinDuration       time.Duration `mapstructure:"min_duration"`        // 最短众筹时长
	MaxDuration       time.Duration `mapstructure:"max_duration"`        // 最长众筹时长
	MaxTarget         int64         `mapstructure:"max_target"`          // 目标金额上限，为混淆乘数预留溢出余量
	MaxContribution   int64         `mapstructure:"max_contribution"`    // 单笔出资上限
	MaxTitleLen       int           `mapstructure:"max_title_len"`       // 标题长度上限
	MaxDescriptionLen int           `mapstructure:"max_description_len"` // 描述长度上限
	MaxMessageLen     int           `mapstructure:"max_message_len"`     // 留言长度上限
	GracePeriod       time.Duration `mapstructure:"grace_period"`        // 宽限期，过后任何人可强制结算
	RevealTimeout     time.Duration `mapstructure:"reveal_timeout"`      // 揭示请求超时
	MaxRetries        int           `mapstructure:"max_retries"`         // 超时重试上限
	MultiplierMin     int64         `mapstructure:"multiplier_min"`      // 混淆乘数下界（含）
	MultiplierMax     int64         `mapstructure:"multiplier_max"`      // 混淆乘数上界（不含）
}

// EmergencyDelay 应急退款等待时长：最后一次失败请求后2倍揭示超时
func (p ProtocolConfig) EmergencyDelay() time.Duration {
	return 2 * p.RevealTimeout
}

// OracleConfig 预言机配置
type OracleConfig struct {
	SignKey    string `mapstructure:"sign_key"`     // 内嵌预言机签名私钥（hex），为空则启动时生成
	FHEKeyBits int    `mapstructure:"fhe_key_bits"` // Paillier密钥长度
}

// BeaconConfig 随机信标配置
type BeaconConfig struct {
	URL string `mapstructure:"url"` // 为空时使用本地信标
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// DefaultProtocol 协议参数默认值，测试也使用这组参数
func DefaultProtocol() ProtocolConfig {
	return ProtocolConfig{
		MinDuration:       24 * time.Hour,
		MaxDuration:       90 * 24 * time.Hour,
		MaxTarget:         1_000_000_000_000,
		MaxContribution:   1_000_000_000,
		MaxTitleLen:       128,
		MaxDescriptionLen: 4096,
		MaxMessageLen:     256,
		GracePeriod:       72 * time.Hour,
		RevealTimeout:     time.Hour,
		MaxRetries:        2,
		MultiplierMin:     1000,
		MultiplierMax:     2000,
	}
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/pfs")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "pfs")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("protocol.min_duration", "24h")
	viper.SetDefault("protocol.max_duration", "2160h")
	viper.SetDefault("protocol.max_target", 1_000_000_000_000)
	viper.SetDefault("protocol.max_contribution", 1_000_000_000)
	viper.SetDefault("protocol.max_title_len", 128)
	viper.SetDefault("protocol.max_description_len", 4096)
	viper.SetDefault("protocol.max_message_len", 256)
	viper.SetDefault("protocol.grace_period", "72h")
	viper.SetDefault("protocol.reveal_timeout", "1h")
	viper.SetDefault("protocol.max_retries", 2)
	viper.SetDefault("protocol.multiplier_min", 1000)
	viper.SetDefault("protocol.multiplier_max", 2000)
	viper.SetDefault("oracle.sign_key", "")
	viper.SetDefault("oracle.fhe_key_bits", 2048)
	viper.SetDefault("beacon.url", "")
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
