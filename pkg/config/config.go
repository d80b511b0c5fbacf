package config

import (
	"log"
	"os"
	"time"

	"RapidSafe/pkg/cache"
	"RapidSafe/pkg/logger"
	"RapidSafe/pkg/notification"
	"RapidSafe/pkg/util"
)

// config/config.go
type Config struct {
	DBDriver        string `env:"DB_DRIVER"`
	DSN             string `env:"DSN"`
	Log             logger.LogConfig
	Cache           cache.Config
	SMS             notification.SMSConfig
	Addr            string        `env:"ADDR"`
	GRPCAddr        string        `env:"GRPC_ADDR"`
	Mode            string        `env:"MODE"`
	APIPrefix       string        `env:"API_PREFIX"`
	MonitorPrefix   string        `env:"MONITOR_PREFIX"`
	TrackingBaseURL string        `env:"TRACKING_BASE_URL"`
	AuthTokens      []string      `env:"AUTH_TOKENS"`
	Language        string        `env:"LANGUAGE"`
	SMSSendTimeout  time.Duration `env:"SMS_SEND_TIMEOUT"`
	TrackRate       string        `env:"TRACK_RATE"`
	IdempotencyTTL  time.Duration `env:"IDEMPOTENCY_TTL"`
	BackupEnabled   bool          `env:"BACKUP_ENABLED"`
	BackupPath      string        `env:"BACKUP_PATH"`
	BackupSchedule  string        `env:"BACKUP_SCHEDULE"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	err := util.LoadEnv(env)
	if err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		DBDriver: util.GetEnvDefault("DB_DRIVER", "sqlite"),
		DSN:      util.GetEnvDefault("DSN", "./data/rapidsafe.db"),
		Addr:     util.GetEnvDefault("ADDR", ":8080"),
		GRPCAddr: util.GetEnv("GRPC_ADDR"),
		Mode:     util.GetEnvDefault("MODE", "debug"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "gocache"),
			Redis: cache.RedisConfig{
				Addr:         util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password:     util.GetEnv("REDIS_PASSWORD"),
				DB:           int(util.GetIntEnv("REDIS_DB")),
				PoolSize:     int(util.GetIntEnvDefault("REDIS_POOL_SIZE", 10)),
				MinIdleConns: int(util.GetIntEnvDefault("REDIS_MIN_IDLE_CONNS", 2)),
				DialTimeout:  util.GetDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
				ReadTimeout:  util.GetDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
				WriteTimeout: util.GetDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			},
			Local: cache.LocalConfig{
				MaxSize:           int(util.GetIntEnvDefault("LOCAL_CACHE_MAX_SIZE", 10000)),
				DefaultExpiration: util.GetDurationEnv("LOCAL_CACHE_DEFAULT_EXPIRATION", 24*time.Hour),
				CleanupInterval:   util.GetDurationEnv("LOCAL_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
			},
		},
		SMS: notification.SMSConfig{
			Provider:   util.GetEnvDefault("SMS_PROVIDER", "log"),
			AccountSID: util.GetEnv("TWILIO_ACCOUNT_SID"),
			AuthToken:  util.GetEnv("TWILIO_AUTH_TOKEN"),
			From:       util.GetEnv("TWILIO_FROM"),
			BaseURL:    util.GetEnv("TWILIO_BASE_URL"),
		},
		APIPrefix:       util.GetEnvDefault("API_PREFIX", "/api"),
		MonitorPrefix:   util.GetEnvDefault("MONITOR_PREFIX", "/metrics"),
		TrackingBaseURL: util.GetEnvDefault("TRACKING_BASE_URL", "http://localhost:8080"),
		AuthTokens:      util.SplitCSV(util.GetEnv("AUTH_TOKENS")),
		Language:        util.GetEnvDefault("LANGUAGE", "en"),
		SMSSendTimeout:  util.GetDurationEnv("SMS_SEND_TIMEOUT", 15*time.Second),
		TrackRate:       util.GetEnvDefault("TRACK_RATE", "120-M"),
		IdempotencyTTL:  util.GetDurationEnv("IDEMPOTENCY_TTL", 10*time.Minute),
		BackupEnabled:   util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:      util.GetEnvDefault("BACKUP_PATH", "./backups"),
		BackupSchedule:  util.GetEnvDefault("BACKUP_SCHEDULE", "0 3 * * *"),
	}
	return nil
}
