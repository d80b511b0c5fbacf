package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cast"

	"RapidSafe/pkg/logger"
	"RapidSafe/pkg/util"
)

// AgentConfig holds the device-side settings of the rapidsafe agent.
type AgentConfig struct {
	Log       logger.LogConfig
	DBPath    string `env:"AGENT_DB"`
	UserID    string `env:"AGENT_USER_ID"`
	Token     string `env:"AGENT_TOKEN"`
	Transport string `env:"AGENT_TRANSPORT"` // http | grpc
	// BackendURL is used by the http transport, GRPCTarget by grpc.
	BackendURL     string        `env:"AGENT_BACKEND_URL"`
	GRPCTarget     string        `env:"AGENT_GRPC_TARGET"`
	BackendTimeout time.Duration `env:"AGENT_BACKEND_TIMEOUT"`

	FixTimeout   time.Duration `env:"AGENT_FIX_TIMEOUT"`
	PollInterval time.Duration `env:"AGENT_POLL_INTERVAL"`
	MinInterval  time.Duration `env:"AGENT_MIN_INTERVAL"`
	MinDistanceM float64       `env:"AGENT_MIN_DISTANCE_M"`

	// FixFile points at a JSON file {"lat":..,"lng":..,"heading":..}
	// that the file position provider re-reads on every fix.
	FixFile string `env:"AGENT_FIX_FILE"`

	DisplayName string `env:"AGENT_DISPLAY_NAME"`

	// 模拟系统定位授权
	AllowForeground bool `env:"AGENT_ALLOW_FOREGROUND"`
	AllowBackground bool `env:"AGENT_ALLOW_BACKGROUND"`
}

func LoadAgent() *AgentConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	_ = util.LoadEnv(env)

	dbPath := util.GetEnvDefault("AGENT_DB", "./data/device.db")
	return &AgentConfig{
		// 设备端日志只写文件，屏幕上不能出现任何报警痕迹
		Log: logger.LogConfig{
			Level:    util.GetEnvDefault("LOG_LEVEL", "info"),
			Filename: util.GetEnvDefault("LOG_FILENAME", filepath.Join(filepath.Dir(dbPath), "agent.log")),
			FileOnly: true,
		},
		DBPath:         dbPath,
		UserID:         util.GetEnv("AGENT_USER_ID"),
		Token:          util.GetEnv("AGENT_TOKEN"),
		Transport:      util.GetEnvDefault("AGENT_TRANSPORT", "http"),
		BackendURL:     util.GetEnvDefault("AGENT_BACKEND_URL", "http://localhost:8080/api"),
		GRPCTarget:     util.GetEnvDefault("AGENT_GRPC_TARGET", "localhost:9090"),
		BackendTimeout: util.GetDurationEnv("AGENT_BACKEND_TIMEOUT", 0),
		FixTimeout:     util.GetDurationEnv("AGENT_FIX_TIMEOUT", 10*time.Second),
		PollInterval:   util.GetDurationEnv("AGENT_POLL_INTERVAL", time.Second),
		MinInterval:    util.GetDurationEnv("AGENT_MIN_INTERVAL", 5*time.Second),
		MinDistanceM:   cast.ToFloat64(util.GetEnvDefault("AGENT_MIN_DISTANCE_M", "5")),
		FixFile:        util.GetEnv("AGENT_FIX_FILE"),
		DisplayName:    util.GetEnv("AGENT_DISPLAY_NAME"),

		AllowForeground: cast.ToBool(util.GetEnvDefault("AGENT_ALLOW_FOREGROUND", "true")),
		AllowBackground: cast.ToBool(util.GetEnvDefault("AGENT_ALLOW_BACKGROUND", "true")),
	}
}
